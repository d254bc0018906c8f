package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
	pgrepo "github.com/OzanD26/halk-habercisi/internal/repo/postgres"
	"github.com/OzanD26/halk-habercisi/internal/services/progress"
	"github.com/OzanD26/halk-habercisi/internal/services/upload"
)

const maxDescriptionLen = 400

type Uploader interface {
	BeginSession(ctx context.Context, remotePath, contentType string, sizeBytes int64) (*upload.Session, error)
	TransferAndFinalize(ctx context.Context, session *upload.Session, payload []byte) (upload.CanonicalLocator, error)
}

type URLBuilder interface {
	DownloadURL(bucket, name, token string) string
}

type ObjectDeleter interface {
	DeleteObject(ctx context.Context, storagePath string) error
}

type Store interface {
	Create(ctx context.Context, rec pgrepo.NewReport) (pgrepo.ReportRecord, error)
}

type ChangePublisher interface {
	PublishChange(ctx context.Context) error
}

// Location is the reporter's geolocation at submission time.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Report is the persisted record as returned to the submitter.
type Report struct {
	ID          string
	Description string
	MediaURL    string
	StoragePath string
	Bucket      string
	MediaType   enums.MediaKind
	Location    *Location
	Approved    bool
	CreatedAt   time.Time
}

// Service runs a submission end to end: validate, derive the remote path,
// drive the two-phase upload, persist the record, announce the change.
type Service struct {
	uploader    Uploader
	urls        URLBuilder
	cleaner     ObjectDeleter
	store       Store
	publisher   ChangePublisher
	progressCfg progress.Config
	newID       func() string
	logger      *zap.Logger
}

func NewService(uploader Uploader, urls URLBuilder, store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		uploader: uploader,
		urls:     urls,
		store:    store,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// AttachProgress sets the synthetic progress curve used during transfers.
func (s *Service) AttachProgress(cfg progress.Config) {
	s.progressCfg = cfg
}

// AttachCleanup enables the best-effort compensating delete when the
// metadata write fails after a successful transfer.
func (s *Service) AttachCleanup(cleaner ObjectDeleter) {
	s.cleaner = cleaner
}

// AttachPublisher makes successful submissions announce a feed change.
func (s *Service) AttachPublisher(publisher ChangePublisher) {
	s.publisher = publisher
}

// Submit validates the input, uploads the payload and persists the report.
// onProgress, if non-nil, receives the synthetic progress signal; it ends
// at 1.0 on success and at 0 on any failure.
func (s *Service) Submit(ctx context.Context, asset *MediaAsset, payload []byte, description string, location *Location, onProgress func(float64)) (Report, error) {
	if err := validate(asset, description, location); err != nil {
		return Report{}, err
	}
	if s.uploader == nil || s.urls == nil || s.store == nil {
		return Report{}, fmt.Errorf("report service dependencies are not configured")
	}

	description = strings.TrimSpace(description)

	remotePath, contentType := s.deriveRemote(asset)

	est := progress.NewEstimator(s.progressCfg, onProgress)
	est.Start()

	session, err := s.uploader.BeginSession(ctx, remotePath, contentType, asset.SizeBytes)
	if err != nil {
		est.Abort(0)
		return Report{}, err
	}

	locator, err := s.uploader.TransferAndFinalize(ctx, session, payload)
	if err != nil {
		est.Abort(0)
		return Report{}, err
	}

	est.Complete()

	mediaURL := s.urls.DownloadURL(locator.Bucket, locator.Name, locator.DownloadToken)

	rec, err := s.store.Create(ctx, pgrepo.NewReport{
		Description: description,
		MediaURL:    mediaURL,
		StoragePath: remotePath,
		Bucket:      locator.Bucket,
		MediaType:   string(asset.Kind),
		Latitude:    &location.Latitude,
		Longitude:   &location.Longitude,
	})
	if err != nil {
		est.Abort(0)
		if s.cleaner != nil {
			if delErr := s.cleaner.DeleteObject(ctx, remotePath); delErr != nil {
				s.logger.Warn("orphaned object cleanup failed",
					zap.String("storage_path", remotePath),
					zap.Error(delErr),
				)
			}
		}
		return Report{}, &PersistenceError{Locator: locator, Err: err}
	}

	if s.publisher != nil {
		if pubErr := s.publisher.PublishChange(ctx); pubErr != nil {
			s.logger.Warn("publish feed change failed", zap.Error(pubErr))
		}
	}

	s.logger.Info("report submitted",
		zap.String("report_id", rec.ID),
		zap.String("storage_path", remotePath),
		zap.String("media_type", string(asset.Kind)),
	)

	return Report{
		ID:          rec.ID,
		Description: rec.Description,
		MediaURL:    rec.MediaURL,
		StoragePath: remotePath,
		Bucket:      rec.Bucket,
		MediaType:   asset.Kind,
		Location:    &Location{Latitude: location.Latitude, Longitude: location.Longitude},
		Approved:    rec.Approved,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

func (s *Service) deriveRemote(asset *MediaAsset) (remotePath, contentType string) {
	ext := fileExtension(asset.URI, asset.Kind)
	remotePath = fmt.Sprintf("reports/%s.%s", s.newID(), ext)

	contentType = strings.TrimSpace(asset.MimeType)
	if contentType == "" {
		contentType = defaultContentType(asset.Kind)
	}
	return remotePath, contentType
}

func validate(asset *MediaAsset, description string, location *Location) error {
	var missing []string
	if asset == nil || asset.SizeBytes <= 0 {
		missing = append(missing, "media")
	}
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		missing = append(missing, "description")
	}
	if location == nil {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	if len(trimmed) > maxDescriptionLen {
		return &ValidationError{Fields: []string{"description"}}
	}
	return nil
}
