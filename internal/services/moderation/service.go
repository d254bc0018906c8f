package moderation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
	pgrepo "github.com/OzanD26/halk-habercisi/internal/repo/postgres"
)

type ReportStore interface {
	List(ctx context.Context, tab enums.FilterTab, ordered bool) ([]pgrepo.ReportRecord, error)
	Get(ctx context.Context, id string) (pgrepo.ReportRecord, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	Delete(ctx context.Context, id string) error
}

type ObjectDeleter interface {
	DeleteObject(ctx context.Context, remotePath string) error
}

type ChangePublisher interface {
	PublishChange(ctx context.Context) error
}

// Service covers the moderator actions over submitted reports.
type Service struct {
	store     ReportStore
	cleaner   ObjectDeleter
	publisher ChangePublisher
	logger    *zap.Logger
}

func NewService(store ReportStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// AttachCleanup enables stored-object deletion when a report is removed.
func (s *Service) AttachCleanup(cleaner ObjectDeleter) {
	s.cleaner = cleaner
}

// AttachPublisher enables change notifications for live feed subscribers.
func (s *Service) AttachPublisher(publisher ChangePublisher) {
	s.publisher = publisher
}

func (s *Service) ListReports(ctx context.Context, tab enums.FilterTab) ([]pgrepo.ReportRecord, error) {
	records, err := s.store.List(ctx, tab, true)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return records, nil
}

// ToggleApproved flips the approval flag and returns the updated record.
func (s *Service) ToggleApproved(ctx context.Context, id string) (pgrepo.ReportRecord, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return pgrepo.ReportRecord{}, err
	}

	record.Approved = !record.Approved
	if err := s.store.SetApproved(ctx, id, record.Approved); err != nil {
		return pgrepo.ReportRecord{}, fmt.Errorf("set approved: %w", err)
	}

	s.notifyChange(ctx)
	s.logger.Info("report approval toggled",
		zap.String("report_id", id),
		zap.Bool("approved", record.Approved),
	)
	return record, nil
}

// DeleteReport removes the record and, best effort, its stored media.
// A failed blob delete leaves an orphaned object rather than a report
// pointing at nothing, so the record delete still proceeds.
func (s *Service) DeleteReport(ctx context.Context, id string) error {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if s.cleaner != nil && record.StoragePath != nil && *record.StoragePath != "" {
		if err := s.cleaner.DeleteObject(ctx, *record.StoragePath); err != nil {
			s.logger.Warn("stored media delete failed, removing record anyway",
				zap.String("report_id", id),
				zap.String("storage_path", *record.StoragePath),
				zap.Error(err),
			)
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	s.notifyChange(ctx)
	s.logger.Info("report deleted", zap.String("report_id", id))
	return nil
}

func (s *Service) notifyChange(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx); err != nil {
		s.logger.Warn("feed change publish failed", zap.Error(err))
	}
}
