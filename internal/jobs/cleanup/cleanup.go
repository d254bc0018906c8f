package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	pgrepo "github.com/OzanD26/halk-habercisi/internal/repo/postgres"
)

type ReportStore interface {
	ListUnapprovedOlderThan(ctx context.Context, cutoff time.Time) ([]pgrepo.ReportRecord, error)
	Delete(ctx context.Context, id string) error
}

type ObjectDeleter interface {
	DeleteObject(ctx context.Context, remotePath string) error
}

type ChangePublisher interface {
	PublishChange(ctx context.Context) error
}

// Job purges unapproved reports that moderators never acted on, so the
// pending queue and the blob store stop accumulating abandoned
// submissions.
type Job struct {
	store     ReportStore
	cleaner   ObjectDeleter
	publisher ChangePublisher
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewStaleReportJob(store ReportStore, cleaner ObjectDeleter, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		store:     store,
		cleaner:   cleaner,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// AttachPublisher makes a purge that removed anything announce a feed change.
func (j *Job) AttachPublisher(publisher ChangePublisher) {
	j.publisher = publisher
}

func (j *Job) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	stale, err := j.store.ListUnapprovedOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale reports: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	for _, rec := range stale {
		if j.cleaner != nil && rec.StoragePath != nil && *rec.StoragePath != "" {
			if err := j.cleaner.DeleteObject(ctx, *rec.StoragePath); err != nil {
				j.logger.Warn("failed to delete stored media",
					zap.Error(err),
					zap.String("storage_path", *rec.StoragePath),
				)
			}
		}
		if err := j.store.Delete(ctx, rec.ID); err != nil {
			return fmt.Errorf("delete stale report %s: %w", rec.ID, err)
		}
	}

	if j.publisher != nil {
		if err := j.publisher.PublishChange(ctx); err != nil {
			j.logger.Warn("publish feed change failed", zap.Error(err))
		}
	}

	j.logger.Info("stale report cleanup completed", zap.Int("deleted", len(stale)))
	return nil
}

// RunPeriodically runs the job on the given interval until ctx ends. The
// first run happens after one interval, not immediately.
func (j *Job) RunPeriodically(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("stale report cleanup failed", zap.Error(err))
			}
		}
	}
}
