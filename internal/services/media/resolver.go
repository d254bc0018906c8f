package media

import (
	"context"

	"go.uber.org/zap"
)

// URLRefresher requests a fresh access URL for an object path.
type URLRefresher interface {
	RefreshDownloadURL(ctx context.Context, remotePath string) (string, error)
}

// Resolver picks the best available URL for a stored media object.
// Refreshed URLs are preferred because persisted download links may
// carry expired or rotated access tokens.
type Resolver struct {
	refresher URLRefresher
	logger    *zap.Logger
}

func NewResolver(refresher URLRefresher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		refresher: refresher,
		logger:    logger,
	}
}

// Resolve returns a fresh URL for storagePath when possible, the stored
// mediaURL when the refresh fails or no path is known, and "" when the
// record carries neither. A refresh failure is not an error for the
// caller: the stale URL usually still works.
func (r *Resolver) Resolve(ctx context.Context, storagePath, mediaURL string) string {
	if storagePath == "" {
		return mediaURL
	}
	if r.refresher == nil {
		return mediaURL
	}

	fresh, err := r.refresher.RefreshDownloadURL(ctx, storagePath)
	if err != nil {
		r.logger.Debug("media url refresh failed, serving stored url",
			zap.String("storage_path", storagePath),
			zap.Error(err),
		)
		return mediaURL
	}
	return fresh
}
