package upload

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Transport issues the raw protocol requests against the blob store.
type Transport interface {
	StartSession(ctx context.Context, remotePath, contentType string, sizeBytes int64) (string, error)
	UploadAndFinalize(ctx context.Context, sessionURL, contentType string, payload []byte) (CanonicalLocator, error)
}

// Manager drives the two-phase resumable upload protocol and owns the
// session state machine. It performs no retries: a failed session is
// discarded by the caller.
type Manager struct {
	transport Transport
	logger    *zap.Logger
}

func NewManager(transport Transport, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		transport: transport,
		logger:    logger,
	}
}

// BeginSession negotiates a session URL for the declared payload. Absence
// of a session URL, or a non-2xx status, surfaces as *ProtocolError.
func (m *Manager) BeginSession(ctx context.Context, remotePath, contentType string, sizeBytes int64) (*Session, error) {
	if strings.TrimSpace(remotePath) == "" {
		return nil, fmt.Errorf("remote path is required")
	}
	if sizeBytes <= 0 {
		return nil, fmt.Errorf("payload size must be positive")
	}
	if m.transport == nil {
		return nil, fmt.Errorf("upload transport is not configured")
	}

	sessionURL, err := m.transport.StartSession(ctx, remotePath, contentType, sizeBytes)
	if err != nil {
		return nil, err
	}
	if sessionURL == "" {
		return nil, &ProtocolError{Status: 200, Body: "no session url returned"}
	}

	m.logger.Debug("upload session started",
		zap.String("remote_path", remotePath),
		zap.Int64("size_bytes", sizeBytes),
	)

	return &Session{
		RemotePath:  remotePath,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		sessionURL:  sessionURL,
		state:       StateStarted,
	}, nil
}

// TransferAndFinalize sends the entire payload in a single call. On any
// failure the session moves to Failed and must not be presented again.
func (m *Manager) TransferAndFinalize(ctx context.Context, session *Session, payload []byte) (CanonicalLocator, error) {
	if session == nil {
		return CanonicalLocator{}, fmt.Errorf("session is nil")
	}
	if session.state != StateStarted {
		return CanonicalLocator{}, fmt.Errorf("session for %s is %s, not started", session.RemotePath, session.state)
	}
	if len(payload) == 0 {
		session.state = StateFailed
		return CanonicalLocator{}, fmt.Errorf("payload is empty")
	}

	session.state = StateTransferring

	locator, err := m.transport.UploadAndFinalize(ctx, session.sessionURL, session.ContentType, payload)
	if err != nil {
		session.state = StateFailed
		return CanonicalLocator{}, err
	}

	session.state = StateFinalized
	m.logger.Debug("upload finalized",
		zap.String("remote_path", session.RemotePath),
		zap.String("bucket", locator.Bucket),
	)

	return locator, nil
}
