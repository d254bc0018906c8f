package upload

import "fmt"

// SessionState tracks one resumable upload attempt. Transitions are strictly
// Started -> Transferring -> Finalized or Failed; a session is never reused.
type SessionState int

const (
	StateStarted SessionState = iota
	StateTransferring
	StateFinalized
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateTransferring:
		return "transferring"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Session is one negotiated upload session. It lives for a single
// submission attempt and is discarded afterwards regardless of outcome.
type Session struct {
	RemotePath  string
	ContentType string
	SizeBytes   int64

	sessionURL string
	state      SessionState
}

func (s *Session) State() SessionState {
	return s.state
}

// CanonicalLocator is the blob store's authoritative identification of an
// uploaded object.
type CanonicalLocator struct {
	Bucket        string
	Name          string
	DownloadToken string
}

// ProtocolError reports a malformed session-start handshake: a non-2xx
// status or a 2xx response missing the session URL header.
type ProtocolError struct {
	Status int
	Body   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("upload session start failed [%d]: %s", e.Status, e.Body)
}

// TransferError reports a non-200 finalize response. The whole payload is
// sent in one call, so there is no partial retry: the caller must discard
// the session and begin a fresh one under a new remote path.
type TransferError struct {
	Status int
	Body   string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload transfer failed [%d]: %s", e.Status, e.Body)
}
