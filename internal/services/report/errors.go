package report

import (
	"fmt"
	"strings"

	"github.com/OzanD26/halk-habercisi/internal/services/upload"
)

// ValidationError lists every missing or invalid field at once so the
// caller can surface all problems in a single pass.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// PersistenceError means the transfer succeeded but the metadata write did
// not. The locator identifies the now-orphaned object so a caller could
// clean it up.
type PersistenceError struct {
	Locator upload.CanonicalLocator
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist report for %s/%s: %v", e.Locator.Bucket, e.Locator.Name, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
