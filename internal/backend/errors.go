package backend

import (
	"errors"
	"fmt"
)

// ErrStaleBasis indicates a conditional commit whose basis precondition
// failed: the transaction log advanced past the supplied basis between
// snapshot and commit. The whole commit was aborted; callers re-read and
// retry. Never surfaced outside the optimistic-retry loops.
var ErrStaleBasis = errors.New("transaction log advanced past basis")

// ErrNotFound indicates a missing entity or attribute.
var ErrNotFound = errors.New("not found")

// BackendError wraps a connectivity or driver failure. Connectivity
// failures propagate unchanged; this layer performs no retry or backoff
// of its own.
type BackendError struct {
	URL string
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
