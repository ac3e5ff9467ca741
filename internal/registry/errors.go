package registry

import (
	"errors"
	"fmt"
)

// DirectoryError represents a failure in a graph-directory operation.
type DirectoryError struct {
	// Code identifies the error category.
	Code DirectoryErrorCode

	// Message is a human-readable description.
	Message string

	// GraphIRI identifies the affected graph.
	GraphIRI string

	// URL is the storage URL involved, if any.
	URL string

	// Err is the underlying cause.
	Err error
}

// DirectoryErrorCode categorizes directory errors.
type DirectoryErrorCode string

const (
	// ErrCodeInconsistentDirectory indicates the system store records a
	// graph whose backing store cannot be connected to. Fatal; points at
	// external data corruption or manual store deletion.
	ErrCodeInconsistentDirectory DirectoryErrorCode = "INCONSISTENT_DIRECTORY"

	// ErrCodeNoDefaultGraph indicates no default graph has been recorded
	// and no fallback was supplied.
	ErrCodeNoDefaultGraph DirectoryErrorCode = "NO_DEFAULT_GRAPH"
)

// Error implements the error interface.
func (e *DirectoryError) Error() string {
	if e.GraphIRI != "" && e.URL != "" {
		return fmt.Sprintf("%s: %s (graph=%s, url=%s)", e.Code, e.Message, e.GraphIRI, e.URL)
	}
	if e.GraphIRI != "" {
		return fmt.Sprintf("%s: %s (graph=%s)", e.Code, e.Message, e.GraphIRI)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// IsInconsistentDirectory reports whether err is an inconsistent-directory
// failure. Uses errors.As to handle wrapped errors.
func IsInconsistentDirectory(err error) bool {
	var de *DirectoryError
	if errors.As(err, &de) {
		return de.Code == ErrCodeInconsistentDirectory
	}
	return false
}

// NewInconsistentDirectoryError creates a DirectoryError for a recorded
// graph whose store cannot be reached.
func NewInconsistentDirectoryError(graphIRI, url string, err error) *DirectoryError {
	return &DirectoryError{
		Code:     ErrCodeInconsistentDirectory,
		Message:  "directory records a store that cannot be connected to",
		GraphIRI: graphIRI,
		URL:      url,
		Err:      err,
	}
}
