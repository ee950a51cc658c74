package lookup

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidISBN means the input is neither a valid ISBN-10 nor ISBN-13.
	ErrInvalidISBN = errors.New("invalid isbn")
	// ErrMetadataNotFound means the cache missed and no source had a record.
	ErrMetadataNotFound = errors.New("metadata not found")
)

// SourceError is a single source's failure. The pipeline logs it and moves on.
type SourceError struct {
	Source SourceName
	Form   KeyForm
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s (%s): %v", e.Source, e.Form, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Timeout reports whether the source ran out of its time budget.
func (e *SourceError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// MirrorError is a failed cover re-hosting. The original cover URL is kept.
type MirrorError struct {
	URL string
	Err error
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("mirror cover %s: %v", e.URL, e.Err)
}

func (e *MirrorError) Unwrap() error { return e.Err }
