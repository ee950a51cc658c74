package lookup

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=lookup

// CacheStore holds at most one resolved record per canonical ISBN-13.
type CacheStore interface {
	GetByISBN13(ctx context.Context, isbn13 string) (Metadata, bool, error)
	// Upsert overwrites any existing row for m.ISBN13.
	Upsert(ctx context.Context, m Metadata) error
}

// Source fetches one catalog's record for an ISBN. It returns nil, nil when
// the catalog has no record and an error for transport or decoding failures.
type Source interface {
	Name() SourceName
	FetchByISBN(ctx context.Context, isbn string) (*Candidate, error)
}

// CoverMirror re-hosts cover images on storage we own.
type CoverMirror interface {
	Owns(url string) bool
	Mirror(ctx context.Context, isbn13, coverURL string) (string, error)
}

// Attempt is one step of the fallback sequence.
type Attempt struct {
	Source Source
	Form   KeyForm
}
