package library

import (
	"context"

	"bookshelf/internal/lookup"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=library

// Repository stores user books. Every method is scoped to userID; rows of
// other users behave as if they did not exist.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]UserBook, error)
	Create(ctx context.Context, b *UserBook) error
	Update(ctx context.Context, userID, id string, p Patch) (UserBook, error)
	Delete(ctx context.Context, userID, id string) error
	SaveComment(ctx context.Context, userID, id, comment string) error
}

// CatalogRepository stores the shared suggestions catalog.
type CatalogRepository interface {
	SearchTitles(ctx context.Context, q string, limit int) ([]CatalogEntry, error)
	// InsertIfAbsent inserts e unless an entry with the same normalized
	// title and author exists, and reports whether it inserted.
	InsertIfAbsent(ctx context.Context, e CatalogEntry, normTitle, normAuthor string) (bool, error)
}

// MetadataResolver fills in a new book from its ISBN.
type MetadataResolver interface {
	Lookup(ctx context.Context, raw string) (lookup.Metadata, error)
}
