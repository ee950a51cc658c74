package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepo is the CacheStore backed by the isbn_cache table.
type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetByISBN13(ctx context.Context, isbn13 string) (Metadata, bool, error) {
	const query = `
		SELECT isbn13, isbn10, source, title, authors, publisher, published_year,
		       language, page_count, description, cover_url, updated_at
		FROM isbn_cache
		WHERE isbn13 = $1`

	var (
		m      Metadata
		source string
		year   *int
	)
	err := r.db.QueryRow(ctx, query, isbn13).Scan(
		&m.ISBN13, &m.ISBN10, &source, &m.Title, &m.Authors, &m.Publisher, &year,
		&m.Language, &m.PageCount, &m.Description, &m.CoverURL, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Metadata{}, false, nil
		}
		return Metadata{}, false, fmt.Errorf("get cached isbn %s: %w", isbn13, err)
	}
	m.Source = SourceName(source)
	if year != nil {
		m.PublishedYear = *year
	}
	return m, true, nil
}

// Upsert overwrites the row for m.ISBN13. Concurrent lookups of the same
// ISBN settle on whichever write lands last.
func (r *PostgresRepo) Upsert(ctx context.Context, m Metadata) error {
	const query = `
		INSERT INTO isbn_cache (isbn13, isbn10, source, title, authors, publisher, published_year,
		                        language, page_count, description, cover_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (isbn13) DO UPDATE SET
			isbn10 = EXCLUDED.isbn10,
			source = EXCLUDED.source,
			title = EXCLUDED.title,
			authors = EXCLUDED.authors,
			publisher = EXCLUDED.publisher,
			published_year = EXCLUDED.published_year,
			language = EXCLUDED.language,
			page_count = EXCLUDED.page_count,
			description = EXCLUDED.description,
			cover_url = EXCLUDED.cover_url,
			updated_at = now()`

	var year *int
	if m.PublishedYear > 0 {
		year = &m.PublishedYear
	}
	_, err := r.db.Exec(ctx, query,
		m.ISBN13, m.ISBN10, string(m.Source), m.Title, m.Authors, m.Publisher, year,
		m.Language, m.PageCount, m.Description, m.CoverURL,
	)
	if err != nil {
		return fmt.Errorf("upsert cached isbn %s: %w", m.ISBN13, err)
	}
	return nil
}
