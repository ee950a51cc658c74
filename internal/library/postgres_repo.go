package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userBookColumns = `
	id::text, user_id, isbn13, title, author, status, rating,
	to_char(started_at, 'YYYY-MM-DD'), to_char(finished_at, 'YYYY-MM-DD'),
	added_at, comment, category, tags, cover_url`

// PostgresRepo implements Repository and CatalogRepository.
type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanUserBook(row pgx.Row) (UserBook, error) {
	var (
		b      UserBook
		status string
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.ISBN13, &b.Title, &b.Author, &status, &b.Rating,
		&b.StartedAt, &b.FinishedAt, &b.AddedAt, &b.Comment, &b.Category, &b.Tags, &b.CoverURL,
	)
	b.Status = Status(status)
	return b, err
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]UserBook, error) {
	query := `SELECT ` + userBookColumns + `
		FROM user_books
		WHERE user_id = $1
		ORDER BY added_at DESC, id`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []UserBook
	for rows.Next() {
		b, err := scanUserBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, b *UserBook) error {
	const query = `
		INSERT INTO user_books (user_id, isbn13, title, author, status, rating,
		                        started_at, finished_at, comment, category, tags, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::date, $9, $10, $11, $12)
		RETURNING id::text, added_at`

	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx, query,
		b.UserID, b.ISBN13, b.Title, b.Author, string(b.Status), b.Rating,
		b.StartedAt, b.FinishedAt, b.Comment, b.Category, tags, b.CoverURL,
	).Scan(&b.ID, &b.AddedAt)
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	b.Tags = tags
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, userID, id string, p Patch) (UserBook, error) {
	sets := make([]string, 0, len(p))
	args := []any{}
	argn := 1
	for _, col := range p.Columns() {
		cast := ""
		if col == "started_at" || col == "finished_at" {
			cast = "::date"
		}
		sets = append(sets, fmt.Sprintf("%s = $%d%s", col, argn, cast))
		args = append(args, p[col])
		argn++
	}
	if len(sets) == 0 {
		return UserBook{}, ErrNothingToUpdate
	}

	query := fmt.Sprintf(`
		UPDATE user_books SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s`,
		strings.Join(sets, ", "), argn, argn+1, userBookColumns)
	args = append(args, id, userID)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanUserBook(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserBook{}, ErrNotFound
		}
		return UserBook{}, fmt.Errorf("update book %s: %w", id, err)
	}
	return b, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, `DELETE FROM user_books WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) SaveComment(ctx context.Context, userID, id, comment string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, `UPDATE user_books SET comment = $1 WHERE id = $2 AND user_id = $3`, comment, id, userID)
	if err != nil {
		return fmt.Errorf("save comment %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) SearchTitles(ctx context.Context, q string, limit int) ([]CatalogEntry, error) {
	const query = `
		SELECT title, author, cover_url
		FROM books_library
		WHERE title ILIKE $1
		ORDER BY title
		LIMIT $2`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, query, "%"+escapeLike(q)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	defer rows.Close()

	var out []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.Title, &e.Author, &e.CoverURL); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) InsertIfAbsent(ctx context.Context, e CatalogEntry, normTitle, normAuthor string) (bool, error) {
	const query = `
		INSERT INTO books_library (title, author, cover_url, norm_title, norm_author)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (norm_title, norm_author) DO NOTHING`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, query, e.Title, e.Author, e.CoverURL, normTitle, normAuthor)
	if err != nil {
		return false, fmt.Errorf("insert catalog entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// escapeLike makes % and _ in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
