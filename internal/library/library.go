// Package library is a user's personal shelf: the books they track, their
// reading status and notes, plus the shared catalog of titles used for
// suggestions and the shelf export.
package library

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a book does not exist or belongs to someone else.
	ErrNotFound = errors.New("book not found")
	// ErrNothingToUpdate is returned when a patch has no updatable field.
	ErrNothingToUpdate = errors.New("nothing to update")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Status is where a user is with a book.
type Status string

const (
	StatusWant    Status = "want"
	StatusReading Status = "reading"
	StatusRead    Status = "read"
	StatusDropped Status = "dropped"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWant, StatusReading, StatusRead, StatusDropped:
		return true
	}
	return false
}

const (
	MaxRating  = 5
	dateLayout = "2006-01-02"
)

// UserBook is one book on a user's shelf. Dates are YYYY-MM-DD.
type UserBook struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ISBN13     string    `json:"isbn13"`
	Title      string    `json:"title" validate:"required"`
	Author     string    `json:"author"`
	Status     Status    `json:"status" validate:"shelfstatus"`
	Rating     int       `json:"rating" validate:"gte=0,lte=5"`
	StartedAt  *string   `json:"started_at" validate:"omitempty,isodate"`
	FinishedAt *string   `json:"finished_at" validate:"omitempty,isodate"`
	AddedAt    time.Time `json:"added_at"`
	Comment    string    `json:"comment"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags"`
	CoverURL   string    `json:"cover_url"`
}

// NewBook is the body of POST /v1/books. Only Title is required, unless
// ISBN is given and a lookup can fill it in.
type NewBook struct {
	ISBN       string   `json:"isbn"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Status     Status   `json:"status"`
	Rating     int      `json:"rating"`
	StartedAt  *string  `json:"started_at"`
	FinishedAt *string  `json:"finished_at"`
	Comment    string   `json:"comment"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	CoverURL   string   `json:"cover_url"`
}

// CatalogEntry is a title in the shared suggestions catalog.
type CatalogEntry struct {
	Title    string `json:"title" yaml:"title" validate:"required"`
	Author   string `json:"author" yaml:"author" validate:"required"`
	CoverURL string `json:"cover_url" yaml:"cover_url"`
}

func validateRating(r int) error {
	return checkVar("rating", r, ratingRule)
}

func validateDate(field string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	return checkVar(field, *v, "isodate")
}

// cleanTags trims, drops empties and de-duplicates while keeping order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// NormalizeTitle trims, collapses inner whitespace and lowercases.
func NormalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeAuthor is NormalizeTitle with the words sorted, so "Lem Stanislaw"
// and "Stanislaw Lem" compare equal.
func NormalizeAuthor(s string) string {
	words := strings.Fields(strings.ToLower(s))
	sort.Strings(words)
	return strings.Join(words, " ")
}
