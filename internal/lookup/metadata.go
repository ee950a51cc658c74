package lookup

import (
	"encoding/json"
	"time"
)

// SourceName identifies the catalog a candidate came from.
type SourceName string

const (
	SourceGoogleBooks       SourceName = "google_books"
	SourceOpenLibrary       SourceName = "open_library"
	SourceOpenLibraryBatch  SourceName = "open_library_batch"
	SourceOpenLibrarySearch SourceName = "open_library_search"
	SourceRetailer          SourceName = "retailer"
)

// KeyForm selects which identifier an attempt passes to its source.
type KeyForm string

const (
	KeyISBN13 KeyForm = "isbn13"
	KeyISBN10 KeyForm = "isbn10"
)

// Candidate is one source's view of a book. Sources build a fresh value per
// call; the pipeline never mutates candidates after collecting them.
type Candidate struct {
	Source        SourceName `json:"source"`
	ISBN13        string     `json:"isbn13"`
	ISBN10        string     `json:"isbn10"`
	Title         string     `json:"title"`
	Authors       string     `json:"authors"`
	Publisher     string     `json:"publisher"`
	PublishedYear int        `json:"published_year"`
	Language      string     `json:"language"`
	PageCount     *int       `json:"page_count"`
	Description   string     `json:"description"`
	CoverURL      string     `json:"cover_url"`
}

// Metadata is the resolved record for a canonical ISBN-13: the winning
// candidate with its isbn13 guaranteed and its cover possibly re-hosted.
// It marshals to a flat JSON object with the same keys every time; unknown
// optional values are null.
type Metadata struct {
	Candidate
	UpdatedAt time.Time `json:"-"`
}

type wireMetadata struct {
	Source        SourceName `json:"source"`
	ISBN13        string     `json:"isbn13"`
	ISBN10        *string    `json:"isbn10"`
	Title         string     `json:"title"`
	Authors       string     `json:"authors"`
	Publisher     string     `json:"publisher"`
	PublishedYear *int       `json:"published_year"`
	Language      *string    `json:"language"`
	PageCount     *int       `json:"page_count"`
	Description   string     `json:"description"`
	CoverURL      *string    `json:"cover_url"`
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	w := wireMetadata{
		Source:      m.Source,
		ISBN13:      m.ISBN13,
		ISBN10:      nullString(m.ISBN10),
		Title:       m.Title,
		Authors:     m.Authors,
		Publisher:   m.Publisher,
		Language:    nullString(m.Language),
		PageCount:   m.PageCount,
		Description: m.Description,
		CoverURL:    nullString(m.CoverURL),
	}
	if m.PublishedYear > 0 {
		y := m.PublishedYear
		w.PublishedYear = &y
	}
	return json.Marshal(w)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
