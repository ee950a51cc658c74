package library

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"bookshelf/internal/isbn"
	"bookshelf/internal/lookup"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/storage"
)

const (
	catalogSearchLimit = 5
	minCatalogQuery    = 2
)

// Service holds the shelf and catalog rules on top of the repositories.
type Service struct {
	repo     Repository
	catalog  CatalogRepository
	resolver MetadataResolver
	blobs    storage.BlobStore
	log      *logger.Logger
	now      func() time.Time
}

// NewService wires the shelf. resolver and blobs may be nil: books are then
// added without lookup and exports are not archived.
func NewService(repo Repository, catalog CatalogRepository, resolver MetadataResolver, blobs storage.BlobStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		resolver: resolver,
		blobs:    blobs,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID string) ([]UserBook, error) {
	books, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []UserBook{}
	}
	return books, nil
}

// Add puts a book on the user's shelf. A valid ISBN is stored in its
// ISBN-13 form and, when a resolver is set, fills title, author and cover
// the client left empty.
func (s *Service) Add(ctx context.Context, userID string, in NewBook) (UserBook, error) {
	b := UserBook{
		UserID:     userID,
		Title:      strings.TrimSpace(in.Title),
		Author:     strings.TrimSpace(in.Author),
		Status:     in.Status,
		Rating:     in.Rating,
		StartedAt:  emptyToNil(in.StartedAt),
		FinishedAt: emptyToNil(in.FinishedAt),
		Comment:    strings.TrimSpace(in.Comment),
		Category:   strings.TrimSpace(in.Category),
		Tags:       cleanTags(in.Tags),
		CoverURL:   strings.TrimSpace(in.CoverURL),
	}
	if b.Status == "" {
		b.Status = StatusWant
	}

	if raw := strings.TrimSpace(in.ISBN); raw != "" {
		isbn13, err := isbn.Normalize(raw)
		if err != nil {
			return UserBook{}, &ValidationError{Field: "isbn", Message: "is not a valid ISBN-10 or ISBN-13"}
		}
		b.ISBN13 = isbn13
		s.fillFromLookup(ctx, &b)
	}

	if err := checkStruct(b); err != nil {
		return UserBook{}, err
	}

	if err := s.repo.Create(ctx, &b); err != nil {
		return UserBook{}, err
	}
	return b, nil
}

func (s *Service) fillFromLookup(ctx context.Context, b *UserBook) {
	if s.resolver == nil || (b.Title != "" && b.Author != "" && b.CoverURL != "") {
		return
	}
	m, err := s.resolver.Lookup(ctx, b.ISBN13)
	if err != nil {
		if !errors.Is(err, lookup.ErrMetadataNotFound) {
			s.log.Warn("isbn lookup for new book failed", "isbn13", b.ISBN13, "error", err)
		}
		return
	}
	if b.Title == "" {
		b.Title = m.Title
	}
	if b.Author == "" {
		b.Author = m.Authors
	}
	if b.CoverURL == "" {
		b.CoverURL = m.CoverURL
	}
}

// Update applies the updatable fields of raw to the user's book.
func (s *Service) Update(ctx context.Context, userID, id string, raw map[string]json.RawMessage) (UserBook, error) {
	if !validID(id) {
		return UserBook{}, ErrNotFound
	}
	p, err := ParsePatch(raw)
	if err != nil {
		return UserBook{}, err
	}
	return s.repo.Update(ctx, userID, id, p)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) SaveComment(ctx context.Context, userID, id, comment string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return s.repo.SaveComment(ctx, userID, id, strings.TrimSpace(comment))
}

// SearchCatalog returns up to five catalog titles containing q.
func (s *Service) SearchCatalog(ctx context.Context, q string) ([]CatalogEntry, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minCatalogQuery {
		return nil, &ValidationError{Field: "q", Message: "must be at least 2 characters"}
	}
	entries, err := s.catalog.SearchTitles(ctx, q, catalogSearchLimit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []CatalogEntry{}
	}
	return entries, nil
}

// AddToCatalog inserts e unless the catalog already holds the same title by
// the same author, and reports whether it inserted.
func (s *Service) AddToCatalog(ctx context.Context, e CatalogEntry) (bool, error) {
	e.Title = strings.TrimSpace(e.Title)
	e.Author = strings.TrimSpace(e.Author)
	e.CoverURL = strings.TrimSpace(e.CoverURL)
	if err := checkStruct(e); err != nil {
		return false, err
	}
	return s.catalog.InsertIfAbsent(ctx, e, NormalizeTitle(e.Title), NormalizeAuthor(e.Author))
}

// Export renders the user's shelf and archives a copy in the exports bucket.
func (s *Service) Export(ctx context.Context, userID, format, fields string) (*ExportFile, error) {
	f, err := ParseExportFormat(format)
	if err != nil {
		return nil, err
	}
	cols, err := ParseExportFields(fields)
	if err != nil {
		return nil, err
	}
	books, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch f {
	case FormatJSON:
		if data, err = EncodeJSON(books, cols); err != nil {
			return nil, err
		}
	default:
		data = EncodeCSV(books, cols)
	}

	file := &ExportFile{
		Filename:    ExportFilename(userID, s.now(), f),
		ContentType: f.ContentType(),
		Data:        data,
	}
	s.archive(ctx, userID, file)
	return file, nil
}

func (s *Service) archive(ctx context.Context, userID string, file *ExportFile) {
	if s.blobs == nil {
		return
	}
	key := path.Join(storage.UserFolder(userID), file.Filename)
	if _, err := s.blobs.Upload(ctx, storage.BucketExports, key, file.Data, file.ContentType); err != nil {
		s.log.Warn("archive export failed", "key", key, "error", err)
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
