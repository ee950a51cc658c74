package lookup

import (
	"context"
	"errors"
	"strings"

	"bookshelf/internal/isbn"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/platform/retailer"
)

// OpenLibraryClient is the part of the Open Library client the sources use.
type OpenLibraryClient interface {
	GetEditionByISBN(ctx context.Context, isbn string) (*openlibrary.Edition, error)
	GetBooksByISBN(ctx context.Context, isbns []string) (map[string]openlibrary.BookDetails, error)
	SearchByISBN(ctx context.Context, isbn string, limit int) (*openlibrary.SearchResponse, error)
	GetAuthor(ctx context.Context, authorKey string) (*openlibrary.AuthorDetails, error)
	CoverURL(coverID int) string
}

type GoogleBooksClient interface {
	SearchByISBN(ctx context.Context, isbn string) (*googlebooks.VolumesResponse, error)
}

type RetailerScraper interface {
	Scrape(ctx context.Context, isbn string) (*retailer.Product, error)
}

// maxEditionAuthors caps the author lookups the direct edition source makes.
const maxEditionAuthors = 3

// OpenLibrarySource reads /isbn/{isbn}.json and resolves author names.
type OpenLibrarySource struct {
	client OpenLibraryClient
}

func NewOpenLibrarySource(client OpenLibraryClient) *OpenLibrarySource {
	return &OpenLibrarySource{client: client}
}

func (s *OpenLibrarySource) Name() SourceName { return SourceOpenLibrary }

func (s *OpenLibrarySource) FetchByISBN(ctx context.Context, key string) (*Candidate, error) {
	ed, err := s.client.GetEditionByISBN(ctx, key)
	if errors.Is(err, openlibrary.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ed.Title) == "" {
		return nil, nil
	}

	var authors []string
	for i, ref := range ed.Authors {
		if i == maxEditionAuthors {
			break
		}
		a, err := s.client.GetAuthor(ctx, ref.Key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	c := &Candidate{
		Source:        SourceOpenLibrary,
		ISBN13:        firstISBN(ed.ISBN13),
		ISBN10:        firstISBN(ed.ISBN10),
		Title:         joinTitle(ed.Title, ed.Subtitle),
		Authors:       strings.Join(authors, ", "),
		Publisher:     first(ed.Publishers),
		PublishedYear: retailer.ParseYear(ed.PublishDate),
		PageCount:     pages(ed.NumberOfPages),
		Description:   openlibrary.FormatText(ed.Description),
	}
	if len(ed.Languages) > 0 {
		c.Language = languageCode(ed.Languages[0].Key)
	}
	if len(ed.Covers) > 0 {
		c.CoverURL = s.client.CoverURL(ed.Covers[0])
	}
	return c, nil
}

// OpenLibraryBatchSource reads api/books?bibkeys=ISBN:... which often knows
// editions the direct endpoint 404s on.
type OpenLibraryBatchSource struct {
	client OpenLibraryClient
}

func NewOpenLibraryBatchSource(client OpenLibraryClient) *OpenLibraryBatchSource {
	return &OpenLibraryBatchSource{client: client}
}

func (s *OpenLibraryBatchSource) Name() SourceName { return SourceOpenLibraryBatch }

func (s *OpenLibraryBatchSource) FetchByISBN(ctx context.Context, key string) (*Candidate, error) {
	res, err := s.client.GetBooksByISBN(ctx, []string{key})
	if errors.Is(err, openlibrary.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d, ok := res["ISBN:"+key]
	if !ok || strings.TrimSpace(d.Title) == "" {
		return nil, nil
	}

	authors := make([]string, 0, len(d.Authors))
	for _, a := range d.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}
	var publisher string
	if len(d.Publishers) > 0 {
		publisher = d.Publishers[0].Name
	}
	cover := d.Cover.Large
	if cover == "" {
		cover = d.Cover.Medium
	}

	return &Candidate{
		Source:        SourceOpenLibraryBatch,
		ISBN13:        firstISBN(d.Identifiers.ISBN13),
		ISBN10:        firstISBN(d.Identifiers.ISBN10),
		Title:         joinTitle(d.Title, d.Subtitle),
		Authors:       strings.Join(authors, ", "),
		Publisher:     publisher,
		PublishedYear: retailer.ParseYear(d.PublishDate),
		PageCount:     pages(d.NumberOfPages),
		Description:   d.Notes,
		CoverURL:      cover,
	}, nil
}

// OpenLibrarySearchSource reads search.json, the broadest and least precise
// Open Library view.
type OpenLibrarySearchSource struct {
	client OpenLibraryClient
}

func NewOpenLibrarySearchSource(client OpenLibraryClient) *OpenLibrarySearchSource {
	return &OpenLibrarySearchSource{client: client}
}

func (s *OpenLibrarySearchSource) Name() SourceName { return SourceOpenLibrarySearch }

func (s *OpenLibrarySearchSource) FetchByISBN(ctx context.Context, key string) (*Candidate, error) {
	res, err := s.client.SearchByISBN(ctx, key, 1)
	if errors.Is(err, openlibrary.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Docs) == 0 || strings.TrimSpace(res.Docs[0].Title) == "" {
		return nil, nil
	}
	doc := res.Docs[0]

	c := &Candidate{
		Source:        SourceOpenLibrarySearch,
		Title:         doc.Title,
		Authors:       strings.Join(doc.AuthorNames, ", "),
		Publisher:     first(doc.Publisher),
		PublishedYear: doc.FirstPublishYear,
		PageCount:     pages(doc.PagesMedian),
		CoverURL:      s.client.CoverURL(doc.CoverID),
	}
	if len(doc.Language) == 1 {
		c.Language = languageCode(doc.Language[0])
	}
	return c, nil
}

// GoogleBooksSource reads the first volume Google Books returns for the ISBN.
type GoogleBooksSource struct {
	client GoogleBooksClient
}

func NewGoogleBooksSource(client GoogleBooksClient) *GoogleBooksSource {
	return &GoogleBooksSource{client: client}
}

func (s *GoogleBooksSource) Name() SourceName { return SourceGoogleBooks }

func (s *GoogleBooksSource) FetchByISBN(ctx context.Context, key string) (*Candidate, error) {
	res, err := s.client.SearchByISBN(ctx, key)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Items) == 0 {
		return nil, nil
	}
	info := res.Items[0].VolumeInfo
	if strings.TrimSpace(info.Title) == "" {
		return nil, nil
	}

	return &Candidate{
		Source:        SourceGoogleBooks,
		ISBN13:        info.Identifier("ISBN_13"),
		ISBN10:        info.Identifier("ISBN_10"),
		Title:         joinTitle(info.Title, info.Subtitle),
		Authors:       strings.Join(info.Authors, ", "),
		Publisher:     info.Publisher,
		PublishedYear: retailer.ParseYear(info.PublishedDate),
		Language:      strings.ToLower(info.Language),
		PageCount:     pages(info.PageCount),
		Description:   info.Description,
		CoverURL:      info.CoverURL(),
	}, nil
}

// RetailerSource turns a scraped storefront page into a candidate.
type RetailerSource struct {
	scraper RetailerScraper
}

func NewRetailerSource(scraper RetailerScraper) *RetailerSource {
	return &RetailerSource{scraper: scraper}
}

func (s *RetailerSource) Name() SourceName { return SourceRetailer }

func (s *RetailerSource) FetchByISBN(ctx context.Context, key string) (*Candidate, error) {
	p, err := s.scraper.Scrape(ctx, key)
	if err != nil || p == nil {
		return nil, err
	}
	return &Candidate{
		Source:        SourceRetailer,
		Title:         p.Title,
		Authors:       strings.Join(p.Authors, ", "),
		Publisher:     p.Publisher,
		PublishedYear: p.Year,
		Language:      p.Language,
		PageCount:     pages(p.Pages),
		Description:   p.Description,
		CoverURL:      p.ImageURL,
	}, nil
}

// marcLanguages maps the MARC codes Open Library uses to ISO 639-1.
var marcLanguages = map[string]string{
	"eng": "en",
	"rus": "ru",
	"ukr": "uk",
	"bel": "be",
	"fre": "fr",
	"ger": "de",
	"spa": "es",
	"ita": "it",
	"por": "pt",
	"pol": "pl",
	"jpn": "ja",
	"chi": "zh",
}

// languageCode accepts "/languages/rus" or "rus".
func languageCode(key string) string {
	code := strings.TrimPrefix(key, "/languages/")
	if iso, ok := marcLanguages[code]; ok {
		return iso
	}
	return code
}

func joinTitle(title, subtitle string) string {
	title = strings.TrimSpace(title)
	subtitle = strings.TrimSpace(subtitle)
	if subtitle == "" {
		return title
	}
	return title + ": " + subtitle
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// firstISBN strips separators so a catalog's "978-5-17-..." compares equal
// to ours.
func firstISBN(values []string) string {
	for _, v := range values {
		if c := isbn.Clean(v); c != "" {
			return c
		}
	}
	return ""
}

func pages(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
