package app

import (
	"fmt"

	"bookshelf/internal/config"
	"bookshelf/internal/lookup"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/platform/retailer"
)

// Clients are the catalog clients lookup sources are built from. Retailer
// is nil when scraping is disabled.
type Clients struct {
	OpenLibrary lookup.OpenLibraryClient
	GoogleBooks lookup.GoogleBooksClient
	Retailer    lookup.RetailerScraper
}

func NewClients(cfg *config.Config) (Clients, error) {
	c := Clients{
		OpenLibrary: openlibrary.NewClient(cfg.UserAgent, cfg.OpenLibraryRPS, cfg.OpenLibraryMaxRetries),
		GoogleBooks: googlebooks.NewClient(cfg.GoogleBooksAPIKey, cfg.GoogleBooksRPS),
	}
	if cfg.RetailerEnabled {
		s, err := retailer.New(retailer.Config{
			URLTemplate: cfg.RetailerURLTemplate,
			UserAgent:   cfg.UserAgent,
			Timeout:     cfg.SourceTimeout,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("retailer scraper: %w", err)
		}
		c.Retailer = s
	}
	return c, nil
}

// BuildAttempts turns the configured sequence into lookup attempts, in
// order. Disabled entries and sources without a client are skipped.
func BuildAttempts(cfgs []config.AttemptConfig, c Clients) ([]lookup.Attempt, error) {
	sources := make(map[lookup.SourceName]lookup.Source)
	if c.OpenLibrary != nil {
		sources[lookup.SourceOpenLibrary] = lookup.NewOpenLibrarySource(c.OpenLibrary)
		sources[lookup.SourceOpenLibraryBatch] = lookup.NewOpenLibraryBatchSource(c.OpenLibrary)
		sources[lookup.SourceOpenLibrarySearch] = lookup.NewOpenLibrarySearchSource(c.OpenLibrary)
	}
	if c.GoogleBooks != nil {
		sources[lookup.SourceGoogleBooks] = lookup.NewGoogleBooksSource(c.GoogleBooks)
	}
	if c.Retailer != nil {
		sources[lookup.SourceRetailer] = lookup.NewRetailerSource(c.Retailer)
	}

	attempts := make([]lookup.Attempt, 0, len(cfgs))
	for _, ac := range cfgs {
		if !ac.IsEnabled() {
			continue
		}
		switch ac.Form {
		case lookup.KeyISBN13, lookup.KeyISBN10:
		default:
			return nil, fmt.Errorf("attempt %s: unknown key form %q", ac.Source, ac.Form)
		}
		src, ok := sources[ac.Source]
		if !ok {
			if ac.Source == lookup.SourceRetailer {
				continue
			}
			return nil, fmt.Errorf("attempt %s: no client configured", ac.Source)
		}
		attempts = append(attempts, lookup.Attempt{Source: src, Form: ac.Form})
	}
	return attempts, nil
}
