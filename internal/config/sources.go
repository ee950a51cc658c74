package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bookshelf/internal/lookup"
)

// AttemptConfig is one entry of the lookup fallback sequence.
type AttemptConfig struct {
	Source  lookup.SourceName `yaml:"source"`
	Form    lookup.KeyForm    `yaml:"form"`
	Enabled *bool             `yaml:"enabled,omitempty"`
}

// IsEnabled treats a missing enabled flag as true.
func (a AttemptConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

func (a AttemptConfig) validate() error {
	switch a.Source {
	case lookup.SourceGoogleBooks, lookup.SourceOpenLibrary, lookup.SourceOpenLibraryBatch,
		lookup.SourceOpenLibrarySearch, lookup.SourceRetailer:
	default:
		return fmt.Errorf("unknown source %q", a.Source)
	}
	switch a.Form {
	case lookup.KeyISBN13, lookup.KeyISBN10:
	default:
		return fmt.Errorf("unknown key form %q for source %s", a.Form, a.Source)
	}
	return nil
}

type sourcesFile struct {
	Attempts []AttemptConfig `yaml:"attempts"`
}

// DefaultAttempts is the built-in fallback order: the primary catalog, the
// three Open Library views by ISBN-13 and again by ISBN-10, then the
// retailer page.
func DefaultAttempts() []AttemptConfig {
	return []AttemptConfig{
		{Source: lookup.SourceGoogleBooks, Form: lookup.KeyISBN13},
		{Source: lookup.SourceOpenLibrary, Form: lookup.KeyISBN13},
		{Source: lookup.SourceOpenLibraryBatch, Form: lookup.KeyISBN13},
		{Source: lookup.SourceOpenLibrarySearch, Form: lookup.KeyISBN13},
		{Source: lookup.SourceOpenLibrary, Form: lookup.KeyISBN10},
		{Source: lookup.SourceOpenLibraryBatch, Form: lookup.KeyISBN10},
		{Source: lookup.SourceOpenLibrarySearch, Form: lookup.KeyISBN10},
		{Source: lookup.SourceRetailer, Form: lookup.KeyISBN13},
	}
}

// LoadAttempts reads the attempt order from a YAML file such as:
//
//	attempts:
//	  - source: google_books
//	    form: isbn13
//	  - source: retailer
//	    form: isbn13
//	    enabled: false
func LoadAttempts(path string) ([]AttemptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseAttempts(data)
}

func ParseAttempts(data []byte) ([]AttemptConfig, error) {
	var f sourcesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	for i, a := range f.Attempts {
		if err := a.validate(); err != nil {
			return nil, fmt.Errorf("sources file attempt %d: %w", i, err)
		}
	}
	return f.Attempts, nil
}
