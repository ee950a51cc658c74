package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/isbn"
	"bookshelf/internal/library"
	"bookshelf/internal/lookup"
)

type fakeResolver struct {
	known map[string]lookup.Metadata
	err   error
	calls []string
}

func (f *fakeResolver) Lookup(_ context.Context, raw string) (lookup.Metadata, error) {
	f.calls = append(f.calls, raw)
	if f.err != nil {
		return lookup.Metadata{}, f.err
	}
	isbn13, err := isbn.Normalize(raw)
	if err != nil {
		return lookup.Metadata{}, lookup.ErrInvalidISBN
	}
	m, ok := f.known[isbn13]
	if !ok {
		return lookup.Metadata{}, lookup.ErrMetadataNotFound
	}
	return m, nil
}

func picnic() lookup.Metadata {
	return lookup.Metadata{Candidate: lookup.Candidate{
		Source:   lookup.SourceOpenLibrary,
		ISBN13:   "9785170906307",
		Title:    "Пикник на обочине",
		Authors:  "Аркадий Стругацкий, Борис Стругацкий",
		Language: "ru",
	}}
}

func TestPrintLookup(t *testing.T) {
	r := &fakeResolver{known: map[string]lookup.Metadata{"9785170906307": picnic()}}
	var out bytes.Buffer

	require.NoError(t, printLookup(context.Background(), r, "5-17-090630-7", &out))
	assert.Contains(t, out.String(), `"title": "Пикник на обочине"`)
	assert.Contains(t, out.String(), `"source": "open_library"`)

	err := printLookup(context.Background(), r, "9780000000002", &out)
	assert.ErrorIs(t, err, lookup.ErrMetadataNotFound)
}

func TestPrintNormalized(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printNormalized("5-17-090630-7", &out))
	assert.Equal(t, "isbn13: 9785170906307\nisbn10: 5170906307\n", out.String())

	out.Reset()
	require.NoError(t, printNormalized("979-10-90636-07-1", &out))
	assert.Equal(t, "isbn13: 9791090636071\n", out.String())

	assert.ErrorIs(t, printNormalized("12345", &out), isbn.ErrInvalid)
}

func TestWarm(t *testing.T) {
	r := &fakeResolver{known: map[string]lookup.Metadata{"9785170906307": picnic()}}
	in := strings.NewReader(`
# favourites
978-5-17-090630-7

9780000000002
not-an-isbn
`)
	var out bytes.Buffer

	report, err := warm(context.Background(), r, in, &out)
	require.NoError(t, err)
	assert.Equal(t, WarmReport{Found: 1, NotFound: 1, Invalid: 1}, report)
	assert.Equal(t, []string{"978-5-17-090630-7", "9780000000002", "not-an-isbn"}, r.calls)
	assert.Contains(t, out.String(), "9785170906307\topen_library\tПикник на обочине")
}

func TestWarmStopsOnUnexpectedError(t *testing.T) {
	r := &fakeResolver{err: errors.New("boom")}
	report, err := warm(context.Background(), r, strings.NewReader("9785170906307\n9780000000002\n"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, WarmReport{}, report)
	assert.Len(t, r.calls, 1)
}

func TestWarmHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeResolver{}
	_, err := warm(ctx, r, strings.NewReader("9785170906307\n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.calls)
}

type fakeCatalog struct {
	seen map[string]bool
}

func (f *fakeCatalog) AddToCatalog(_ context.Context, e library.CatalogEntry) (bool, error) {
	if e.Author == "" {
		return false, &library.ValidationError{Field: "author", Message: "is required"}
	}
	key := library.NormalizeTitle(e.Title) + "|" + library.NormalizeAuthor(e.Author)
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func TestSeedCatalog(t *testing.T) {
	entries, err := parseCatalog([]byte(`
books:
  - title: Solaris
    author: Stanislaw Lem
    cover_url: https://example.com/solaris.jpg
  - title: "  solaris"
    author: Lem Stanislaw
  - title: Untitled
`))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "https://example.com/solaris.jpg", entries[0].CoverURL)

	var out bytes.Buffer
	require.NoError(t, seedCatalog(context.Background(), &fakeCatalog{seen: map[string]bool{}}, entries, &out))
	assert.Contains(t, out.String(), "inserted: 1, duplicates: 1, rejected: 1")
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "lookup", "normalize", "warm", "seed-catalog", "migrate"}, names)
}

func TestNormalizeCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"normalize", "978-5-17-090630-7"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "isbn13: 9785170906307")
}
