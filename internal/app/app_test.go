package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/config"
	"bookshelf/internal/library"
	"bookshelf/internal/lookup"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/testutil"
)

type stubGoogle struct {
	calls int
}

func (s *stubGoogle) SearchByISBN(_ context.Context, isbn string) (*googlebooks.VolumesResponse, error) {
	s.calls++
	if isbn != "9785170906307" {
		return &googlebooks.VolumesResponse{}, nil
	}
	info := googlebooks.VolumeInfo{
		Title:         "Пикник на обочине",
		Authors:       []string{"Аркадий Стругацкий", "Борис Стругацкий"},
		PublishedDate: "2015",
		Language:      "ru",
		IndustryIdentifiers: []googlebooks.IndustryIdentifier{
			{Type: "ISBN_13", Identifier: "9785170906307"},
		},
	}
	return &googlebooks.VolumesResponse{TotalItems: 1, Items: []googlebooks.Volume{{ID: "x", VolumeInfo: info}}}, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Attempts = []config.AttemptConfig{{Source: lookup.SourceGoogleBooks, Form: lookup.KeyISBN13}}
	cfg.MirrorCovers = false
	cfg.LookupLRUSize = 16
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000
	return cfg
}

func TestBuildAttempts(t *testing.T) {
	clients := Clients{
		OpenLibrary: openlibrary.NewClient("test", 1, 0),
		GoogleBooks: &stubGoogle{},
	}

	attempts, err := BuildAttempts(config.DefaultAttempts(), clients)
	require.NoError(t, err)
	// retailer has no client and is left out
	require.Len(t, attempts, 7)
	assert.Equal(t, lookup.SourceGoogleBooks, attempts[0].Source.Name())
	assert.Equal(t, lookup.KeyISBN13, attempts[0].Form)
	assert.Equal(t, lookup.SourceOpenLibrarySearch, attempts[6].Source.Name())
	assert.Equal(t, lookup.KeyISBN10, attempts[6].Form)
	assert.Same(t, attempts[1].Source, attempts[4].Source)

	off := false
	attempts, err = BuildAttempts([]config.AttemptConfig{
		{Source: lookup.SourceOpenLibrary, Form: lookup.KeyISBN13, Enabled: &off},
		{Source: lookup.SourceOpenLibrary, Form: lookup.KeyISBN10},
	}, clients)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, lookup.KeyISBN10, attempts[0].Form)

	_, err = BuildAttempts(config.DefaultAttempts(), Clients{OpenLibrary: clients.OpenLibrary})
	assert.ErrorContains(t, err, "google_books")
}

func TestAssembleNeedsAttempts(t *testing.T) {
	cfg := testConfig()
	cfg.Attempts = []config.AttemptConfig{{Source: lookup.SourceRetailer, Form: lookup.KeyISBN13}}
	_, err := Assemble(cfg, logger.Nop(), Deps{Cache: testutil.NewMemoryCache()})
	assert.Error(t, err)
}

func newTestApp(t *testing.T) (*App, *library.MockRepository, *stubGoogle, *testutil.MemoryBlobs) {
	t.Helper()
	ctrl := gomock.NewController(t)
	books := library.NewMockRepository(ctrl)
	google := &stubGoogle{}
	blobs := testutil.NewMemoryBlobs()

	a, err := Assemble(testConfig(), logger.Nop(), Deps{
		Cache:   testutil.NewMemoryCache(),
		Books:   books,
		Catalog: library.NewMockCatalogRepository(ctrl),
		Blobs:   blobs,
		Clients: Clients{GoogleBooks: google},
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, books, google, blobs
}

func TestRouter(t *testing.T) {
	a, books, google, blobs := newTestApp(t)
	h := a.Handler()

	serve := func(r *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	t.Run("health", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
		assert.Equal(t, http.StatusOK, serve(httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)
		assert.Equal(t, http.StatusMethodNotAllowed, serve(httptest.NewRequest(http.MethodPost, "/healthz", nil)).Code)
	})

	t.Run("lookup", func(t *testing.T) {
		w := serve(httptest.NewRequest(http.MethodGet, "/v1/lookup?isbn=978-5-17-090630-7", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"source":"google_books"`)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

		w = serve(httptest.NewRequest(http.MethodGet, "/v1/lookup?isbn=5170906307", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, google.calls)

		w = serve(httptest.NewRequest(http.MethodGet, "/v1/lookup?isbn=12345", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		w := serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "bookshelf_lookups_total")
	})

	t.Run("books need a user", func(t *testing.T) {
		resp := testutil.RecordHTTPResponse(serve(testutil.NewRequest(http.MethodGet, "/v1/books", nil)))
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "UNAUTHORIZED", resp.ErrorCode())

		books.EXPECT().ListByUser(gomock.Any(), "user-1").Return(nil, nil)
		resp = testutil.RecordHTTPResponse(serve(testutil.NewRequestAsUser(http.MethodGet, "/v1/books", nil, "user-1")))
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, []any{}, resp.Body["data"])
	})

	t.Run("export is archived", func(t *testing.T) {
		books.EXPECT().ListByUser(gomock.Any(), "user-1").Return([]library.UserBook{{Title: "Solaris", Author: "Stanislaw Lem"}}, nil)

		w := serve(testutil.NewRequestAsUser(http.MethodGet, "/v1/books/export?format=json", nil, "user-1"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"title": "Solaris"`)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "books-user-1-")

		var archived int
		for key := range blobs.Objects {
			if strings.HasPrefix(key, "exports/user-1/books-user-1-") {
				archived++
			}
		}
		assert.Equal(t, 1, archived)
	})

	t.Run("uploads need a user", func(t *testing.T) {
		w := serve(httptest.NewRequest(http.MethodPost, "/v1/uploads/cover", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("delete upload", func(t *testing.T) {
		blobs.Put("covers", "a.jpg", testutil.Object{})
		body := map[string]string{"bucket": "covers", "file_name": "a.jpg"}

		w := serve(testutil.NewRequestAsUser(http.MethodDelete, "/v1/uploads", body, "user-1"))
		assert.Equal(t, http.StatusNoContent, w.Code)
		_, ok := blobs.Get("covers", "a.jpg")
		assert.False(t, ok)
	})
}
