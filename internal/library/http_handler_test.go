package library

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/httpx"
)

func newTestHandler(t *testing.T) (*HTTPHandler, *fixture) {
	f := newFixture(t)
	return NewHTTPHandler(f.svc), f
}

func asUser(r *http.Request) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), testUser))
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) httpx.ErrorResponseBody {
	t.Helper()
	var resp httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHTTPHandler_List(t *testing.T) {
	handler, f := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		f.repo.EXPECT().ListByUser(gomock.Any(), testUser).Return([]UserBook{{ID: testID, Title: "Solaris"}}, nil)

		w := httptest.NewRecorder()
		handler.List(w, asUser(httptest.NewRequest(http.MethodGet, "/v1/books", nil)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"title":"Solaris"`)
		assert.Contains(t, w.Body.String(), `"total":1`)
	})

	t.Run("error", func(t *testing.T) {
		f.repo.EXPECT().ListByUser(gomock.Any(), testUser).Return(nil, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		handler.List(w, asUser(httptest.NewRequest(http.MethodGet, "/v1/books", nil)))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	handler, f := newTestHandler(t)

	t.Run("created", func(t *testing.T) {
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *UserBook) error {
			assert.Equal(t, testUser, b.UserID)
			b.ID = testID
			return nil
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(`{"title":"Solaris","rating":4}`))
		handler.Create(w, asUser(r))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), testID)
	})

	t.Run("validation", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(`{"title":"Solaris","rating":9}`))
		handler.Create(w, asUser(r))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeErrorBody(t, w)
		assert.Equal(t, "VALIDATION_ERROR", body.Code)
		require.Len(t, body.Details, 1)
		assert.Equal(t, "rating", body.Details[0].Field)
	})

	t.Run("unknown field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(`{"title":"Solaris","owner":"x"}`))
		handler.Create(w, asUser(r))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_JSON", decodeErrorBody(t, w).Code)
	})
}

func TestHTTPHandler_Update(t *testing.T) {
	handler, f := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		f.repo.EXPECT().Update(gomock.Any(), testUser, testID, Patch{"status": "read"}).
			Return(UserBook{ID: testID, Status: StatusRead}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPatch, "/v1/books/"+testID, strings.NewReader(`{"status":"read"}`))
		r.SetPathValue("id", testID)
		handler.Update(w, asUser(r))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("nothing to update", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPatch, "/v1/books/"+testID, strings.NewReader(`{"id":"other"}`))
		r.SetPathValue("id", testID)
		handler.Update(w, asUser(r))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "NOTHING_TO_UPDATE", decodeErrorBody(t, w).Code)
	})

	t.Run("someone else's book", func(t *testing.T) {
		f.repo.EXPECT().Update(gomock.Any(), testUser, testID, gomock.Any()).Return(UserBook{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPatch, "/v1/books/"+testID, strings.NewReader(`{"rating":1}`))
		r.SetPathValue("id", testID)
		handler.Update(w, asUser(r))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_DeleteAndComment(t *testing.T) {
	handler, f := newTestHandler(t)

	f.repo.EXPECT().Delete(gomock.Any(), testUser, testID).Return(nil)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/v1/books/"+testID, nil)
	r.SetPathValue("id", testID)
	handler.Delete(w, asUser(r))
	assert.Equal(t, http.StatusNoContent, w.Code)

	f.repo.EXPECT().SaveComment(gomock.Any(), testUser, testID, "loved it").Return(nil)
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPut, "/v1/books/"+testID+"/comment", strings.NewReader(`{"comment":"loved it"}`))
	r.SetPathValue("id", testID)
	handler.SaveComment(w, asUser(r))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHTTPHandler_Export(t *testing.T) {
	handler, f := newTestHandler(t)
	f.repo.EXPECT().ListByUser(gomock.Any(), testUser).Return(exportBooks(), nil)

	w := httptest.NewRecorder()
	handler.Export(w, asUser(httptest.NewRequest(http.MethodGet, "/v1/books/export?fields=title,author", nil)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, `attachment; filename="books-user-1-2024-05-06T07-08-09-000Z.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\uFEFFtitle,author\n"))
}

func TestHTTPHandler_Catalog(t *testing.T) {
	handler, f := newTestHandler(t)

	t.Run("search too short", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.SearchCatalog(w, httptest.NewRequest(http.MethodGet, "/v1/catalog/search?q=a", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("search", func(t *testing.T) {
		f.catalog.EXPECT().SearchTitles(gomock.Any(), "sol", 5).Return([]CatalogEntry{{Title: "Solaris", Author: "Stanislaw Lem"}}, nil)
		w := httptest.NewRecorder()
		handler.SearchCatalog(w, httptest.NewRequest(http.MethodGet, "/v1/catalog/search?q=sol", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Stanislaw Lem")
	})

	t.Run("add", func(t *testing.T) {
		f.catalog.EXPECT().InsertIfAbsent(gomock.Any(), gomock.Any(), "solaris", "lem stanislaw").Return(true, nil)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/catalog", strings.NewReader(`{"title":"Solaris","author":"Stanislaw Lem"}`))
		handler.AddToCatalog(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"inserted":true`)
	})
}
