package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed",
			[]httpx.ErrorDetail{{Field: ve.Field, Message: ve.Message}})
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrNothingToUpdate):
		httpx.JSONError(w, r, http.StatusBadRequest, "NOTHING_TO_UPDATE", "No updatable fields in request", nil)
	default:
		httpx.WriteError(w, r, err)
	}
}

// List handles GET /v1/books
// @Summary List the caller's books
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse{data=[]UserBook}
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.List(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]any{"total": len(books)})
}

// Create handles POST /v1/books
// @Summary Add a book to the caller's shelf
// @Description Title is required unless a valid ISBN lets the lookup fill it in
// @Tags books
// @Accept json
// @Produce json
// @Param request body NewBook true "Book"
// @Success 201 {object} httpx.SuccessResponse{data=UserBook}
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in NewBook
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	b, err := h.service.Add(r.Context(), httpx.UserIDFrom(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, b)
}

// Update handles PATCH /v1/books/{id}
// @Summary Update fields of a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse{data=UserBook}
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/books/{id} [patch]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := httpx.DecodeJSON(r, &raw); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	b, err := h.service.Update(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /v1/books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), httpx.UserIDFrom(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// SaveComment handles PUT /v1/books/{id}/comment
func (h *HTTPHandler) SaveComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.service.SaveComment(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), req.Comment); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// Export handles GET /v1/books/export
// @Summary Download the caller's shelf
// @Tags books
// @Produce text/csv
// @Produce json
// @Param format query string false "csv (default) or json"
// @Param fields query string false "Comma separated columns"
// @Success 200 {file} file
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/books/export [get]
func (h *HTTPHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file, err := h.service.Export(r.Context(), httpx.UserIDFrom(r), q.Get("format"), q.Get("fields"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// SearchCatalog handles GET /v1/catalog/search?q=
// @Summary Suggest titles from the shared catalog
// @Tags catalog
// @Produce json
// @Param q query string true "At least 2 characters of the title"
// @Success 200 {object} httpx.SuccessResponse{data=[]CatalogEntry}
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/catalog/search [get]
func (h *HTTPHandler) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.SearchCatalog(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, entries, nil)
}

// AddToCatalog handles POST /v1/catalog
func (h *HTTPHandler) AddToCatalog(w http.ResponseWriter, r *http.Request) {
	var e CatalogEntry
	if err := httpx.DecodeJSON(r, &e); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	inserted, err := h.service.AddToCatalog(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]bool{"inserted": inserted}, nil)
}
