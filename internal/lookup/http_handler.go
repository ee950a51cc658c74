package lookup

import (
	"errors"
	"net/http"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// Lookup handles GET /v1/lookup?isbn=
// @Summary Resolve book metadata by ISBN
// @Description Accepts ISBN-10 or ISBN-13 in any formatting and returns one flat metadata record
// @Tags lookup
// @Produce json
// @Param isbn query string true "ISBN-10 or ISBN-13"
// @Success 200 {object} Metadata
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/lookup [get]
func (h *HTTPHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("isbn")
	if raw == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ISBN", "isbn query parameter is required", nil)
		return
	}

	m, err := h.svc.Lookup(r.Context(), raw)
	switch {
	case errors.Is(err, ErrInvalidISBN):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ISBN", "Not a valid ISBN-10 or ISBN-13", nil)
		return
	case errors.Is(err, ErrMetadataNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "No metadata found for this ISBN", nil)
		return
	case err != nil:
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, m)
}
