package media

import (
	"errors"
	"io"
	"net/http"

	"bookshelf/internal/httpx"
	"bookshelf/internal/storage"
)

// MaxUploadBytes caps a single uploaded file.
const MaxUploadBytes = 10 << 20

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrBadFileName):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_FILE", err.Error(), nil)
	case errors.Is(err, ErrUnsupportedType):
		httpx.JSONError(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error(), nil)
	case errors.Is(err, storage.ErrUnknownBucket):
		httpx.JSONError(w, r, http.StatusBadRequest, "UNKNOWN_BUCKET", "bucket must be covers, comments or exports", nil)
	case errors.Is(err, storage.ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "File not found", nil)
	default:
		httpx.WriteError(w, r, err)
	}
}

// readFile pulls the "file" part out of a multipart request.
func readFile(w http.ResponseWriter, r *http.Request) (File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return File{}, &httpx.Error{Status: http.StatusRequestEntityTooLarge, Code: "PAYLOAD_TOO_LARGE", Message: "File too large", Err: err}
		}
		return File{}, &httpx.Error{Status: http.StatusBadRequest, Code: "INVALID_MULTIPART", Message: "Expected multipart/form-data", Err: err}
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		return File{}, &httpx.Error{Status: http.StatusBadRequest, Code: "INVALID_FILE", Message: "file field is required", Err: err}
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, MaxUploadBytes+1))
	if err != nil {
		return File{}, err
	}
	if len(data) > MaxUploadBytes {
		return File{}, &httpx.Error{Status: http.StatusRequestEntityTooLarge, Code: "PAYLOAD_TOO_LARGE", Message: "File too large"}
	}
	return File{Name: header.Filename, ContentType: header.Header.Get("Content-Type"), Data: data}, nil
}

// UploadCover handles POST /v1/uploads/cover
// @Summary Upload a book cover
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 201 {object} httpx.SuccessResponse{data=Upload}
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 415 {object} httpx.ErrorResponse
// @Router /v1/uploads/cover [post]
func (h *HTTPHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	f, err := readFile(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	up, err := h.service.UploadCover(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, up)
}

// UploadCommentImage handles POST /v1/uploads/comment-image
func (h *HTTPHandler) UploadCommentImage(w http.ResponseWriter, r *http.Request) {
	f, err := readFile(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	up, err := h.service.UploadCommentImage(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, up)
}

// UploadExport handles POST /v1/uploads/export
// @Summary Store an exported file in the caller's folder
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Exported file"
// @Param type formData string false "Content type of the file"
// @Success 201 {object} httpx.SuccessResponse{data=Upload}
// @Router /v1/uploads/export [post]
func (h *HTTPHandler) UploadExport(w http.ResponseWriter, r *http.Request) {
	f, err := readFile(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if t := r.FormValue("type"); t != "" {
		f.ContentType = t
	}
	up, err := h.service.UploadExport(r.Context(), httpx.UserIDFrom(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, up)
}

type deleteRequest struct {
	Bucket   string `json:"bucket"`
	FileName string `json:"file_name"`
}

// Delete handles DELETE /v1/uploads
// @Summary Remove an uploaded file
// @Tags uploads
// @Accept json
// @Param request body deleteRequest true "Bucket and file name"
// @Success 204
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/uploads [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), httpx.UserIDFrom(r), req.Bucket, req.FileName); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}
