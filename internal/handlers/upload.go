package handlers

import (
	"net/http"
	"strings"

	"github.com/zachlamont/wheres-wally/internal/api/middleware"
	"github.com/zachlamont/wheres-wally/internal/metrics"
)

// maxUploadBytes caps attachment size at 8 MiB.
const maxUploadBytes = 8 << 20

// UploadResponse represents a completed attachment upload.
type UploadResponse struct {
	StorageURI string `json:"storageUri"`
	URL        string `json:"url"`
}

// Upload accepts a multipart image attachment and returns its storage URI
// and public URL (authenticated). Non-image files are rejected before
// anything is written.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "sign in to upload")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		h.Error(w, http.StatusUnsupportedMediaType, "you can only share images")
		return
	}

	uri, err := h.blobs.Save(file, header.Filename)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("upload failed")
		h.Error(w, http.StatusInternalServerError, "failed to store attachment")
		return
	}

	url, err := h.blobs.PublicURL(h.publicURL, uri)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to resolve attachment URL")
		return
	}

	metrics.ImagesUploaded.Inc()

	h.JSON(w, http.StatusCreated, UploadResponse{
		StorageURI: uri,
		URL:        url,
	})
}
