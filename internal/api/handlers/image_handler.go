package handlers

import (
	"net/http"
	"strings"

	"github.com/civicpulse/reporter/backend/internal/api/middleware"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// MaxImageBytes caps a single issue photo upload
const MaxImageBytes = 10 << 20

// ImageHandler accepts issue photos
type ImageHandler struct {
	store providers.ImageStore
}

// NewImageHandler creates a new image handler
func NewImageHandler(store providers.ImageStore) *ImageHandler {
	return &ImageHandler{store: store}
}

// Upload handles POST /api/images with a multipart "image" field
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !middleware.SessionFromContext(r.Context()).Active(timeNow()) {
		respondWithAppError(w, apperrors.NewLoginRequiredError(services.LoginRoute))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes)
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart form or image too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondWithError(w, http.StatusBadRequest, "only image uploads are accepted")
		return
	}

	ref, err := h.store.Put(r.Context(), header.Filename, contentType, file, header.Size)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"image_ref": ref})
}
