package handler

import (
	"context"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxImageSize = 5 << 20 // 5 MiB

// ObjectStorage is the storage surface for image uploads. Satisfied by
// *storage.S3.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// UploadHandler accepts menu item images and stores them in object storage.
type UploadHandler struct {
	storage ObjectStorage
}

func NewUploadHandler(storage ObjectStorage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// RegisterRoutes registers the upload endpoint, mounted at
// /admin/menu-items behind the ADMIN role check.
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/image", h.UploadImage)
}

var imageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadImage reads the multipart "image" field, stores it under a random
// key and returns the public URL for the menu item form to save.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "image storage is not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := imageContentTypes[contentType]
	if !ok {
		// Fall back to the filename extension for clients that send
		// application/octet-stream.
		ext = strings.ToLower(path.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
			ext = ".jpg"
		case ".png":
			contentType = "image/png"
		case ".webp":
			contentType = "image/webp"
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported image type"})
			return
		}
	}

	key := "menu-items/" + uuid.New().String() + ext
	if err := h.storage.Put(r.Context(), key, contentType, file); err != nil {
		log.Printf("ERROR: upload image: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// When replacing an item's image the client passes the old key so the
	// orphaned object gets cleaned up. Best effort; the upload succeeded.
	if prev := r.FormValue("previous_key"); prev != "" && strings.HasPrefix(prev, "menu-items/") {
		if err := h.storage.Delete(r.Context(), prev); err != nil {
			log.Printf("ERROR: upload image: delete previous %s: %v", prev, err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"key": key,
		"url": h.storage.URL(key),
	})
}
