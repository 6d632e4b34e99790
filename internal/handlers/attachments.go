package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samvaad/apiserver/internal/storage"
)

// maxAttachmentSize caps uploaded session attachments at 16 MiB.
const maxAttachmentSize = 16 << 20

// AttachmentHandler stores and serves session attachments through the
// configured object store.
type AttachmentHandler struct {
	store storage.ObjectStore
}

func NewAttachmentHandler(store storage.ObjectStore) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// AttachmentRouter registers attachment routes on the given router.
// All routes require an approved counsellor or an admin.
func AttachmentRouter(r chi.Router, handler *AttachmentHandler, staff func(http.Handler) http.Handler) {
	r.Use(staff)
	r.Post("/", handler.Upload)
	r.Get("/{key}", handler.Download)
}

// Upload accepts a multipart form with a "file" field, stores the
// object under a generated key and returns the key for use in a
// session's attachment_key.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentSize)
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := uuid.NewString() + sanitizeExtension(header.Filename)
	if err := h.store.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store attachment")
		return
	}

	writeJSON(w, http.StatusCreated, UploadAttachmentResponse{
		Key:  key,
		Size: header.Size,
	})
}

// Download streams the object stored under the given key.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if strings.TrimSpace(key) == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	obj, err := h.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, obj); err != nil {
		// Headers are already out; nothing left to do but log at the
		// server access log level, which chi's middleware covers.
		return
	}
}

// sanitizeExtension keeps a short, safe file extension from the
// uploaded filename so stored keys stay recognizable.
func sanitizeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}

type UploadAttachmentResponse struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}
