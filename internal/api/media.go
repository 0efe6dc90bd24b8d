package api

import (
	"bytes"
	"net/http"

	"github.com/erazemk/kitshelf/internal/store"
)

// MediaHandler serves stored image blobs.
type MediaHandler struct {
	Blobs *store.BlobStore
}

// Get handles GET /media/{path...}. Conditional requests are answered from
// the stored ETag.
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	blob, err := h.Blobs.Get(r.Context(), r.PathValue("path"))
	if err != nil {
		writeError(w, r, err, "failed to get image")
		return
	}
	if blob == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", blob.MIME)
	w.Header().Set("ETag", blob.ETag)
	if blob.CacheControl != "" {
		w.Header().Set("Cache-Control", blob.CacheControl)
	}
	http.ServeContent(w, r, "", blob.CreatedAt, bytes.NewReader(blob.Data))
}
