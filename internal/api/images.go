package api

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/erazemk/kitshelf/internal/egress"
	"github.com/erazemk/kitshelf/internal/imaging"
	"github.com/erazemk/kitshelf/internal/model"
	"github.com/erazemk/kitshelf/internal/store"
	"github.com/erazemk/kitshelf/internal/upload"
)

// multipartOverhead is allowed on top of imaging.MaxFileSize for form
// boundaries and headers.
const multipartOverhead = 1 << 20

// ImagesHandler handles kit image upload and removal.
type ImagesHandler struct {
	DB       *sql.DB
	Blobs    *store.BlobStore
	Uploader *upload.Orchestrator
}

type uploadResponse struct {
	Kit     kitView        `json:"kit"`
	Savings egress.Savings `json:"savings"`
}

// Upload handles PUT /api/kits/{id}/image. The multipart field "image" is
// compressed into three sizes and stored; with ?inline=true only the medium
// size is kept, as a data URI on the kit itself.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	owner := ownerID(r)

	current, err := store.GetOwnedKit(r.Context(), h.DB, owner, id)
	if err != nil {
		writeError(w, r, err, "failed to upload image")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(imaging.MaxFileSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, imaging.ErrTooLarge, "")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read image")
		return
	}

	inline, _ := strconv.ParseBool(r.URL.Query().Get("inline"))
	var res *upload.Result
	if inline {
		res, err = h.Uploader.InlineMedium(r.Context(), data)
	} else {
		res, err = h.Uploader.Upload(r.Context(), id, data)
	}
	if err != nil {
		writeError(w, r, err, "failed to process image")
		return
	}

	kit, err := store.SetKitImage(r.Context(), h.DB, owner, id, res.Image)
	if err != nil {
		h.deleteImage(r.Context(), id, res.Image, model.ImageRef{})
		writeError(w, r, err, "failed to save image")
		return
	}
	h.deleteImage(r.Context(), id, current.Image, res.Image)

	jsonResponse(w, http.StatusOK, uploadResponse{Kit: newKitView(kit), Savings: res.Savings})
}

// Delete handles DELETE /api/kits/{id}/image.
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	kit, err := store.SetKitImage(r.Context(), h.DB, ownerID(r), id, model.ImageRef{})
	if err != nil {
		writeError(w, r, err, "failed to remove image")
		return
	}

	if h.Blobs != nil {
		if _, err := h.Blobs.DeletePrefix(r.Context(), upload.KitPrefix(id)); err != nil {
			slog.WarnContext(r.Context(), "failed to delete kit images", "kit_id", id, "error", err)
		}
	}

	jsonResponse(w, http.StatusOK, newKitView(kit))
}

// deleteImage removes the stored blobs behind ref, except those keep still
// points at. Only paths under kitID's own prefix are touched; other URLs are
// left alone.
func (h *ImagesHandler) deleteImage(ctx context.Context, kitID string, ref, keep model.ImageRef) {
	if h.Blobs == nil {
		return
	}
	kept := []string{keep.URL, keep.Thumbnail, keep.Medium, keep.Full}
	for _, u := range []string{ref.URL, ref.Thumbnail, ref.Medium, ref.Full} {
		path, ok := h.Blobs.PathOf(u)
		if !ok || !ownsImagePath(kitID, path) || slices.Contains(kept, u) {
			continue
		}
		if err := h.Blobs.Delete(ctx, path); err != nil {
			slog.WarnContext(ctx, "failed to delete image", "kit_id", kitID, "path", path, "error", err)
		}
	}
}
