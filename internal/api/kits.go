package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/kitshelf/internal/collection"
	"github.com/erazemk/kitshelf/internal/model"
	"github.com/erazemk/kitshelf/internal/store"
	"github.com/erazemk/kitshelf/internal/upload"
)

// KitsHandler handles kit CRUD endpoints.
type KitsHandler struct {
	DB    *sql.DB
	Blobs *store.BlobStore
}

// List handles GET /api/kits. The query selects the partition and the
// filter, sort and page of the returned view.
func (h *KitsHandler) List(w http.ResponseWriter, r *http.Request) {
	st := collection.ParseFilterState(r.URL.Query())

	kits, err := store.ListKits(r.Context(), h.DB, ownerID(r), st.Ownership)
	if err != nil {
		writeError(w, r, err, "failed to list kits")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	jsonResponse(w, http.StatusOK, newListResponse(collection.View(kits, st)))
}

// Create handles POST /api/kits.
func (h *KitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.KitInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := checkImageRef(h.Blobs, "", in.Image); err != nil {
		writeError(w, r, err, "failed to create kit")
		return
	}

	kit, err := store.CreateKit(r.Context(), h.DB, ownerID(r), in)
	if err != nil {
		writeError(w, r, err, "failed to create kit")
		return
	}

	jsonResponse(w, http.StatusCreated, newKitView(kit))
}

// Get handles GET /api/kits/{id}.
func (h *KitsHandler) Get(w http.ResponseWriter, r *http.Request) {
	kit, err := store.GetOwnedKit(r.Context(), h.DB, ownerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "failed to get kit")
		return
	}

	jsonResponse(w, http.StatusOK, newKitView(kit))
}

// Update handles PUT /api/kits/{id}. An empty image in the body keeps the
// current one; images are cleared through DELETE /api/kits/{id}/image.
func (h *KitsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var in model.KitInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := store.GetOwnedKit(r.Context(), h.DB, ownerID(r), id)
	if err != nil {
		writeError(w, r, err, "failed to update kit")
		return
	}
	if in.Image.IsEmpty() {
		in.Image = current.Image
	}
	if err := checkImageRef(h.Blobs, id, in.Image); err != nil {
		writeError(w, r, err, "failed to update kit")
		return
	}

	kit, err := store.UpdateKit(r.Context(), h.DB, ownerID(r), id, in)
	if err != nil {
		writeError(w, r, err, "failed to update kit")
		return
	}

	jsonResponse(w, http.StatusOK, newKitView(kit))
}

// Delete handles DELETE /api/kits/{id}, removing the kit's stored images too.
func (h *KitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := store.DeleteKit(r.Context(), h.DB, ownerID(r), id); err != nil {
		writeError(w, r, err, "failed to delete kit")
		return
	}

	if h.Blobs != nil {
		if _, err := h.Blobs.DeletePrefix(r.Context(), upload.KitPrefix(id)); err != nil {
			slog.WarnContext(r.Context(), "failed to delete kit images", "kit_id", id, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
