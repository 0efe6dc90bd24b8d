package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/kitshelf/internal/collection"
	"github.com/erazemk/kitshelf/internal/egress"
	"github.com/erazemk/kitshelf/internal/store"
)

// StatsHandler serves the dashboard figures.
type StatsHandler struct {
	DB *sql.DB
}

type statsResponse struct {
	Totals       egress.Totals       `json:"totals"`
	Images       egress.ImageStats   `json:"images"`
	Optimization egress.Optimization `json:"optimization"`
}

// Get handles GET /api/stats over every kit of the user, owned or not.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	kits, err := store.ListKits(r.Context(), h.DB, ownerID(r), collection.OwnershipAll)
	if err != nil {
		writeError(w, r, err, "failed to compute stats")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	jsonResponse(w, http.StatusOK, statsResponse{
		Totals:       egress.CollectionTotals(kits),
		Images:       egress.AggregateCollectionStats(kits),
		Optimization: egress.OptimizationSavings(kits),
	})
}
