package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/domain/venues"
)

// Dashboard shows event counts for the first venues by id.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	store, err := middleware.Store(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rows, err := store.Venues().EventCounts(r.Context(), venues.DashboardLimit)
	if err != nil {
		fail(w, r, err)
		return
	}

	summary := venues.Summarize(rows)
	h.render(w, r, http.StatusOK, "dashboard.html", map[string]any{
		"Title":   "Dashboard",
		"Summary": summary,
		"Max":     summary.Max(),
	})
}
