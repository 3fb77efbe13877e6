package handlers

import (
	"net/http"

	"github.com/nomis52/clubsignup/journal"
)

// HistoryHandler handles requests for the roster change history.
// An optional ?activity= query parameter restricts it to one activity.
type HistoryHandler struct {
	provider HistoryProvider
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(provider HistoryProvider) *HistoryHandler {
	return &HistoryHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var entries []journal.Entry
	if activity := r.URL.Query().Get("activity"); activity != "" {
		entries = h.provider.EntriesFor(activity)
	} else {
		entries = h.provider.Entries()
	}
	writeJSON(w, http.StatusOK, entries)
}
