package handlers

import (
	"log/slog"
	"net/http"
)

// RemoveParticipantHandler handles DELETE /activities/{activity}/participants?email=...
type RemoveParticipantHandler struct {
	logger  *slog.Logger
	remover Remover
}

// NewRemoveParticipantHandler creates a new RemoveParticipantHandler.
func NewRemoveParticipantHandler(logger *slog.Logger, remover Remover) *RemoveParticipantHandler {
	return &RemoveParticipantHandler{
		logger:  logger,
		remover: remover,
	}
}

// ServeHTTP implements http.Handler.
func (h *RemoveParticipantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	activity, email, ok := rosterRequest(w, r)
	if !ok {
		return
	}

	msg, err := h.remover.Remove(activity, email)
	if err != nil {
		h.logger.Debug("removal rejected", "activity", activity, "email", email, "error", err)
		writeRosterError(w, err)
		return
	}

	h.logger.Info("participant removed", "activity", activity, "email", email)
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}
