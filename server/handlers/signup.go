package handlers

import (
	"log/slog"
	"net/http"
)

// SignupHandler handles POST /activities/{activity}/signup?email=...
type SignupHandler struct {
	logger   *slog.Logger
	enroller Enroller
}

// NewSignupHandler creates a new SignupHandler.
func NewSignupHandler(logger *slog.Logger, enroller Enroller) *SignupHandler {
	return &SignupHandler{
		logger:   logger,
		enroller: enroller,
	}
}

// ServeHTTP implements http.Handler.
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	activity, email, ok := rosterRequest(w, r)
	if !ok {
		return
	}

	msg, err := h.enroller.Enroll(activity, email)
	if err != nil {
		h.logger.Debug("signup rejected", "activity", activity, "email", email, "error", err)
		writeRosterError(w, err)
		return
	}

	h.logger.Info("student signed up", "activity", activity, "email", email)
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}
