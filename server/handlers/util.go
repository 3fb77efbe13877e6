package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/clubsignup/catalog"
)

const (
	detailActivityNotFound    = "Activity not found"
	detailParticipantNotFound = "Student not found in this activity"
	detailAlreadySignedUp     = "Student is already signed up for this activity"
	detailSignedUpElsewhere   = "Student is already signed up for another activity"
	detailEmailRequired       = "email query parameter is required"
)

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is returned when a roster change succeeds.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// writeRosterError maps registry errors to status codes and detail strings.
func writeRosterError(w http.ResponseWriter, err error) {
	var elsewhere *catalog.ElsewhereError
	switch {
	case errors.Is(err, catalog.ErrActivityNotFound):
		writeDetail(w, http.StatusNotFound, detailActivityNotFound)
	case errors.Is(err, catalog.ErrParticipantNotFound):
		writeDetail(w, http.StatusNotFound, detailParticipantNotFound)
	case errors.As(err, &elsewhere):
		writeDetail(w, http.StatusBadRequest, detailSignedUpElsewhere)
	case errors.Is(err, catalog.ErrAlreadySignedUp):
		writeDetail(w, http.StatusBadRequest, detailAlreadySignedUp)
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

// rosterRequest extracts the activity path value and email query parameter.
// It writes a 422 response and returns false when email is missing.
func rosterRequest(w http.ResponseWriter, r *http.Request) (activity, email string, ok bool) {
	activity = r.PathValue("activity")
	email = r.URL.Query().Get("email")
	if email == "" {
		writeDetail(w, http.StatusUnprocessableEntity, detailEmailRequired)
		return "", "", false
	}
	return activity, email, true
}
