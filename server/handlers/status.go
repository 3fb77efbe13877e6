package handlers

import (
	"net/http"
	"time"

	"github.com/nomis52/clubsignup/server/types"
)

// NextPushResponse describes the next scheduled metrics push.
type NextPushResponse struct {
	Scheduled bool       `json:"scheduled"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

// StatusResponse is the consolidated response for /api/status.
type StatusResponse struct {
	Server           types.ServerProperties `json:"server"`
	EnrollmentPolicy string                 `json:"enrollment_policy"`
	Activities       int                    `json:"activities"`
	Participants     int                    `json:"participants"`
	MetricsPush      NextPushResponse       `json:"metrics_push"`
}

// StatusHandler handles requests for the consolidated status endpoint.
type StatusHandler struct {
	provider StatusProvider
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(provider StatusProvider) *StatusHandler {
	return &StatusHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	activities := h.provider.List()

	participants := 0
	for _, a := range activities {
		participants += len(a.Participants)
	}

	nextPush := h.provider.NextPush()

	writeJSON(w, http.StatusOK, StatusResponse{
		Server:           h.provider.Properties(),
		EnrollmentPolicy: h.provider.Policy().String(),
		Activities:       len(activities),
		Participants:     participants,
		MetricsPush: NextPushResponse{
			Scheduled: nextPush != nil,
			NextRun:   nextPush,
		},
	})
}
