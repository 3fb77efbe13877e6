package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nomis52/clubsignup/catalog"
)

// ActivitiesHandler handles requests for the full activity catalog.
type ActivitiesHandler struct {
	provider RosterProvider
}

// NewActivitiesHandler creates a new ActivitiesHandler.
func NewActivitiesHandler(provider RosterProvider) *ActivitiesHandler {
	return &ActivitiesHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *ActivitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, activityMap(h.provider.List()))
}

// activityMap encodes activities as a JSON object keyed by name, keeping catalog order.
type activityMap []catalog.Activity

// MarshalJSON implements json.Marshaler.
func (m activityMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		if a.Participants == nil {
			a.Participants = []string{}
		}
		value, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encoding activity %q: %w", a.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
