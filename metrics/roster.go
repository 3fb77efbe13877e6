package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/clubsignup/catalog"
)

// RosterSource provides the current roster.
type RosterSource interface {
	List() []catalog.Activity
}

// RosterReporter copies a roster snapshot into a push registry and flushes it.
type RosterReporter struct {
	source       RosterSource
	flusher      Flusher
	participants GaugeVec
	capacity     GaugeVec
}

// NewRosterReporter creates the roster gauges in reg. reg is flushed on every Report.
func NewRosterReporter(reg *PushRegistry, source RosterSource) (*RosterReporter, error) {
	participants, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "participants",
		Help: "Current number of participants per activity.",
	}, []string{"activity"})
	if err != nil {
		return nil, err
	}

	capacity, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "capacity",
		Help: "Maximum participants per activity.",
	}, []string{"activity"})
	if err != nil {
		return nil, err
	}

	return &RosterReporter{
		source:       source,
		flusher:      reg,
		participants: participants,
		capacity:     capacity,
	}, nil
}

// Report pushes the current participant count and capacity of every activity.
func (r *RosterReporter) Report(ctx context.Context) error {
	for _, a := range r.source.List() {
		labels := prometheus.Labels{"activity": a.Name}
		r.participants.With(labels).Set(float64(len(a.Participants)))
		r.capacity.With(labels).Set(float64(a.MaxParticipants))
	}

	if err := r.flusher.Flush(ctx); err != nil {
		return fmt.Errorf("pushing roster metrics: %w", err)
	}
	return nil
}
