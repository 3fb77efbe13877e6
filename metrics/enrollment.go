package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/clubsignup/catalog"
)

const (
	resultOK              = "ok"
	resultNotFound        = "not_found"
	resultAlreadySignedUp = "already_signed_up"
	resultError           = "error"

	// unknownActivity replaces names that are not in the catalog so
	// arbitrary request paths cannot create new label values.
	unknownActivity = "unknown"
)

// EnrollmentMetrics records roster changes. It implements catalog.Observer.
type EnrollmentMetrics struct {
	signups      CounterVec
	removals     CounterVec
	participants GaugeVec
}

// NewEnrollmentMetrics creates and registers the enrollment metrics in reg.
func NewEnrollmentMetrics(reg Registry) (*EnrollmentMetrics, error) {
	signups, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "signups_total",
		Help: "Signup attempts by activity and result.",
	}, []string{"activity", "result"})
	if err != nil {
		return nil, err
	}

	removals, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "removals_total",
		Help: "Participant removal attempts by activity and result.",
	}, []string{"activity", "result"})
	if err != nil {
		return nil, err
	}

	participants, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "participants",
		Help: "Current number of participants per activity.",
	}, []string{"activity"})
	if err != nil {
		return nil, err
	}

	return &EnrollmentMetrics{
		signups:      signups,
		removals:     removals,
		participants: participants,
	}, nil
}

// Sync sets the participant gauges from a full roster, typically at startup.
func (m *EnrollmentMetrics) Sync(activities []catalog.Activity) {
	for _, a := range activities {
		m.participants.With(prometheus.Labels{"activity": a.Name}).Set(float64(len(a.Participants)))
	}
}

// Observe implements catalog.Observer.
func (m *EnrollmentMetrics) Observe(c catalog.Change) {
	activity := c.Activity
	if errors.Is(c.Err, catalog.ErrActivityNotFound) {
		activity = unknownActivity
	}
	labels := prometheus.Labels{"activity": activity, "result": resultLabel(c.Err)}

	switch c.Action {
	case catalog.ActionSignup:
		m.signups.With(labels).Inc()
	case catalog.ActionRemove:
		m.removals.With(labels).Inc()
	}

	if c.Err == nil {
		m.participants.With(prometheus.Labels{"activity": c.Activity}).Set(float64(c.Participants))
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, catalog.ErrActivityNotFound), errors.Is(err, catalog.ErrParticipantNotFound):
		return resultNotFound
	case errors.Is(err, catalog.ErrAlreadySignedUp):
		return resultAlreadySignedUp
	default:
		return resultError
	}
}
