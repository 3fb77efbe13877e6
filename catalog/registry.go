package catalog

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Action identifies the kind of roster change.
type Action string

const (
	ActionSignup Action = "signup"
	ActionRemove Action = "remove"
)

// Change describes one attempted roster change.
type Change struct {
	Action   Action
	Activity string
	Email    string
	At       time.Time
	// Participants is the roster size once the attempt completed.
	Participants int
	// Err is nil when the change was applied.
	Err error
}

// Observer is notified of every enroll and remove attempt.
// Observe runs while the registry lock is held, so it must not call back
// into the Registry and should return quickly.
type Observer interface {
	Observe(Change)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Change)

// Observe implements Observer.
func (f ObserverFunc) Observe(c Change) {
	f(c)
}

// Registry is the in-memory set of activities keyed by name.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	order      []string
	activities map[string]*Activity
	policy     EnrollmentPolicy
	observers  []Observer
	now        func() time.Time
}

// Option configures a Registry.
type Option func(*Registry) error

// WithPolicy sets the enrollment policy. Default is PolicyPerActivity.
func WithPolicy(p EnrollmentPolicy) Option {
	return func(r *Registry) error {
		parsed, err := ParsePolicy(string(p))
		if err != nil {
			return err
		}
		r.policy = parsed
		return nil
	}
}

// WithObserver registers an observer for roster changes.
func WithObserver(o Observer) Option {
	return func(r *Registry) error {
		if o == nil {
			return fmt.Errorf("observer must not be nil")
		}
		r.observers = append(r.observers, o)
		return nil
	}
}

// New builds a Registry from seed, keeping the seed order.
// The seed is copied and validated: names must be non-empty and unique,
// max_participants must not be negative and each roster must hold unique,
// non-empty emails.
func New(seed []Activity, opts ...Option) (*Registry, error) {
	r := &Registry{
		order:      make([]string, 0, len(seed)),
		activities: make(map[string]*Activity, len(seed)),
		policy:     PolicyPerActivity,
		now:        time.Now,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	owner := make(map[string]string)
	for _, a := range seed {
		if err := a.validate(); err != nil {
			return nil, err
		}
		if _, ok := r.activities[a.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate activity %q", ErrInvalidSeed, a.Name)
		}
		if r.policy == PolicyGlobal {
			for _, email := range a.Participants {
				if other, ok := owner[email]; ok {
					return nil, fmt.Errorf("%w: %s is enrolled in both %q and %q", ErrInvalidSeed, email, other, a.Name)
				}
				owner[email] = a.Name
			}
		}

		c := a.clone()
		r.activities[a.Name] = &c
		r.order = append(r.order, a.Name)
	}

	return r, nil
}

// Policy returns the enrollment policy in force.
func (r *Registry) Policy() EnrollmentPolicy {
	return r.policy
}

// List returns a copy of every activity in catalog order.
func (r *Registry) List() []Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Activity, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.activities[name].clone())
	}
	return result
}

// Get returns a copy of the named activity.
func (r *Registry) Get(name string) (Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[name]
	if !ok {
		return Activity{}, fmt.Errorf("%q: %w", name, ErrActivityNotFound)
	}
	return a.clone(), nil
}

// Enroll signs email up for the named activity and returns a confirmation message.
// Capacity is not enforced.
func (r *Registry) Enroll(name, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		err := fmt.Errorf("%q: %w", name, ErrActivityNotFound)
		r.notify(ActionSignup, name, email, 0, err)
		return "", err
	}

	if a.HasParticipant(email) {
		err := fmt.Errorf("%s in %q: %w", email, name, ErrAlreadySignedUp)
		r.notify(ActionSignup, name, email, len(a.Participants), err)
		return "", err
	}

	if r.policy == PolicyGlobal {
		if other, ok := r.enrolledElsewhere(name, email); ok {
			err := &ElsewhereError{Email: email, Activity: other}
			r.notify(ActionSignup, name, email, len(a.Participants), err)
			return "", err
		}
	}

	a.Participants = append(a.Participants, email)
	r.notify(ActionSignup, name, email, len(a.Participants), nil)
	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Remove takes email off the named activity and returns a confirmation message.
func (r *Registry) Remove(name, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		err := fmt.Errorf("%q: %w", name, ErrActivityNotFound)
		r.notify(ActionRemove, name, email, 0, err)
		return "", err
	}

	idx := a.indexOf(email)
	if idx < 0 {
		err := fmt.Errorf("%s in %q: %w", email, name, ErrParticipantNotFound)
		r.notify(ActionRemove, name, email, len(a.Participants), err)
		return "", err
	}

	a.Participants = slices.Delete(a.Participants, idx, idx+1)
	r.notify(ActionRemove, name, email, len(a.Participants), nil)
	return fmt.Sprintf("Removed %s from %s", email, name), nil
}

// enrolledElsewhere must be called with r.mu held.
func (r *Registry) enrolledElsewhere(name, email string) (string, bool) {
	for _, other := range r.order {
		if other == name {
			continue
		}
		if r.activities[other].HasParticipant(email) {
			return other, true
		}
	}
	return "", false
}

// notify must be called with r.mu held.
func (r *Registry) notify(action Action, name, email string, participants int, err error) {
	if len(r.observers) == 0 {
		return
	}
	c := Change{
		Action:       action,
		Activity:     name,
		Email:        email,
		At:           r.now(),
		Participants: participants,
		Err:          err,
	}
	for _, o := range r.observers {
		o.Observe(c)
	}
}

// ElsewhereError reports a signup rejected under PolicyGlobal because the
// student already belongs to another activity. It matches ErrAlreadySignedUp.
type ElsewhereError struct {
	Email    string
	Activity string
}

func (e *ElsewhereError) Error() string {
	return fmt.Sprintf("%s is already signed up for %q", e.Email, e.Activity)
}

// Is lets errors.Is(err, ErrAlreadySignedUp) succeed.
func (e *ElsewhereError) Is(target error) bool {
	return target == ErrAlreadySignedUp
}
