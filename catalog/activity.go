package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrActivityNotFound is returned when no activity has the requested name.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrParticipantNotFound is returned when removing an email that is not enrolled.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrAlreadySignedUp is returned when the email is already enrolled.
	ErrAlreadySignedUp = errors.New("already signed up")
	// ErrInvalidSeed is returned when seed data fails validation.
	ErrInvalidSeed = errors.New("invalid seed")
)

// Activity is a single extracurricular activity and its roster.
type Activity struct {
	Name            string   `json:"-" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	Schedule        string   `json:"schedule" yaml:"schedule"`
	MaxParticipants int      `json:"max_participants" yaml:"max_participants"`
	Participants    []string `json:"participants" yaml:"participants"`
}

// SpotsLeft returns how many places remain before MaxParticipants is reached.
// It goes negative when the activity is over-subscribed, since capacity is not enforced.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// HasParticipant reports whether email is on the roster.
func (a Activity) HasParticipant(email string) bool {
	return a.indexOf(email) >= 0
}

func (a Activity) indexOf(email string) int {
	for i, p := range a.Participants {
		if p == email {
			return i
		}
	}
	return -1
}

// clone returns a deep copy so callers never share the roster slice.
func (a Activity) clone() Activity {
	participants := make([]string, len(a.Participants))
	copy(participants, a.Participants)
	a.Participants = participants
	return a
}

// validate checks a single activity record.
func (a Activity) validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: activity name is required", ErrInvalidSeed)
	}
	if a.MaxParticipants < 0 {
		return fmt.Errorf("%w: %q has negative max_participants %d", ErrInvalidSeed, a.Name, a.MaxParticipants)
	}

	seen := make(map[string]bool, len(a.Participants))
	for _, email := range a.Participants {
		if email == "" {
			return fmt.Errorf("%w: %q has an empty participant email", ErrInvalidSeed, a.Name)
		}
		if seen[email] {
			return fmt.Errorf("%w: %q lists %s more than once", ErrInvalidSeed, a.Name, email)
		}
		seen[email] = true
	}
	return nil
}
