// Package handlers provides HTTP handlers for the clubsignup server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"time"

	"github.com/nomis52/clubsignup/catalog"
	"github.com/nomis52/clubsignup/journal"
	"github.com/nomis52/clubsignup/server/config"
	"github.com/nomis52/clubsignup/server/types"
)

// RosterProvider provides the current list of activities.
type RosterProvider interface {
	List() []catalog.Activity
}

// Enroller signs students up for activities.
type Enroller interface {
	Enroll(activity, email string) (string, error)
}

// Remover takes students off activities.
type Remover interface {
	Remove(activity, email string) (string, error)
}

// HistoryProvider provides access to the change journal.
type HistoryProvider interface {
	Entries() []journal.Entry
	EntriesFor(activity string) []journal.Entry
}

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.ServerConfig
}

// StatusProvider aggregates everything the status endpoint reports.
type StatusProvider interface {
	RosterProvider
	Properties() types.ServerProperties
	Policy() catalog.EnrollmentPolicy
	NextPush() *time.Time
}
