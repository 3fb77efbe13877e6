// Package types provides shared types for the server package and its subpackages.
package types

import (
	"os"
	"time"

	"github.com/nomis52/clubsignup/buildinfo"
)

// ServerProperties holds metadata about the running server instance.
type ServerProperties struct {
	Build     buildinfo.Properties `json:"build"`
	StartedAt time.Time            `json:"started_at"`
	Hostname  string               `json:"hostname"`
}

// NewServerProperties captures the build, start time and hostname of this process.
func NewServerProperties(startedAt time.Time) ServerProperties {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return ServerProperties{
		Build:     buildinfo.Get(),
		StartedAt: startedAt,
		Hostname:  hostname,
	}
}
