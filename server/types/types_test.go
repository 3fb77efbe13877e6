package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nomis52/clubsignup/buildinfo"
)

func TestNewServerProperties(t *testing.T) {
	started := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	props := NewServerProperties(started)

	assert.Equal(t, started, props.StartedAt)
	assert.Equal(t, buildinfo.Get(), props.Build)
	assert.NotEmpty(t, props.Hostname)
}
