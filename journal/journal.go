// Package journal keeps a bounded, in-memory history of roster changes.
package journal

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nomis52/clubsignup/catalog"
)

// Entry is one applied roster change.
type Entry struct {
	ID       string         `json:"id"`
	Action   catalog.Action `json:"action"`
	Activity string         `json:"activity"`
	Email    string         `json:"email"`
	At       time.Time      `json:"at"`
}

// MemoryJournal keeps entries in memory only (no persistence), most recent first.
type MemoryJournal struct {
	entries  []Entry
	maxCount int
	mu       sync.Mutex
}

// NewMemoryJournal creates a journal holding at most maxCount entries.
// A maxCount of zero or less keeps everything.
func NewMemoryJournal(maxCount int) *MemoryJournal {
	return &MemoryJournal{
		entries:  make([]Entry, 0),
		maxCount: maxCount,
	}
}

// Observe implements catalog.Observer. Rejected attempts are not recorded.
func (j *MemoryJournal) Observe(c catalog.Change) {
	if c.Err != nil {
		return
	}
	j.Record(Entry{
		Action:   c.Action,
		Activity: c.Activity,
		Email:    c.Email,
		At:       c.At,
	})
}

// Record stores an entry, assigning an ID if it has none.
func (j *MemoryJournal) Record(e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	// Prepend to keep most recent first
	j.entries = append([]Entry{e}, j.entries...)

	if j.maxCount > 0 && len(j.entries) > j.maxCount {
		j.entries = j.entries[:j.maxCount]
	}
}

// Entries returns all entries, most recent first.
func (j *MemoryJournal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	result := make([]Entry, len(j.entries))
	copy(result, j.entries)
	return result
}

// EntriesFor returns the entries for a single activity, most recent first.
func (j *MemoryJournal) EntriesFor(activity string) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	result := make([]Entry, 0)
	for _, e := range j.entries {
		if e.Activity == activity {
			result = append(result, e)
		}
	}
	return result
}
