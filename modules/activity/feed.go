package activity

import (
	"sync"
	"time"
)

// DefaultFeedSize is the number of entries kept per user.
const DefaultFeedSize = 50

// Kind identifies what happened to a task.
type Kind string

const (
	KindCreated Kind = "task_created"
	KindUpdated Kind = "task_updated"
	KindDeleted Kind = "task_deleted"
)

// Entry is one line of a user's activity feed.
type Entry struct {
	Kind       Kind      `json:"kind"`
	TaskID     string    `json:"taskId"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Feed keeps the most recent entries for each user in memory.
type Feed struct {
	mu      sync.RWMutex
	entries map[string][]Entry
	size    int
}

// NewFeed creates a Feed that keeps up to size entries per user.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{
		entries: make(map[string][]Entry),
		size:    size,
	}
}

// Record appends an entry to the user's feed, evicting the oldest beyond the
// size limit.
func (f *Feed) Record(userID string, entry Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := append(f.entries[userID], entry)
	if len(entries) > f.size {
		entries = entries[len(entries)-f.size:]
	}
	f.entries[userID] = entries
}

// Recent returns the user's entries, newest first.
func (f *Feed) Recent(userID string) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries := f.entries[userID]
	result := make([]Entry, len(entries))
	for i, e := range entries {
		result[len(entries)-1-i] = e
	}
	return result
}
