package notify

import (
	"sync"
)

// Buffer is a thread-safe ring buffer of recent notifications.
type Buffer struct {
	mu      sync.RWMutex
	entries []Notification
	cap     int
}

// NewBuffer creates a buffer holding at most capacity notifications.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{
		entries: make([]Notification, 0, capacity),
		cap:     capacity,
	}
}

// Notify adds a notification, dropping the oldest when full.
func (b *Buffer) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) >= b.cap {
		copy(b.entries, b.entries[1:])
		b.entries[len(b.entries)-1] = n
	} else {
		b.entries = append(b.entries, n)
	}
}

// Entries returns buffered notifications, oldest first, optionally
// filtered by level.
func (b *Buffer) Entries(levels ...Level) []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(levels) == 0 {
		out := make([]Notification, len(b.entries))
		copy(out, b.entries)
		return out
	}

	want := make(map[Level]bool, len(levels))
	for _, l := range levels {
		want[l] = true
	}
	out := make([]Notification, 0)
	for _, n := range b.entries {
		if want[n.Level] {
			out = append(out, n)
		}
	}
	return out
}

// Latest returns the most recent notification.
func (b *Buffer) Latest() (Notification, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.entries) == 0 {
		return Notification{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// Clear removes all entries.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = b.entries[:0]
}
