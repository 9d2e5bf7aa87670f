// Package audit keeps a bounded, newest-first record of administrative and
// lifecycle events. The log lives for the process lifetime; overflowing
// entries are discarded from the tail, never archived.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries retained before eviction.
const DefaultCapacity = 100

// Well-known action tags. Append accepts any uppercase tag; these cover the
// events the core itself emits.
const (
	ActionStartup       = "STARTUP"
	ActionRegisterNew   = "REGISTER-NEW"
	ActionRegisterRenew = "REGISTER-RENEW"
	ActionUpdate        = "UPDATE"
	ActionDelete        = "DELETE"
	ActionBroadcast     = "BROADCAST"
	ActionMaintenance   = "MAINTENANCE"
	ActionError         = "ERROR"
	ActionWarning       = "WARNING"
)

// ActorSystem marks entries produced by the process itself rather than an
// administrator or end-user.
const ActorSystem = "SYSTEM"

// Entry is a single audit record. Entries are immutable once appended.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Detail    string    `json:"detail"`
}

// Log is a fixed-capacity, newest-first event log safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewLog returns an empty log retaining at most capacity entries.
// A capacity of zero or less falls back to DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Append records an event at the head of the log, evicting the oldest entry
// when the log is full. The created entry is returned.
func (l *Log) Append(action, actor, detail string) Entry {
	now := time.Now().UTC()
	entry := Entry{
		ID:        fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Timestamp: now,
		Action:    action,
		Actor:     actor,
		Detail:    detail,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	return entry
}

// List returns a copy of the log, newest first. Each call reflects the
// state at the time of the call, not a live view.
func (l *Log) List() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
