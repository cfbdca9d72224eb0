// Package cache keeps the last resolved value of every data key and decides
// when a key has to be fetched again.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// State of a cache entry.
type State int

const (
	Idle State = iota
	Pending
	Resolved
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	default:
		return "idle"
	}
}

// MarshalText lets entries render their state by name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Entry is a snapshot of one key. While a refetch is in flight the entry is
// Pending but still carries the previous result.
type Entry struct {
	Key       string
	State     State
	Value     any
	Err       error
	UpdatedAt time.Time
	// HasResult is false until the first Complete.
	HasResult bool
}

// Cache is safe for concurrent use. Unrelated keys never wait on each other
// beyond the short critical section of the map lock.
type Cache struct {
	clock   clockwork.Clock
	mu      sync.RWMutex
	entries map[string]*Entry
}

func New(clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		clock:   clock,
		entries: make(map[string]*Entry),
	}
}

// NeedsRefresh is true when the key has never resolved, when its last result
// is an error, or when interval has elapsed since it was last updated. A key
// with a fetch in flight does not need another one.
func (c *Cache) NeedsRefresh(key string, interval time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return true
	}
	if e.State == Pending {
		return false
	}
	if !e.HasResult || e.Err != nil {
		return true
	}
	return c.clock.Since(e.UpdatedAt) >= interval
}

// BeginFetch claims key for fetching. Exactly one caller wins until the
// claim is released by Complete or Abort.
func (c *Cache) BeginFetch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.entries[key] = &Entry{Key: key, State: Pending}
		return true
	}
	if e.State == Pending {
		return false
	}
	e.State = Pending
	return true
}

// Abort releases a claim without a result, restoring the previous state.
func (c *Cache) Abort(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.State != Pending {
		return
	}
	if e.HasResult {
		e.State = Resolved
	} else {
		e.State = Idle
	}
}

// Complete stores the outcome of a fetch, success or failure, stamped with
// the current time. UpdatedAt never moves backwards.
func (c *Cache) Complete(key string, value any, err error) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &Entry{Key: key}
		c.entries[key] = e
	}
	if now.Before(e.UpdatedAt) {
		now = e.UpdatedAt
	}
	e.State = Resolved
	e.HasResult = true
	e.UpdatedAt = now
	if err != nil {
		e.Value = nil
		e.Err = err
		return
	}
	e.Value = value
	e.Err = nil
}

// Read returns a copy of the entry without waiting on in-flight fetches.
func (c *Cache) Read(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{Key: key}, false
	}
	return *e, true
}

// Snapshot returns copies of all entries sorted by key.
func (c *Cache) Snapshot() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
