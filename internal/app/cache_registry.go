package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chimekit/chime/internal/domain"
)

// CachedSound is one successfully cached attribute set, recorded so the
// daemon can report what the backend has been primed with. The backend
// itself offers no enumeration of its cache.
type CachedSound struct {
	// ID uniquely identifies this registry entry.
	ID string `json:"id"`

	// EventID is the sound theme event identifier, when present.
	EventID string `json:"eventId,omitempty"`

	// Attrs is the attribute set that was cached.
	Attrs map[string]string `json:"attrs"`

	// CachedAt is when the cache call succeeded.
	CachedAt time.Time `json:"cachedAt"`
}

// CacheRegistry is a thread-safe, insertion-ordered record of cached
// sounds.
type CacheRegistry struct {
	mu      sync.RWMutex
	entries []CachedSound
}

// NewCacheRegistry creates an empty cache registry.
func NewCacheRegistry() *CacheRegistry {
	return &CacheRegistry{}
}

// Record stores a cache entry for the given attribute list and returns it.
func (r *CacheRegistry) Record(attrs *domain.AttrList) CachedSound {
	flat := make(map[string]string, attrs.Len())
	for _, a := range attrs.Attrs() {
		flat[a.Name] = a.Value
	}

	eventID, _ := attrs.Get(domain.AttrEventID)

	entry := CachedSound{
		ID:       uuid.New().String(),
		EventID:  eventID,
		Attrs:    flat,
		CachedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	return entry
}

// ListAfter returns up to limit entries following the entry with the given
// ID, in insertion order. An empty ID starts from the beginning. Unknown
// IDs behave like the beginning, which keeps stale cursors harmless.
func (r *CacheRegistry) ListAfter(afterID string, limit int) []CachedSound {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := 0

	if afterID != "" {
		for i, e := range r.entries {
			if e.ID == afterID {
				start = i + 1

				break
			}
		}
	}

	if start >= len(r.entries) {
		return []CachedSound{}
	}

	end := start + limit
	if limit <= 0 || end > len(r.entries) {
		end = len(r.entries)
	}

	out := make([]CachedSound, end-start)
	copy(out, r.entries[start:end])

	return out
}

// Len returns the number of recorded entries.
func (r *CacheRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
