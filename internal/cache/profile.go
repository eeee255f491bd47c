package cache

import (
	"sync"
	"time"

	"github.com/fullmoon-jpg/paceon-sub000/internal/observability"
)

// Profile is the subset of user data the feed renders next to each item.
type Profile struct {
	UserID    uint   `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
}

type profileEntry struct {
	profile  Profile
	storedAt time.Time
}

// ProfileCache is an injected in-process cache of user profiles. Expiry is
// evaluated on read: an entry older than the TTL is treated as a miss and
// evicted. A zero TTL disables caching entirely.
type ProfileCache struct {
	mu      sync.Mutex
	entries map[uint]profileEntry
	ttl     time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// NewProfileCache returns a ProfileCache with the given entry lifetime.
func NewProfileCache(ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		entries: make(map[uint]profileEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached profile for userID if present and fresh.
func (c *ProfileCache) Get(userID uint) (Profile, bool) {
	if c.ttl <= 0 {
		return Profile{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		observability.ProfileCacheHits.WithLabelValues("miss").Inc()
		return Profile{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, userID)
		observability.ProfileCacheHits.WithLabelValues("expired").Inc()
		return Profile{}, false
	}
	observability.ProfileCacheHits.WithLabelValues("hit").Inc()
	return entry.profile, true
}

// Set stores the profile for its user id.
func (c *ProfileCache) Set(p Profile) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.UserID] = profileEntry{profile: p, storedAt: c.now()}
}

// Evict removes the entry for userID, if any.
func (c *ProfileCache) Evict(userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Reset clears every entry. Intended for tests.
func (c *ProfileCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint]profileEntry)
}

// Len reports the number of resident entries, including not-yet-evicted
// expired ones.
func (c *ProfileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
