package alert

import (
	"sync"
	"time"

	"github.com/vigilcam/vigil/internal/facematch"
)

// DefaultCooldown is the default minimum time between two alerts for the
// same identity.
const DefaultCooldown = 60 * time.Second

// Cooldown gates alerts per identity. Unknown persons are always permitted;
// repeated sightings of unidentified people must keep alerting.
type Cooldown struct {
	interval time.Duration

	mu         sync.Mutex
	lastAlerts map[string]time.Time
}

// NewCooldown creates a Cooldown with the given interval. Intervals <= 0
// fall back to the default.
func NewCooldown(interval time.Duration) *Cooldown {
	if interval <= 0 {
		interval = DefaultCooldown
	}
	return &Cooldown{
		interval:   interval,
		lastAlerts: make(map[string]time.Time),
	}
}

// Allow reports whether an alert for the identity is permitted at now.
// Unknown identities are always permitted. For known identities the alert
// timestamp is recorded when permitted.
func (c *Cooldown) Allow(id facematch.Identity, now time.Time) bool {
	if !id.IsKnown() {
		return true
	}
	return c.AllowKey(id.Name(), now)
}

// AllowKey gates an arbitrary key, recording the timestamp when permitted.
// Used directly for the motion alert channel.
func (c *Cooldown) AllowKey(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.lastAlerts[key]; ok {
		if now.Sub(last) < c.interval {
			return false
		}
	}

	c.lastAlerts[key] = now
	return true
}

// Reset removes the cooldown entry for one key.
func (c *Cooldown) Reset(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastAlerts, key)
}

// ResetAll removes every cooldown entry.
func (c *Cooldown) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAlerts = make(map[string]time.Time)
}
