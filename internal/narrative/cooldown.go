package narrative

import (
	"sync"
	"time"
)

// DeathCooldown is the minimum interval between two emitted narrations for
// the same participant.
const DeathCooldown = 30 * time.Second

// Cooldown suppresses repeated narration per participant.
// Only emitted narrations move the window; suppressed ones do not.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   map[string]time.Time
}

// NewCooldown creates a Cooldown. A nil now uses time.Now.
func NewCooldown(window time.Duration, now func() time.Time) *Cooldown {
	if now == nil {
		now = time.Now
	}
	return &Cooldown{window: window, now: now, last: make(map[string]time.Time)}
}

// Allow reports whether a narration for key may be emitted now.
func (c *Cooldown) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.last[key]
	return !ok || c.now().Sub(last) >= c.window
}

// Record marks a narration for key as emitted now.
func (c *Cooldown) Record(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[key] = c.now()
}

// Last returns when key last emitted.
func (c *Cooldown) Last(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.last[key]
	return t, ok
}
