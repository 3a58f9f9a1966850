// ABOUTME: Two-phase delete confirmation shared by every list surface
// ABOUTME: First click arms a target for a short window; a second click on it commits once
package confirm

import (
	"sync"
	"time"
)

// DefaultWindow is how long an armed target waits for its second click.
const DefaultWindow = 3 * time.Second

// Confirmer is the idle -> armed(id, deadline) -> idle state machine.
type Confirmer struct {
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	armedID  string
	deadline time.Time
}

func New(window time.Duration) *Confirmer {
	return NewWithClock(window, time.Now)
}

// NewWithClock lets tests control time.
func NewWithClock(window time.Duration, now func() time.Time) *Confirmer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Confirmer{window: window, now: now}
}

func (c *Confirmer) Window() time.Duration {
	return c.window
}

// Click registers a delete click on id. It returns true exactly when this
// click commits: id was already armed and the window has not elapsed.
// Otherwise id becomes the armed target, replacing any other.
func (c *Confirmer) Click(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.armedID == id && now.Before(c.deadline) {
		c.armedID = ""
		c.deadline = time.Time{}
		return true
	}
	c.armedID = id
	c.deadline = now.Add(c.window)
	return false
}

// Armed returns the armed id, disarming first if the window has elapsed.
func (c *Confirmer) Armed() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
	return c.armedID, c.armedID != ""
}

// IsArmed reports whether id is the armed target.
func (c *Confirmer) IsArmed(id string) bool {
	armed, ok := c.Armed()
	return ok && armed == id
}

// Remaining is the time left on the armed target, or zero.
func (c *Confirmer) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
	if c.armedID == "" {
		return 0
	}
	return c.deadline.Sub(c.now())
}

// Expire disarms id if its window has elapsed. Timer callbacks use it so a
// stale tick never disarms a target that was re-armed since.
func (c *Confirmer) Expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armedID == id {
		c.expireLocked()
	}
}

func (c *Confirmer) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armedID = ""
	c.deadline = time.Time{}
}

func (c *Confirmer) expireLocked() {
	if c.armedID != "" && !c.now().Before(c.deadline) {
		c.armedID = ""
		c.deadline = time.Time{}
	}
}

// Do clicks id and runs commit when the click confirms. It reports whether
// commit ran.
func (c *Confirmer) Do(id string, commit func() error) (bool, error) {
	if !c.Click(id) {
		return false, nil
	}
	return true, commit()
}
