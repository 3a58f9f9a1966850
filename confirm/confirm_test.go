// ABOUTME: Tests for two-phase delete confirmation timing
// ABOUTME: Uses a fake clock so window edges are exact
package confirm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestConfirmer() (*Confirmer, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewWithClock(DefaultWindow, clock.Now), clock
}

func TestSingleClickNeverDeletes(t *testing.T) {
	c, _ := newTestConfirmer()
	deletes := 0

	committed, err := c.Do("item-1", func() error { deletes++; return nil })
	assert.NoError(t, err)
	assert.False(t, committed)
	assert.Equal(t, 0, deletes)
	assert.True(t, c.IsArmed("item-1"))
}

func TestSecondClickWithinWindowDeletesOnce(t *testing.T) {
	c, clock := newTestConfirmer()
	deletes := 0
	del := func() error { deletes++; return nil }

	_, _ = c.Do("item-1", del)
	clock.Advance(2999 * time.Millisecond)
	committed, _ := c.Do("item-1", del)
	assert.True(t, committed)
	assert.Equal(t, 1, deletes)

	// a third click starts over
	committed, _ = c.Do("item-1", del)
	assert.False(t, committed)
	assert.Equal(t, 1, deletes)
}

func TestWindowElapsedDisarms(t *testing.T) {
	c, clock := newTestConfirmer()
	assert.False(t, c.Click("item-1"))

	clock.Advance(DefaultWindow)
	_, armed := c.Armed()
	assert.False(t, armed)
	assert.Zero(t, c.Remaining())

	// a late second click only re-arms
	assert.False(t, c.Click("item-1"))
	assert.True(t, c.IsArmed("item-1"))
}

func TestClickingAnotherIDRearms(t *testing.T) {
	c, clock := newTestConfirmer()
	assert.False(t, c.Click("a"))
	clock.Advance(time.Second)
	assert.False(t, c.Click("b"))
	assert.False(t, c.IsArmed("a"))
	assert.True(t, c.IsArmed("b"))
	assert.Equal(t, DefaultWindow, c.Remaining())

	assert.False(t, c.Click("a"))
	assert.True(t, c.IsArmed("a"))
}

func TestExpireIgnoresRearmedTarget(t *testing.T) {
	c, clock := newTestConfirmer()
	c.Click("a")
	clock.Advance(2 * time.Second)
	c.Click("b")
	clock.Advance(2 * time.Second)

	// the tick from arming "a" fires; "b" still has a second left
	c.Expire("a")
	c.Expire("b")
	assert.True(t, c.IsArmed("b"))

	c.Disarm()
	_, armed := c.Armed()
	assert.False(t, armed)
}
