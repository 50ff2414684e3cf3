// Package compositor provides the per-frame callback that hosts subscribe to
// while they render. The hosting UI layer calls Tick once per composed frame,
// and may call it again with the same timestamp when it redraws a frame.
package compositor

import (
	"sync"
	"time"
)

// FrameFunc receives the monotonic timestamp of the frame being composed.
type FrameFunc func(timestamp time.Duration)

type subscription struct {
	id uint64
	fn FrameFunc
}

// Compositor dispatches frame callbacks to its subscribers.
type Compositor struct {
	mu     sync.Mutex
	subs   []subscription
	nextID uint64
	last   time.Duration
}

// New creates a compositor with no subscribers.
func New() *Compositor {
	return &Compositor{}
}

// Subscribe registers fn for every subsequent Tick. The returned cancel
// function unregisters it and may be called any number of times.
func (c *Compositor) Subscribe(fn FrameFunc) (cancel func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(id) })
	}
}

func (c *Compositor) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subs {
		if s.id == id {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}

func (c *Compositor) subscribed(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		if s.id == id {
			return true
		}
	}
	return false
}

// Tick dispatches timestamp to the current subscribers in subscription order.
// Subscribers added during dispatch are called from the next Tick on; those
// cancelled during dispatch are not called.
func (c *Compositor) Tick(timestamp time.Duration) {
	c.mu.Lock()
	c.last = timestamp
	snapshot := make([]subscription, len(c.subs))
	copy(snapshot, c.subs)
	c.mu.Unlock()

	for _, s := range snapshot {
		if !c.subscribed(s.id) {
			continue
		}
		s.fn(timestamp)
	}
}

// Redraw repeats the last timestamp, as the UI layer does when it has to
// recompose a frame it already composed (e.g. during a window resize).
func (c *Compositor) Redraw() {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()
	c.Tick(last)
}

// Len returns the number of subscribers.
func (c *Compositor) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
