// Package pacer turns an irregular per-frame callback into a bounded render
// rate.
//
// The callback source cannot be controlled: it may fire faster than the
// target rate, and it may repeat a timestamp for the same logical frame.
// Pacing is therefore measured against the last accepted timestamp, not the
// last callback, so the rate does not drift.
package pacer

import "time"

// DefaultTargetElapsedTime is the default time between two renders (60 fps).
const DefaultTargetElapsedTime = 16 * time.Millisecond

// Decision is the outcome of one frame callback.
type Decision struct {
	// Render reports whether the frame should be drawn.
	Render bool
	// Forced is set for renders that bypass the rate limit: the bootstrap
	// frame and the frame after a back buffer reset.
	Forced bool
	// Delta is the simulation time elapsed since the last accepted frame.
	Delta time.Duration
}

// Pacer decides which frame callbacks render.
type Pacer struct {
	target time.Duration
	last   time.Duration
	primed bool
}

// New returns a pacer targeting one render per target.
func New(target time.Duration) *Pacer {
	return &Pacer{target: target}
}

// Target returns the minimum time between two accepted frames.
func (p *Pacer) Target() time.Duration {
	return p.target
}

// SetTarget changes the minimum time between two accepted frames.
func (p *Pacer) SetTarget(target time.Duration) {
	p.target = target
}

// Last returns the timestamp of the last accepted frame.
func (p *Pacer) Last() time.Duration {
	return p.last
}

// Next evaluates the frame callback at timestamp. reset reports whether the
// back buffer was recreated during this callback.
func (p *Pacer) Next(timestamp time.Duration, reset bool) Decision {
	if !p.primed {
		p.primed = true
		p.last = timestamp
		return Decision{Render: true, Forced: true}
	}

	if timestamp == p.last {
		// repeated callback for the same frame; a fresh buffer must not stay blank
		if reset {
			return Decision{Render: true, Forced: true}
		}
		return Decision{}
	}

	delta := timestamp - p.last
	if delta < p.target {
		return Decision{}
	}
	p.last = timestamp
	return Decision{Render: true, Delta: delta}
}
