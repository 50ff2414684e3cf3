package pacer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const ms = time.Millisecond

func TestBootstrapAndThrottle(t *testing.T) {
	p := New(16 * ms)

	assert.Equal(t, Decision{Render: true, Forced: true}, p.Next(0, false))
	assert.Equal(t, Decision{}, p.Next(10*ms, false))
	assert.Equal(t, Decision{Render: true, Delta: 18 * ms}, p.Next(18*ms, false))
	assert.Equal(t, Decision{Render: true, Delta: 22 * ms}, p.Next(40*ms, false))
	assert.Equal(t, 40*ms, p.Last())
}

func TestAlternatingGapsMeasureFromLastAccepted(t *testing.T) {
	p := New(16 * ms)
	p.Next(0, false)

	var rendered []time.Duration
	var deltas []time.Duration
	ts := time.Duration(0)
	for _, gap := range []time.Duration{5, 20, 7, 9, 16, 3, 30} {
		ts += gap * ms
		d := p.Next(ts, false)
		if d.Render {
			rendered = append(rendered, ts)
			deltas = append(deltas, d.Delta)
		}
	}

	// 5 -> 25 (Δ25) -> 32 skip -> 41 (Δ16) -> 57 (Δ16) -> 60 skip -> 90 (Δ33)
	assert.Equal(t, []time.Duration{25 * ms, 41 * ms, 57 * ms, 90 * ms}, rendered)
	assert.Equal(t, []time.Duration{25 * ms, 16 * ms, 16 * ms, 33 * ms}, deltas)
}

func TestSkippedFramesDoNotMoveBaseline(t *testing.T) {
	p := New(16 * ms)
	p.Next(100*ms, false)

	for ts := 101 * ms; ts < 116*ms; ts += ms {
		assert.False(t, p.Next(ts, false).Render)
	}
	assert.Equal(t, 100*ms, p.Last())

	d := p.Next(116*ms, false)
	assert.True(t, d.Render)
	assert.Equal(t, 16*ms, d.Delta)
}

func TestDuplicateTimestamp(t *testing.T) {
	p := New(16 * ms)
	p.Next(0, false)
	assert.True(t, p.Next(20*ms, false).Render)

	assert.Equal(t, Decision{}, p.Next(20*ms, false))
	assert.Equal(t, Decision{}, p.Next(20*ms, false))
}

func TestDuplicateTimestampAfterReset(t *testing.T) {
	p := New(16 * ms)
	p.Next(0, false)
	p.Next(20*ms, false)

	d := p.Next(20*ms, true)
	assert.Equal(t, Decision{Render: true, Forced: true}, d)
	assert.Equal(t, 20*ms, p.Last())

	// the next regular frame still measures from the accepted baseline
	assert.False(t, p.Next(30*ms, false).Render)
	assert.Equal(t, Decision{Render: true, Delta: 16 * ms}, p.Next(36*ms, false))
}

func TestResetDoesNotBypassRateLimitOnNewTimestamp(t *testing.T) {
	p := New(16 * ms)
	p.Next(0, false)

	assert.False(t, p.Next(5*ms, true).Render)
}

func TestSetTarget(t *testing.T) {
	p := New(DefaultTargetElapsedTime)
	p.SetTarget(33 * ms)
	p.Next(0, false)

	assert.Equal(t, 33*ms, p.Target())
	assert.False(t, p.Next(20*ms, false).Render)
	assert.True(t, p.Next(33*ms, false).Render)
}
