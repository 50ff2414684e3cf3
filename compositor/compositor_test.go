package compositor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickDispatchesInOrder(t *testing.T) {
	c := New()
	var got []string
	c.Subscribe(func(ts time.Duration) { got = append(got, "a") })
	c.Subscribe(func(ts time.Duration) { got = append(got, "b") })

	c.Tick(time.Second)

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2, c.Len())
}

func TestCancelIsIdempotent(t *testing.T) {
	c := New()
	calls := 0
	cancel := c.Subscribe(func(time.Duration) { calls++ })
	other := c.Subscribe(func(time.Duration) {})

	cancel()
	cancel()
	c.Tick(0)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, c.Len())
	other()
	assert.Equal(t, 0, c.Len())
}

func TestCancelDuringDispatch(t *testing.T) {
	c := New()
	var cancelB func()
	bCalls := 0
	c.Subscribe(func(time.Duration) { cancelB() })
	cancelB = c.Subscribe(func(time.Duration) { bCalls++ })

	c.Tick(0)

	assert.Equal(t, 0, bCalls)
}

func TestSubscribeDuringDispatchStartsNextTick(t *testing.T) {
	c := New()
	lateCalls := 0
	subscribed := false
	c.Subscribe(func(time.Duration) {
		if !subscribed {
			subscribed = true
			c.Subscribe(func(time.Duration) { lateCalls++ })
		}
	})

	c.Tick(0)
	assert.Equal(t, 0, lateCalls)
	c.Tick(time.Millisecond)
	assert.Equal(t, 1, lateCalls)
}

func TestRedrawRepeatsLastTimestamp(t *testing.T) {
	c := New()
	var stamps []time.Duration
	c.Subscribe(func(ts time.Duration) { stamps = append(stamps, ts) })

	c.Tick(40 * time.Millisecond)
	c.Redraw()

	assert.Equal(t, []time.Duration{40 * time.Millisecond, 40 * time.Millisecond}, stamps)
}
