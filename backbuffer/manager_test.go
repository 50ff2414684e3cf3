package backbuffer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuffer struct {
	id        int
	w, h      int
	destroyed int
	events    *[]string
}

func (b *fakeBuffer) Width() int  { return b.w }
func (b *fakeBuffer) Height() int { return b.h }
func (b *fakeBuffer) Destroy() {
	b.destroyed++
	*b.events = append(*b.events, fmt.Sprintf("destroy %d", b.id))
}

type fakeAllocator struct {
	events []string
	descs  []Descriptor
	err    error
	n      int
}

func (a *fakeAllocator) NewBackBuffer(desc Descriptor) (BackBuffer, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.n++
	a.descs = append(a.descs, desc)
	a.events = append(a.events, fmt.Sprintf("alloc %d %dx%d", a.n, desc.Width, desc.Height))
	return &fakeBuffer{id: a.n, w: desc.Width, h: desc.Height, events: &a.events}, nil
}

type fakeBridge struct {
	events *[]string
	bound  BackBuffer
}

func (b *fakeBridge) SetBackBuffer(bb BackBuffer) {
	b.bound = bb
	if bb == nil {
		*b.events = append(*b.events, "unbind")
		return
	}
	*b.events = append(*b.events, fmt.Sprintf("bind %d", bb.(*fakeBuffer).id))
}
func (b *fakeBridge) Invalidate()                                 {}
func (b *fakeBridge) IsFrontBufferAvailable() bool                { return true }
func (b *fakeBridge) OnFrontBufferAvailableChanged(func(bool))    {}
func (b *fakeBridge) Destroy()                                    {}

func newTestManager() (*Manager, *fakeAllocator, *fakeBridge) {
	alloc := &fakeAllocator{}
	bridge := &fakeBridge{events: &alloc.events}
	return NewManager(alloc, bridge), alloc, bridge
}

func TestRecreateReplacesBuffer(t *testing.T) {
	m, alloc, bridge := newTestManager()

	require.NoError(t, m.Recreate(640, 480))
	require.NoError(t, m.Recreate(800, 600))

	assert.Equal(t, []string{
		"unbind", "alloc 1 640x480", "bind 1",
		"unbind", "destroy 1", "alloc 2 800x600", "bind 2",
	}, alloc.events)
	assert.Same(t, m.Current(), bridge.bound)
	assert.Equal(t, 800, m.Current().Width())
	assert.Equal(t, 2, m.Generation())
}

func TestRecreateClampsToOnePixel(t *testing.T) {
	m, alloc, _ := newTestManager()

	require.NoError(t, m.Recreate(0, -5))
	require.Len(t, alloc.descs, 1)
	assert.Equal(t, 1, alloc.descs[0].Width)
	assert.Equal(t, 1, alloc.descs[0].Height)
}

func TestRecreateDescriptor(t *testing.T) {
	m, alloc, _ := newTestManager()
	m.SetMultiSampleCount(4)

	require.NoError(t, m.Recreate(10, 20))
	assert.Equal(t, Descriptor{
		Width:            10,
		Height:           20,
		Format:           FormatBGRX8,
		DepthStencil:     DepthStencil24S8,
		Usage:            UsageDiscardContents,
		MultiSampleCount: 4,
		Shared:           true,
	}, alloc.descs[0])
}

func TestRecreateAllocationFailure(t *testing.T) {
	m, alloc, bridge := newTestManager()
	require.NoError(t, m.Recreate(10, 10))
	first := m.Current().(*fakeBuffer)

	outOfMemory := errors.New("out of video memory")
	alloc.err = outOfMemory
	err := m.Recreate(20, 20)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllocate))
	assert.True(t, errors.Is(err, outOfMemory))
	assert.Nil(t, m.Current())
	assert.Nil(t, bridge.bound)
	assert.Equal(t, 1, first.destroyed)
}

func TestDestroyIsIdempotent(t *testing.T) {
	m, _, bridge := newTestManager()
	require.NoError(t, m.Recreate(10, 10))
	bb := m.Current().(*fakeBuffer)

	m.Destroy()
	m.Destroy()

	assert.Equal(t, 1, bb.destroyed)
	assert.Nil(t, bridge.bound)
	assert.Nil(t, m.Current())
}
