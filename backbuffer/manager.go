package backbuffer

import (
	"fmt"
)

// Manager owns a host's back buffer and keeps it bound into the host's
// presentation bridge. Every recreation replaces the buffer, it is never
// resized in place.
type Manager struct {
	alloc      Allocator
	bridge     Bridge
	current    BackBuffer
	samples    int
	generation int
}

// NewManager creates a manager that allocates from alloc and publishes into bridge.
func NewManager(alloc Allocator, bridge Bridge) *Manager {
	return &Manager{
		alloc:  alloc,
		bridge: bridge,
	}
}

// SetMultiSampleCount sets the sample count used by the next Recreate.
func (m *Manager) SetMultiSampleCount(samples int) {
	if samples < 0 {
		samples = 0
	}
	m.samples = samples
}

// MultiSampleCount returns the sample count used for allocations.
func (m *Manager) MultiSampleCount() int {
	return m.samples
}

// Recreate unbinds and destroys the current back buffer and allocates a new
// one of the given size, clamped to at least 1x1, then binds it into the bridge.
func (m *Manager) Recreate(width, height int) error {
	m.bridge.SetBackBuffer(nil)
	if m.current != nil {
		m.current.Destroy()
		m.current = nil
	}

	desc := Descriptor{
		Width:            max(width, 1),
		Height:           max(height, 1),
		Format:           FormatBGRX8,
		DepthStencil:     DepthStencil24S8,
		Usage:            UsageDiscardContents,
		MultiSampleCount: m.samples,
		Shared:           true,
	}
	bb, err := m.alloc.NewBackBuffer(desc)
	if err != nil {
		return fmt.Errorf("%w: %dx%d: %w", ErrAllocate, desc.Width, desc.Height, err)
	}

	m.current = bb
	m.generation++
	m.bridge.SetBackBuffer(bb)
	return nil
}

// Current returns the bound back buffer, or nil before the first Recreate.
func (m *Manager) Current() BackBuffer {
	return m.current
}

// Generation returns how many back buffers have been allocated so far.
func (m *Manager) Generation() int {
	return m.generation
}

// Destroy unbinds and destroys the current back buffer. It is safe to call
// more than once.
func (m *Manager) Destroy() {
	if m.current == nil {
		return
	}
	m.bridge.SetBackBuffer(nil)
	m.current.Destroy()
	m.current = nil
}
