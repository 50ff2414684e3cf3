package backbuffer

import "errors"

// ErrAllocate is returned when the device cannot allocate a back buffer.
var ErrAllocate = errors.New("backbuffer: allocation failed")

// Format is the color format of a back buffer.
type Format int

const (
	// FormatBGRX8 is 32 bit color with an unused alpha channel. It is the
	// format the presentation bridges blit from.
	FormatBGRX8 Format = iota
	FormatRGBA8
)

// DepthStencil is the depth/stencil attachment paired with the color target.
type DepthStencil int

const (
	DepthStencilNone DepthStencil = iota
	DepthStencil24S8
)

// Usage hints how the contents of a back buffer are treated between frames.
type Usage int

const (
	// UsageDiscardContents means contents need not persist between frames.
	UsageDiscardContents Usage = iota
	UsagePreserveContents
)

// Descriptor describes an off-screen render target to allocate.
type Descriptor struct {
	Width            int
	Height           int
	Format           Format
	DepthStencil     DepthStencil
	Usage            Usage
	MultiSampleCount int
	// Shared marks the target as readable from contexts sharing the device.
	Shared bool
}

// BackBuffer is an off-screen render target owned by exactly one host.
type BackBuffer interface {
	Width() int
	Height() int
	Destroy()
}

// Allocator creates back buffers. The shared device implements it.
type Allocator interface {
	NewBackBuffer(desc Descriptor) (BackBuffer, error)
}

// Bridge is the surface a host publishes to the compositor. It holds at most
// one back buffer at a time.
type Bridge interface {
	// SetBackBuffer binds bb as the published surface. nil unbinds.
	SetBackBuffer(bb BackBuffer)

	// Invalidate publishes the currently bound back buffer.
	Invalidate()

	// IsFrontBufferAvailable reports whether the compositor can currently
	// present this bridge.
	IsFrontBufferAvailable() bool

	// OnFrontBufferAvailableChanged registers fn to be called whenever the
	// front buffer availability flips. A nil fn clears the registration.
	OnFrontBufferAvailableChanged(fn func(available bool))

	// Destroy releases the bridge. It does not destroy the bound back buffer.
	Destroy()
}
