package device

import (
	"github.com/richinsley/goglhost/backbuffer"
)

// Parameters are the device-level presentation parameters.
type Parameters struct {
	BackBufferWidth  int
	BackBufferHeight int
	MultiSampleCount int
	// Window is the native window the device presents to. The shared device
	// is surfaceless, so this is always 0.
	Window uintptr
}

// Device is the GPU device shared by every host in the process.
type Device interface {
	backbuffer.Allocator

	// SetRenderTarget makes bb the target of subsequent draw calls.
	SetRenderTarget(bb backbuffer.BackBuffer) error

	// Flush submits pending GPU work for the current render target.
	Flush()

	// ApplyParameters updates the device parameters in place. The device
	// identity is never discarded.
	ApplyParameters(p Parameters) error

	// Parameters returns the effective parameters.
	Parameters() Parameters

	Destroy()
}

// Factory constructs the shared device.
type Factory func(p Parameters) (Device, error)
