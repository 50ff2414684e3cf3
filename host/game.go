package host

import (
	"time"

	"github.com/richinsley/goglhost/backbuffer"
	"github.com/richinsley/goglhost/compositor"
)

// GameTime is passed to Render for every accepted frame.
type GameTime struct {
	// Total is the timestamp of the frame.
	Total time.Duration
	// Elapsed is the time since the previous accepted frame. It is zero for
	// forced frames.
	Elapsed time.Duration
}

// Game holds the content hooks a Host drives.
type Game interface {
	// Initialize is called once, after the shared device has been acquired
	// and the first back buffer allocated. Returning an error keeps the host
	// from ever rendering.
	Initialize(h *Host) error

	// Render draws one frame into the host's back buffer.
	Render(t GameTime)

	// Dispose releases the game's resources. disposing is true when called
	// from an explicit teardown.
	Dispose(disposing bool)
}

// FrameSource is the UI layer's per-frame callback.
type FrameSource interface {
	Subscribe(fn compositor.FrameFunc) (cancel func())
}

// Panel is the UI element a Host is embedded in.
type Panel interface {
	// Size returns the current layout size.
	Size() (width, height float64)

	// DesignMode reports whether the panel is hosted by a design-time
	// previewer, in which case the host stays inert.
	DesignMode() bool

	Frames() FrameSource

	// NewBridge creates the surface the host publishes its back buffer to.
	NewBridge() (backbuffer.Bridge, error)
}
