package encoder

import (
	"github.com/richinsley/goglhost/backbuffer"
	log "github.com/sirupsen/logrus"
)

// PixelReader is a back buffer whose pixels can be read back to the CPU.
type PixelReader interface {
	ReadPixels(dst []byte) []byte
}

// FrameWriter consumes one frame of raw pixels.
type FrameWriter interface {
	WriteFrame(pixels []byte) error
}

// CaptureBridge is a presentation bridge that publishes every invalidated
// frame to a FrameWriter instead of a window. A failed write makes the front
// buffer unavailable, which pauses the host.
type CaptureBridge struct {
	out       FrameWriter
	bb        backbuffer.BackBuffer
	pixels    []byte
	available bool
	onChange  func(bool)
	err       error
	frames    int
}

// NewCaptureBridge creates a bridge writing to out.
func NewCaptureBridge(out FrameWriter) *CaptureBridge {
	return &CaptureBridge{out: out, available: true}
}

func (c *CaptureBridge) SetBackBuffer(bb backbuffer.BackBuffer) {
	c.bb = bb
}

// Invalidate reads the bound back buffer and writes it out.
func (c *CaptureBridge) Invalidate() {
	if !c.available || c.bb == nil {
		return
	}
	reader, ok := c.bb.(PixelReader)
	if !ok {
		return
	}
	c.pixels = reader.ReadPixels(c.pixels)
	if err := c.out.WriteFrame(c.pixels); err != nil {
		log.WithError(err).Error("Failed to write captured frame")
		c.err = err
		c.setAvailable(false)
		return
	}
	c.frames++
}

func (c *CaptureBridge) IsFrontBufferAvailable() bool {
	return c.available
}

func (c *CaptureBridge) OnFrontBufferAvailableChanged(fn func(available bool)) {
	c.onChange = fn
}

func (c *CaptureBridge) setAvailable(available bool) {
	if c.available == available {
		return
	}
	c.available = available
	if c.onChange != nil {
		c.onChange(available)
	}
}

// Destroy drops the bound back buffer reference.
func (c *CaptureBridge) Destroy() {
	c.bb = nil
	c.onChange = nil
}

// Err returns the write error that stopped the capture, if any.
func (c *CaptureBridge) Err() error {
	return c.err
}

// Frames returns the number of frames written.
func (c *CaptureBridge) Frames() int {
	return c.frames
}
