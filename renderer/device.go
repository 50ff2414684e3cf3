// Package renderer implements the shared device on OpenGL.
//
// The device owns a context that is never presented: each back buffer is an
// off-screen framebuffer whose color texture is shared with the contexts
// that display it.
package renderer

import (
	"errors"
	"fmt"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/goglhost/backbuffer"
	"github.com/richinsley/goglhost/device"
	"github.com/richinsley/goglhost/graphics"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrIncompleteFramebuffer is returned when a target's framebuffer fails
	// its completeness check.
	ErrIncompleteFramebuffer = errors.New("renderer: framebuffer is not complete")

	// ErrForeignBackBuffer is returned when a back buffer not allocated by
	// this device is used as a render target.
	ErrForeignBackBuffer = errors.New("renderer: back buffer was not allocated by this device")
)

var glInit struct {
	once sync.Once
	err  error
}

// initGL loads the GL entry points. It needs a current context the first
// time it runs.
func initGL() error {
	glInit.once.Do(func() {
		glInit.err = gl.Init()
	})
	return glInit.err
}

// Device is the OpenGL shared device.
type Device struct {
	ctx        graphics.Context
	params     device.Parameters
	maxSamples int
	target     *Target
}

var _ device.Device = (*Device)(nil)

// NewDevice takes ownership of ctx and initializes GL on it.
func NewDevice(ctx graphics.Context, p device.Parameters) (*Device, error) {
	ctx.MakeCurrent()
	if err := initGL(); err != nil {
		return nil, fmt.Errorf("renderer: init gl: %w", err)
	}

	var maxSamples int32
	gl.GetIntegerv(gl.MAX_SAMPLES, &maxSamples)
	d := &Device{ctx: ctx, maxSamples: int(maxSamples)}

	log.WithFields(log.Fields{
		"version":     gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer":    gl.GoStr(gl.GetString(gl.RENDERER)),
		"max_samples": maxSamples,
	}).Info("OpenGL device ready")

	if err := d.ApplyParameters(p); err != nil {
		return nil, err
	}
	return d, nil
}

// NewFactory returns a device.Factory that creates a fresh context with
// newContext for every device it builds.
func NewFactory(newContext func() (graphics.Context, error)) device.Factory {
	return func(p device.Parameters) (device.Device, error) {
		ctx, err := newContext()
		if err != nil {
			return nil, err
		}
		d, err := NewDevice(ctx, p)
		if err != nil {
			ctx.Shutdown()
			return nil, err
		}
		return d, nil
	}
}

// ClampSamples returns the largest power of two not above requested or
// limit. Counts below 2 mean no multisampling.
func ClampSamples(requested, limit int) int {
	n := min(requested, limit)
	if n < 2 {
		return 0
	}
	s := 1
	for s*2 <= n {
		s *= 2
	}
	return s
}

// Context returns the device's GL context.
func (d *Device) Context() graphics.Context {
	return d.ctx
}

// MaxSamples returns the implementation's GL_MAX_SAMPLES.
func (d *Device) MaxSamples() int {
	return d.maxSamples
}

// MakeCurrent makes the device context current on the calling thread.
func (d *Device) MakeCurrent() {
	d.ctx.MakeCurrent()
}

func (d *Device) NewBackBuffer(desc backbuffer.Descriptor) (backbuffer.BackBuffer, error) {
	t, err := NewTarget(d.ctx, desc, ClampSamples(desc.MultiSampleCount, d.maxSamples))
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"width":   desc.Width,
		"height":  desc.Height,
		"samples": t.Samples(),
	}).Debug("Back buffer allocated")
	return t, nil
}

func (d *Device) SetRenderTarget(bb backbuffer.BackBuffer) error {
	t, ok := bb.(*Target)
	if !ok || t == nil || t.ctx != d.ctx || t.destroyed {
		return ErrForeignBackBuffer
	}
	d.ctx.MakeCurrent()
	t.bind()
	d.target = t
	return nil
}

func (d *Device) Flush() {
	if d.target == nil {
		return
	}
	d.target.resolve()
	gl.Flush()
	d.target = nil
}

// ApplyParameters updates the parameters in place. The multisample count is
// clamped to what the implementation supports.
func (d *Device) ApplyParameters(p device.Parameters) error {
	p.Window = 0
	p.MultiSampleCount = ClampSamples(p.MultiSampleCount, d.maxSamples)
	d.params = p
	return nil
}

func (d *Device) Parameters() device.Parameters {
	return d.params
}

// Destroy destroys the device context.
func (d *Device) Destroy() {
	d.target = nil
	d.ctx.DetachCurrent()
	d.ctx.Shutdown()
	log.Info("OpenGL device destroyed")
}
