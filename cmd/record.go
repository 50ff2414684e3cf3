package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richinsley/goglhost/api"
	"github.com/richinsley/goglhost/backbuffer"
	"github.com/richinsley/goglhost/compositor"
	"github.com/richinsley/goglhost/device"
	"github.com/richinsley/goglhost/encoder"
	"github.com/richinsley/goglhost/glfwcontext"
	"github.com/richinsley/goglhost/graphics"
	"github.com/richinsley/goglhost/headless"
	"github.com/richinsley/goglhost/host"
	"github.com/richinsley/goglhost/options"
	"github.com/richinsley/goglhost/renderer"
	"github.com/richinsley/goglhost/scene"
	log "github.com/sirupsen/logrus"
)

// recordPanel is a fixed size panel presenting into a capture bridge.
type recordPanel struct {
	width, height int
	frames        *compositor.Compositor
	bridge        *encoder.CaptureBridge
}

func (p *recordPanel) Size() (float64, float64) {
	return float64(p.width), float64(p.height)
}

func (p *recordPanel) DesignMode() bool                      { return false }
func (p *recordPanel) Frames() host.FrameSource              { return p.frames }
func (p *recordPanel) NewBridge() (backbuffer.Bridge, error) { return p.bridge, nil }

// runRecord renders one panel for opts.Duration seconds of frame time and
// encodes every published frame.
func runRecord(ctx context.Context, opts *options.Options, shaderArgs *api.ShaderArgs) error {
	newContext := func() (graphics.Context, error) {
		return headless.NewHeadless()
	}
	if !opts.Headless {
		if err := glfwcontext.InitGraphics(); err != nil {
			return fmt.Errorf("init glfw: %w", err)
		}
		defer glfwcontext.TerminateGraphics()
		newContext = func() (graphics.Context, error) {
			return glfwcontext.NewDevice(nil)
		}
	}
	registry := device.NewRegistry(renderer.NewFactory(newContext))

	rec, err := encoder.NewRecorder(ctx, encoder.Config{
		Width:      opts.Width,
		Height:     opts.Height,
		FPS:        opts.FPS,
		OutputFile: opts.OutputFile,
		Codec:      opts.Codec,
		HWAccel:    opts.HWAccel,
		FFMPEGPath: opts.FFMPEGPath,
	})
	if err != nil {
		return err
	}

	panel := &recordPanel{
		width:  opts.Width,
		height: opts.Height,
		frames: compositor.New(),
		bridge: encoder.NewCaptureBridge(rec),
	}
	interval := options.FrameInterval(opts.FPS)
	var hostErr error
	h := host.New(panel, registry, scene.NewShaderScene(shaderArgs, opts.MultiSampling),
		host.WithTargetElapsedTime(interval),
		host.WithErrorHandler(func(err error) { hostErr = err }),
	)
	if err := h.Attach(); err != nil {
		h.Detach()
		return errors.Join(err, rec.Close())
	}

	total := int(opts.Duration * float64(opts.FPS))
	logger := log.WithFields(log.Fields{"frames": total, "output": opts.OutputFile})
	logger.Info("Recording")
	start := time.Now()

	for i := 0; i < total && h.IsRendering(); i++ {
		if ctx.Err() != nil {
			break
		}
		panel.frames.Tick(time.Duration(i) * interval)
	}

	h.Detach()
	closeErr := rec.Close()
	logger.WithFields(log.Fields{
		"written": panel.bridge.Frames(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("Recording done")
	return errors.Join(ctx.Err(), panel.bridge.Err(), hostErr, closeErr)
}
