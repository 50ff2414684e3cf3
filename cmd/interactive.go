package main

import (
	"context"
	"fmt"

	"github.com/richinsley/goglhost/api"
	"github.com/richinsley/goglhost/device"
	"github.com/richinsley/goglhost/glfwcontext"
	"github.com/richinsley/goglhost/glfwhost"
	"github.com/richinsley/goglhost/host"
	"github.com/richinsley/goglhost/options"
	"github.com/richinsley/goglhost/scene"
	log "github.com/sirupsen/logrus"
)

// runInteractive opens opts.Panels windows sharing one device. Odd panels
// show the lifecycle counter, the others the shader. N opens one more panel.
func runInteractive(ctx context.Context, opts *options.Options, shaderArgs *api.ShaderArgs) error {
	if err := glfwcontext.InitGraphics(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfwcontext.TerminateGraphics()

	counts := &scene.Counts{}
	newGame := func(index int) host.Game {
		if index%2 == 1 {
			return scene.NewCounter(counts)
		}
		return scene.NewShaderScene(shaderArgs, opts.MultiSampling)
	}

	app, err := glfwhost.NewApp(newGame, device.Parameters{})
	if err != nil {
		return err
	}
	defer app.Shutdown()

	title := "goglhost"
	if shaderArgs != nil && shaderArgs.Title != "" {
		title = shaderArgs.Title
	}

	for i := 0; i < opts.Panels; i++ {
		fps := opts.SecondaryFPS
		if i == 0 {
			fps = opts.FPS
		}
		cfg := glfwhost.PanelConfig{
			Title:  fmt.Sprintf("%s %d", title, i+1),
			Width:  opts.Width,
			Height: opts.Height,
			Design: opts.Design,
			Options: []host.Option{
				host.WithTargetElapsedTime(options.FrameInterval(fps)),
				host.WithErrorHandler(func(err error) {
					log.WithError(err).WithField("panel", i+1).Error("Panel failed")
				}),
			},
		}
		if _, err := app.OpenPanel(cfg); err != nil {
			log.WithError(err).WithField("panel", cfg.Title).Error("Panel did not start")
		}
	}

	err = app.Run(ctx)
	log.WithFields(log.Fields{
		"initialize": counts.Initialize,
		"dispose":    counts.Dispose,
		"renders":    counts.Render,
	}).Info("Counter panels finished")
	return err
}
