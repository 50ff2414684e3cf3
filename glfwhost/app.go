// Package glfwhost runs hosts in glfw windows. Every window is a panel with
// its own Host, and all of them render with one shared device.
package glfwhost

import (
	"context"
	"errors"
	"fmt"
	"time"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goglhost/compositor"
	"github.com/richinsley/goglhost/device"
	"github.com/richinsley/goglhost/glfwcontext"
	"github.com/richinsley/goglhost/graphics"
	"github.com/richinsley/goglhost/host"
	"github.com/richinsley/goglhost/renderer"
	log "github.com/sirupsen/logrus"
)

// DefaultPollInterval bounds how long the event loop waits for input between
// two compositor ticks.
const DefaultPollInterval = 4 * time.Millisecond

// GameFactory creates the game of the index-th panel.
type GameFactory func(index int) host.Game

// PanelConfig describes a window to open.
type PanelConfig struct {
	Title  string
	Width  int
	Height int
	// Design opens the panel in design mode, where its host stays inert.
	Design bool
	// Options are passed to the panel's host.
	Options []host.Option
}

// App owns the glfw windows, the compositor driving them and the registry of
// the device they share.
type App struct {
	root     *glfwcontext.Context
	registry *device.Registry
	frames   *compositor.Compositor
	newGame  GameFactory
	poll     time.Duration

	panels  []*Panel
	opened  int
	pending []PanelConfig

	// template for panels opened with the N key
	template PanelConfig
}

// NewApp creates the application. glfw must already be initialized on the
// calling thread, and every method must be called from it.
func NewApp(newGame GameFactory, params device.Parameters) (*App, error) {
	// every device and window shares objects with the root context
	root, err := glfwcontext.NewDevice(nil)
	if err != nil {
		return nil, err
	}
	a := &App{
		root:    root,
		frames:  compositor.New(),
		newGame: newGame,
		poll:    DefaultPollInterval,
	}
	a.registry = device.NewRegistry(renderer.NewFactory(func() (graphics.Context, error) {
		return glfwcontext.NewDevice(root)
	}), device.WithParameters(params))
	return a, nil
}

// Registry returns the registry of the shared device.
func (a *App) Registry() *device.Registry {
	return a.registry
}

// SetPollInterval changes how long the loop waits for events.
func (a *App) SetPollInterval(d time.Duration) {
	a.poll = d
}

// OpenPanel opens a window and attaches a new host to it. A failing attach
// leaves the window open with its host paused.
func (a *App) OpenPanel(cfg PanelConfig) (*Panel, error) {
	if a.template.Width == 0 {
		a.template = cfg
	}
	win, err := glfwcontext.NewWindow(cfg.Title, cfg.Width, cfg.Height, a.root)
	if err != nil {
		return nil, err
	}

	index := a.opened
	a.opened++
	p := newPanel(a, win, cfg.Title, cfg.Design)
	win.RegisterKeyCallback(glfw.KeyN, func() {
		next := a.template
		next.Title = fmt.Sprintf("%s #%d", a.template.Title, a.opened+len(a.pending)+1)
		a.pending = append(a.pending, next)
	})

	entry := log.WithFields(log.Fields{"panel": cfg.Title})
	opts := append([]host.Option{host.WithLogger(entry)}, cfg.Options...)
	p.host = host.New(p, a.registry, a.newGame(index), opts...)
	a.panels = append(a.panels, p)

	if err := p.host.Attach(); err != nil {
		if errors.Is(err, host.ErrInitialize) {
			return p, err
		}
		return p, fmt.Errorf("glfwhost: attach %q: %w", cfg.Title, err)
	}
	return p, nil
}

// Panels returns the open panels.
func (a *App) Panels() []*Panel {
	return a.panels
}

// Run dispatches events and compositor ticks until every panel is closed
// or ctx is done. Panels still open when it returns are closed.
func (a *App) Run(ctx context.Context) error {
	defer a.closeAll()
	start := glfwcontext.Time()

	for len(a.panels) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		glfw.WaitEventsTimeout(a.poll.Seconds())
		a.frames.Tick(timestamp(glfwcontext.Time() - start))
		a.reap()
		a.openPending()
	}
	return nil
}

func (a *App) reap() {
	open := a.panels[:0]
	for _, p := range a.panels {
		if p.win.ShouldClose() {
			log.WithField("panel", p.title).Info("Panel closed")
			p.close()
			continue
		}
		open = append(open, p)
	}
	a.panels = open
}

func (a *App) openPending() {
	pending := a.pending
	a.pending = nil
	for _, cfg := range pending {
		if _, err := a.OpenPanel(cfg); err != nil {
			log.WithError(err).WithField("panel", cfg.Title).Error("Failed to open panel")
		}
	}
}

func (a *App) closeAll() {
	for _, p := range a.panels {
		p.close()
	}
	a.panels = nil
}

// Shutdown closes every panel and the root context.
func (a *App) Shutdown() {
	a.closeAll()
	a.root.Shutdown()
}

// timestamp converts glfw seconds to a compositor timestamp.
func timestamp(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
