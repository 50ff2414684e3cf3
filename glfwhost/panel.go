package glfwhost

import (
	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goglhost/backbuffer"
	"github.com/richinsley/goglhost/glfwcontext"
	"github.com/richinsley/goglhost/host"
)

// Panel is a glfw window hosting one Host.
type Panel struct {
	app    *App
	win    *glfwcontext.Context
	title  string
	design bool
	host   *host.Host
	bridge *windowBridge
	closed bool
}

var _ host.Panel = (*Panel)(nil)

func newPanel(app *App, win *glfwcontext.Context, title string, design bool) *Panel {
	p := &Panel{app: app, win: win, title: title, design: design}
	w := win.Window()
	w.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		if p.bridge != nil {
			p.bridge.setAvailable(!iconified)
		}
	})
	w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if p.host != nil {
			p.host.SizeChanged(float64(width), float64(height))
		}
	})
	// the compositor recomposes on refresh, e.g. while the window is resized
	w.SetRefreshCallback(func(_ *glfw.Window) {
		app.frames.Redraw()
	})
	return p
}

// Size returns the framebuffer size in pixels.
func (p *Panel) Size() (width, height float64) {
	w, h := p.win.GetFramebufferSize()
	return float64(w), float64(h)
}

func (p *Panel) DesignMode() bool {
	return p.design
}

func (p *Panel) Frames() host.FrameSource {
	return p.app.frames
}

// NewBridge creates the window's presentation bridge.
func (p *Panel) NewBridge() (backbuffer.Bridge, error) {
	b, err := newWindowBridge(p.win)
	if err != nil {
		return nil, err
	}
	p.bridge = b
	return b, nil
}

// Host returns the panel's host.
func (p *Panel) Host() *host.Host {
	return p.host
}

func (p *Panel) Title() string {
	return p.title
}

// close detaches the host and destroys the window.
func (p *Panel) close() {
	if p.closed {
		return
	}
	p.closed = true
	p.host.Detach()
	p.win.Shutdown()
}
