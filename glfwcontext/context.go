package glfwcontext

import (
	"fmt"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	log "github.com/sirupsen/logrus"
)

// Context wraps a glfw window and its OpenGL context.
type Context struct {
	window       *glfw.Window
	keyCallbacks map[glfw.Key]func()
}

func windowHints() {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
}

// NewDevice creates a context that is never presented: a hidden 1x1 window
// whose default framebuffer is never drawn to. A non-nil share puts it in the
// same object share group.
func NewDevice(share *Context) (*Context, error) {
	windowHints()
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	var shared *glfw.Window
	if share != nil {
		shared = share.window
	}
	win, err := glfw.CreateWindow(1, 1, "goglhost device", nil, shared)
	if err != nil {
		return nil, fmt.Errorf("glfwcontext: create device window: %w", err)
	}
	return &Context{window: win, keyCallbacks: make(map[glfw.Key]func())}, nil
}

// NewWindow creates a visible, resizable window whose context shares objects
// with share, so textures rendered on the device can be sampled here.
func NewWindow(title string, width, height int, share *Context) (*Context, error) {
	windowHints()
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	var shared *glfw.Window
	if share != nil {
		shared = share.window
	}
	win, err := glfw.CreateWindow(width, height, title, nil, shared)
	if err != nil {
		return nil, fmt.Errorf("glfwcontext: create window %q: %w", title, err)
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.SetKeyCallback(c.glfwKeyCallback)

	// every window presents from the same thread, vsync would serialize them
	win.MakeContextCurrent()
	glfw.SwapInterval(0)
	return c, nil
}

// RegisterKeyCallback registers f to run when key is pressed in this window.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if key == glfw.KeyEscape {
		w.SetShouldClose(true)
	}
	if callback, ok := c.keyCallbacks[key]; ok {
		callback()
	}
}

// MakeCurrent makes the context current on the calling thread.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// DetachCurrent makes no context current on the calling thread.
func (c *Context) DetachCurrent() {
	glfw.DetachCurrentContext()
}

// Shutdown destroys the window and its context.
func (c *Context) Shutdown() {
	if c.window == nil {
		return
	}
	c.window.Destroy()
	c.window = nil
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) SwapBuffers() {
	c.window.SwapBuffers()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

// Window returns the underlying glfw window.
func (c *Context) Window() *glfw.Window {
	return c.window
}

// InitGraphics initializes glfw. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Debug("GLFW initialized")
	return nil
}

// TerminateGraphics shuts glfw down. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Debug("GLFW terminated")
}

// Time returns the glfw monotonic clock in seconds.
func Time() float64 {
	return glfw.GetTime()
}
