package glfwhost

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goglhost/backbuffer"
	"github.com/richinsley/goglhost/glfwcontext"
	"github.com/richinsley/goglhost/renderer"
	"github.com/richinsley/goglhost/shader"
	log "github.com/sirupsen/logrus"
)

// windowBridge presents a back buffer in a glfw window by drawing its shared
// color texture on a fullscreen quad and swapping.
type windowBridge struct {
	win     *glfwcontext.Context
	program uint32
	texLoc  int32
	quad    *renderer.Quad

	bb        backbuffer.BackBuffer
	available bool
	onChange  func(bool)
}

func newWindowBridge(win *glfwcontext.Context) (*windowBridge, error) {
	win.MakeCurrent()
	program, err := renderer.NewProgram(
		shader.VertexShader(),
		shader.BlitShader(),
	)
	if err != nil {
		return nil, fmt.Errorf("glfwhost: blit program: %w", err)
	}
	return &windowBridge{
		win:       win,
		program:   program,
		texLoc:    renderer.UniformLocation(program, "u_texture"),
		quad:      renderer.NewQuad(),
		available: win.Window().GetAttrib(glfw.Iconified) != glfw.True,
	}, nil
}

func (b *windowBridge) SetBackBuffer(bb backbuffer.BackBuffer) {
	b.bb = bb
}

// Invalidate draws the bound back buffer into the window and swaps.
func (b *windowBridge) Invalidate() {
	if !b.available || b.program == 0 {
		return
	}
	target, ok := b.bb.(*renderer.Target)
	if !ok {
		return
	}

	b.win.MakeCurrent()
	target.WaitRendered()
	w, h := b.win.GetFramebufferSize()
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(b.program)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, target.Texture())
	gl.Uniform1i(b.texLoc, 0)
	b.quad.Draw()
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
	b.win.SwapBuffers()
}

func (b *windowBridge) IsFrontBufferAvailable() bool {
	return b.available
}

func (b *windowBridge) OnFrontBufferAvailableChanged(fn func(available bool)) {
	b.onChange = fn
}

func (b *windowBridge) setAvailable(available bool) {
	if b.available == available {
		return
	}
	log.WithField("available", available).Debug("Front buffer availability changed")
	b.available = available
	if b.onChange != nil {
		b.onChange(available)
	}
}

// Destroy deletes the window's blit objects. The window itself belongs to
// the panel.
func (b *windowBridge) Destroy() {
	if b.program == 0 {
		return
	}
	b.win.MakeCurrent()
	b.quad.Destroy()
	gl.DeleteProgram(b.program)
	b.program = 0
	b.bb = nil
	b.onChange = nil
}
