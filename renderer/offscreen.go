package renderer

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/goglhost/backbuffer"
	"github.com/richinsley/goglhost/graphics"
)

// Target is an off-screen back buffer: a framebuffer with a color texture and
// an optional packed depth/stencil renderbuffer. With multisampling the
// scene is drawn into a multisampled framebuffer and resolved into the
// texture on Flush.
//
// Every method except Width, Height and Texture makes the device context
// current.
type Target struct {
	ctx     graphics.Context
	desc    backbuffer.Descriptor
	samples int

	fbo          uint32
	colorTexture uint32
	depthStencil uint32

	msaaFbo          uint32
	msaaColor        uint32
	msaaDepthStencil uint32

	fence     uintptr
	destroyed bool
}

var _ backbuffer.BackBuffer = (*Target)(nil)

// textureFormat maps a back buffer format to the internal format, pixel
// format and pixel type used for storage and readback.
func textureFormat(f backbuffer.Format) (internal int32, format uint32, pixelType uint32) {
	switch f {
	case backbuffer.FormatRGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	default:
		// BGRX is stored as RGBA8 and swizzled on readback
		return gl.RGBA8, gl.BGRA, gl.UNSIGNED_BYTE
	}
}

// NewTarget allocates a target in ctx. samples must already be clamped to
// what the implementation supports.
func NewTarget(ctx graphics.Context, desc backbuffer.Descriptor, samples int) (*Target, error) {
	ctx.MakeCurrent()
	t := &Target{ctx: ctx, desc: desc, samples: samples}
	internal, _, pixelType := textureFormat(desc.Format)
	width, height := int32(desc.Width), int32(desc.Height)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.GenTextures(1, &t.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, t.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, width, height, 0, gl.RGBA, pixelType, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.colorTexture, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if samples == 0 && desc.DepthStencil == backbuffer.DepthStencil24S8 {
		gl.GenRenderbuffers(1, &t.depthStencil)
		gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthStencil)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, width, height)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, t.depthStencil)
	}
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		t.Destroy()
		return nil, fmt.Errorf("%w: resolve fbo status 0x%x", ErrIncompleteFramebuffer, status)
	}

	if samples > 0 {
		gl.GenFramebuffers(1, &t.msaaFbo)
		gl.BindFramebuffer(gl.FRAMEBUFFER, t.msaaFbo)
		gl.GenRenderbuffers(1, &t.msaaColor)
		gl.BindRenderbuffer(gl.RENDERBUFFER, t.msaaColor)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, int32(samples), uint32(internal), width, height)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, t.msaaColor)
		if desc.DepthStencil == backbuffer.DepthStencil24S8 {
			gl.GenRenderbuffers(1, &t.msaaDepthStencil)
			gl.BindRenderbuffer(gl.RENDERBUFFER, t.msaaDepthStencil)
			gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, int32(samples), gl.DEPTH24_STENCIL8, width, height)
			gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, t.msaaDepthStencil)
		}
		if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
			t.Destroy()
			return nil, fmt.Errorf("%w: multisample fbo status 0x%x", ErrIncompleteFramebuffer, status)
		}
	}

	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return t, nil
}

func (t *Target) Width() int  { return t.desc.Width }
func (t *Target) Height() int { return t.desc.Height }

// Descriptor returns what the target was allocated with.
func (t *Target) Descriptor() backbuffer.Descriptor { return t.desc }

// Samples returns the effective multisample count, 0 when single-sampled.
func (t *Target) Samples() int { return t.samples }

// Texture returns the resolved color texture. It can be sampled from any
// context sharing objects with the device.
func (t *Target) Texture() uint32 { return t.colorTexture }

// drawFramebuffer is the framebuffer scene rendering goes to.
func (t *Target) drawFramebuffer() uint32 {
	if t.msaaFbo != 0 {
		return t.msaaFbo
	}
	return t.fbo
}

// bind makes the target the current draw framebuffer and sets the viewport.
// With DiscardContents the previous frame's contents are cleared.
func (t *Target) bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.drawFramebuffer())
	gl.Viewport(0, 0, int32(t.desc.Width), int32(t.desc.Height))
	if t.desc.Usage == backbuffer.UsageDiscardContents {
		gl.ClearColor(0, 0, 0, 1)
		gl.ClearDepth(1)
		gl.ClearStencil(0)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
	}
}

// resolve blits the multisampled framebuffer into the color texture and
// fences the result for consumers in other contexts.
func (t *Target) resolve() {
	if t.msaaFbo != 0 {
		w, h := int32(t.desc.Width), int32(t.desc.Height)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.msaaFbo)
		gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, t.fbo)
		gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if t.fence != 0 {
		gl.DeleteSync(t.fence)
	}
	t.fence = gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
}

// WaitRendered makes the current context wait for the last flushed frame.
// Call it from the consuming context before sampling Texture.
func (t *Target) WaitRendered() {
	if t.fence != 0 {
		gl.WaitSync(t.fence, 0, gl.TIMEOUT_IGNORED)
	}
}

// FrameSize is the number of bytes ReadPixels produces.
func (t *Target) FrameSize() int {
	return t.desc.Width * t.desc.Height * 4
}

// ReadPixels reads the resolved color buffer into dst, bottom row first, four
// bytes per pixel in the target's format. dst is grown when too small.
func (t *Target) ReadPixels(dst []byte) []byte {
	size := t.FrameSize()
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	t.ctx.MakeCurrent()
	_, format, pixelType := textureFormat(t.desc.Format)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.ReadPixels(0, 0, int32(t.desc.Width), int32(t.desc.Height), format, pixelType, gl.Ptr(&dst[0]))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return dst
}

// Destroy releases the GL objects. It is safe to call more than once.
func (t *Target) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.ctx.MakeCurrent()
	if t.fence != 0 {
		gl.DeleteSync(t.fence)
		t.fence = 0
	}
	if t.msaaFbo != 0 {
		gl.DeleteFramebuffers(1, &t.msaaFbo)
		gl.DeleteRenderbuffers(1, &t.msaaColor)
		if t.msaaDepthStencil != 0 {
			gl.DeleteRenderbuffers(1, &t.msaaDepthStencil)
		}
	}
	if t.depthStencil != 0 {
		gl.DeleteRenderbuffers(1, &t.depthStencil)
	}
	gl.DeleteTextures(1, &t.colorTexture)
	gl.DeleteFramebuffers(1, &t.fbo)
}
