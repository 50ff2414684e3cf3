package scene

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/goglhost/api"
)

// Buffer is a double-buffered float render target for a buffer pass. A pass
// reading its own buffer sees the previous frame.
type Buffer struct {
	fbo        [2]uint32
	texture    [2]uint32
	readIndex  int
	writeIndex int
	width      int
	height     int
	sampler    api.Sampler
}

// NewBuffer allocates both halves at width x height in the current context.
func NewBuffer(width, height int) (*Buffer, error) {
	b := &Buffer{readIndex: 0, writeIndex: 1, width: width, height: height}
	for i := 0; i < 2; i++ {
		gl.GenTextures(1, &b.texture[i])
		gl.BindTexture(gl.TEXTURE_2D, b.texture[i])
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

		gl.GenFramebuffers(1, &b.fbo[i])
		gl.BindFramebuffer(gl.FRAMEBUFFER, b.fbo[i])
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, b.texture[i], 0)
		if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			b.Destroy()
			return nil, fmt.Errorf("scene: buffer framebuffer %d is not complete: 0x%x", i, status)
		}
		// start from black, buffers often accumulate
		gl.ClearColor(0, 0, 0, 0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return b, nil
}

// BindForWriting binds the write half and sets the viewport to it.
func (b *Buffer) BindForWriting() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, b.fbo[b.writeIndex])
	gl.Viewport(0, 0, int32(b.width), int32(b.height))
}

// Swap makes the half just written readable.
func (b *Buffer) Swap() {
	b.readIndex, b.writeIndex = b.writeIndex, b.readIndex
}

// Texture returns the readable half.
func (b *Buffer) Texture() uint32 {
	return b.texture[b.readIndex]
}

func (b *Buffer) Size() (int, int) {
	return b.width, b.height
}

// Resize reallocates both halves, dropping their contents.
func (b *Buffer) Resize(width, height int) {
	if width == b.width && height == b.height {
		return
	}
	b.width, b.height = width, height
	for i := 0; i < 2; i++ {
		gl.BindTexture(gl.TEXTURE_2D, b.texture[i])
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// SetSampler applies a channel's filter and wrap to both halves.
func (b *Buffer) SetSampler(sampler api.Sampler) {
	if sampler.Filter == b.sampler.Filter && sampler.Wrap == b.sampler.Wrap {
		return
	}
	minFilter, magFilter := filterMode(sampler.Filter)
	wrap := wrapMode(sampler.Wrap)
	for i := 0; i < 2; i++ {
		gl.BindTexture(gl.TEXTURE_2D, b.texture[i])
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
		if sampler.Filter == "mipmap" {
			gl.GenerateMipmap(gl.TEXTURE_2D)
		}
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	b.sampler = sampler
}

func (b *Buffer) Destroy() {
	for i := 0; i < 2; i++ {
		if b.fbo[i] != 0 {
			gl.DeleteFramebuffers(1, &b.fbo[i])
			b.fbo[i] = 0
		}
		if b.texture[i] != 0 {
			gl.DeleteTextures(1, &b.texture[i])
			b.texture[i] = 0
		}
	}
}

func wrapMode(wrap string) int32 {
	switch wrap {
	case "clamp":
		return gl.CLAMP_TO_EDGE
	default:
		return gl.REPEAT
	}
}

func filterMode(filter string) (minFilter, magFilter int32) {
	switch filter {
	case "mipmap":
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	case "nearest":
		return gl.NEAREST, gl.NEAREST
	default:
		return gl.LINEAR, gl.LINEAR
	}
}
