// Package scene holds the demo content rendered by the hosts: shadertoy
// shaders and a lifecycle counter.
package scene

import (
	"errors"
	"fmt"
	"slices"
	"time"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/goglhost/api"
	"github.com/richinsley/goglhost/host"
	"github.com/richinsley/goglhost/renderer"
	"github.com/richinsley/goglhost/shader"
	"github.com/richinsley/goglhost/translator"
	log "github.com/sirupsen/logrus"
)

// ErrUnsupportedDevice is returned when the host's device is not a GL device.
var ErrUnsupportedDevice = errors.New("scene: host device is not an OpenGL device")

// SampleRate is reported to shaders as iSampleRate.
const SampleRate = 44100

// source is the code of one pass before translation.
type source struct {
	name     string
	code     string
	channels []*api.ShadertoyChannel
}

// sources orders the passes of args: buffers A to D, then the image pass.
// A nil args yields the built-in image.
func sources(args *api.ShaderArgs) []source {
	if args == nil {
		return []source{{name: "image", code: shader.DefaultImage}}
	}
	names := make([]string, 0, len(args.Buffers))
	for name := range args.Buffers {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]source, 0, len(names)+1)
	for _, name := range names {
		b := args.Buffers[name]
		out = append(out, source{name: name, code: b.Code, channels: b.Inputs})
	}
	return append(out, source{name: "image", code: args.ShaderCode, channels: args.Inputs})
}

type pass struct {
	name     string
	program  uint32
	uniforms map[string]string
	channels [4]*api.ShadertoyChannel
	// target is nil for the image pass, which draws to the back buffer
	target *Buffer
}

func (p *pass) location(name string) int32 {
	if mapped, ok := p.uniforms[name]; ok {
		name = mapped
	}
	return renderer.UniformLocation(p.program, name)
}

// ShaderScene renders a shadertoy shader into its host's back buffer.
type ShaderScene struct {
	args          *api.ShaderArgs
	multiSampling bool

	log     *log.Entry
	dev     *renderer.Device
	service *host.DeviceService
	quad    *renderer.Quad
	passes  []*pass
	buffers map[string]*Buffer
	frame   int32
}

var _ host.Game = (*ShaderScene)(nil)

// NewShaderScene creates a scene for args. A nil args renders the built-in
// image.
func NewShaderScene(args *api.ShaderArgs, multiSampling bool) *ShaderScene {
	return &ShaderScene{args: args, multiSampling: multiSampling, buffers: map[string]*Buffer{}}
}

// Initialize compiles every pass on the shared device.
func (s *ShaderScene) Initialize(h *host.Host) error {
	dev, ok := h.Device().(*renderer.Device)
	if !ok {
		return ErrUnsupportedDevice
	}
	s.dev = dev
	s.log = h.Logger()

	svc, err := host.NewDeviceService(h, s.multiSampling)
	if err != nil {
		return err
	}
	s.service = svc

	dev.MakeCurrent()
	s.quad = renderer.NewQuad()
	width, height := h.BackBufferSize()

	for _, src := range sources(s.args) {
		p, err := s.compile(src)
		if err != nil {
			return fmt.Errorf("scene: pass %s: %w", src.name, err)
		}
		if src.name != "image" {
			buf, err := NewBuffer(width, height)
			if err != nil {
				gl.DeleteProgram(p.program)
				return err
			}
			s.buffers[src.name] = buf
			p.target = buf
		}
		s.passes = append(s.passes, p)
	}

	s.log.WithFields(log.Fields{"passes": len(s.passes), "msaa": dev.Parameters().MultiSampleCount}).Info("Shader scene initialized")
	return nil
}

func (s *ShaderScene) compile(src source) (*pass, error) {
	fragment := shader.FragmentShader(shader.Samplers{}, s.commonCode(), src.code)
	translated, err := translator.TranslateFragment(fragment)
	if err != nil {
		return nil, err
	}
	program, err := renderer.NewProgram(shader.VertexShader(), translated.Code)
	if err != nil {
		return nil, err
	}
	p := &pass{name: src.name, program: program, uniforms: translated.Uniforms}
	for i, ch := range src.channels {
		if i < len(p.channels) {
			p.channels[i] = ch
		}
	}
	return p, nil
}

func (s *ShaderScene) commonCode() string {
	if s.args == nil {
		return ""
	}
	return s.args.CommonCode
}

// Render draws the buffer passes and then the image pass into the bound back
// buffer.
func (s *ShaderScene) Render(t host.GameTime) {
	var target, viewport [4]int32
	gl.GetIntegerv(gl.DRAW_FRAMEBUFFER_BINDING, &target[0])
	gl.GetIntegerv(gl.VIEWPORT, &viewport[0])
	width, height := int(viewport[2]), int(viewport[3])

	u := frameUniforms{
		resolution: [3]float32{float32(width), float32(height), 1},
		time:       float32(t.Total.Seconds()),
		timeDelta:  float32(t.Elapsed.Seconds()),
		frameRate:  frameRate(t.Elapsed),
		frame:      s.frame,
		date:       dateUniform(time.Now()),
	}

	for _, p := range s.passes {
		if p.target != nil {
			p.target.Resize(width, height)
			p.target.BindForWriting()
		} else {
			gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(target[0]))
			gl.Viewport(viewport[0], viewport[1], viewport[2], viewport[3])
		}
		s.draw(p, u)
		if p.target != nil {
			p.target.Swap()
		}
	}
	s.frame++
}

type frameUniforms struct {
	resolution [3]float32
	time       float32
	timeDelta  float32
	frameRate  float32
	frame      int32
	date       [4]float32
}

func (s *ShaderScene) draw(p *pass, u frameUniforms) {
	gl.UseProgram(p.program)
	gl.Uniform3f(p.location("iResolution"), u.resolution[0], u.resolution[1], u.resolution[2])
	gl.Uniform1f(p.location("iTime"), u.time)
	gl.Uniform1f(p.location("iTimeDelta"), u.timeDelta)
	gl.Uniform1f(p.location("iFrameRate"), u.frameRate)
	gl.Uniform1i(p.location("iFrame"), u.frame)
	gl.Uniform4f(p.location("iMouse"), 0, 0, 0, 0)
	gl.Uniform4f(p.location("iDate"), u.date[0], u.date[1], u.date[2], u.date[3])
	gl.Uniform1f(p.location("iSampleRate"), SampleRate)

	var channelRes [12]float32
	var channelTime [4]float32
	for i, ch := range p.channels {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		buf := s.channelBuffer(ch)
		if buf == nil {
			gl.BindTexture(gl.TEXTURE_2D, 0)
			continue
		}
		buf.SetSampler(ch.Sampler)
		gl.BindTexture(gl.TEXTURE_2D, buf.Texture())
		gl.Uniform1i(p.location(fmt.Sprintf("iChannel%d", i)), int32(i))
		w, h := buf.Size()
		channelRes[i*3], channelRes[i*3+1], channelRes[i*3+2] = float32(w), float32(h), 1
		channelTime[i] = u.time
	}
	gl.Uniform3fv(p.location("iChannelResolution"), 4, &channelRes[0])
	gl.Uniform1fv(p.location("iChannelTime"), 4, &channelTime[0])

	s.quad.Draw()

	for i := range p.channels {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.UseProgram(0)
}

func (s *ShaderScene) channelBuffer(ch *api.ShadertoyChannel) *Buffer {
	if ch == nil || ch.BufferRef == "" {
		return nil
	}
	return s.buffers[ch.BufferRef]
}

// Dispose deletes the scene's GL objects and unregisters its device service.
func (s *ShaderScene) Dispose(disposing bool) {
	if s.dev == nil {
		return
	}
	s.dev.MakeCurrent()
	for _, p := range s.passes {
		gl.DeleteProgram(p.program)
	}
	for _, b := range s.buffers {
		b.Destroy()
	}
	if s.quad != nil {
		s.quad.Destroy()
	}
	if s.service != nil {
		s.service.Close()
	}
	s.passes = nil
	s.buffers = map[string]*Buffer{}
	s.dev = nil
	if s.log != nil {
		s.log.WithField("frames", s.frame).Debug("Shader scene disposed")
	}
}

// Frames returns the number of frames rendered.
func (s *ShaderScene) Frames() int32 {
	return s.frame
}

func frameRate(elapsed time.Duration) float32 {
	if elapsed <= 0 {
		return 0
	}
	return float32(1 / elapsed.Seconds())
}

// dateUniform is iDate: year, zero-based month, day and seconds since
// midnight.
func dateUniform(now time.Time) [4]float32 {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return [4]float32{
		float32(now.Year()),
		float32(now.Month() - 1),
		float32(now.Day()),
		float32(now.Sub(midnight).Seconds()),
	}
}
