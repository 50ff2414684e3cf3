package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrNoImagePass is returned for shaders without an image pass.
var ErrNoImagePass = errors.New("api: shader has no image pass")

// ShadertoyChannel is an input channel of a pass. Only buffer channels are
// bound.
type ShadertoyChannel struct {
	CType   string
	Channel int
	Sampler Sampler
	// BufferRef is the buffer pass feeding this channel, "A" to "D".
	BufferRef string
}

// BufferRenderPass is a buffer pass.
type BufferRenderPass struct {
	Code      string
	Inputs    []*ShadertoyChannel
	BufferIdx string
}

// ShaderArgs are the passes of a shader that can be rendered.
type ShaderArgs struct {
	ShaderCode string
	CommonCode string
	Inputs     []*ShadertoyChannel
	Buffers    map[string]*BufferRenderPass
	Title      string
	// Complete is false when some input or pass could not be bound.
	Complete bool
}

// ShaderArgsFromJSON extracts the image, common and buffer passes.
func ShaderArgsFromJSON(resp *ShadertoyResponse) (*ShaderArgs, error) {
	if resp == nil || resp.Shader == nil {
		return nil, errors.New("api: response has no shader")
	}

	args := &ShaderArgs{
		Inputs:   make([]*ShadertoyChannel, 4),
		Buffers:  map[string]*BufferRenderPass{},
		Complete: true,
	}
	for _, rp := range resp.Shader.RenderPass {
		switch rp.Type {
		case "image":
			var complete bool
			args.ShaderCode = rp.Code
			args.Inputs, complete = parseChannels(rp.Inputs)
			args.Complete = args.Complete && complete
		case "common":
			args.CommonCode = rp.Code
		case "buffer":
			// "Buffer A" is buffer A
			if rp.Name == "" {
				return nil, errors.New("api: buffer pass without a name")
			}
			idx := strings.ToUpper(rp.Name[len(rp.Name)-1:])
			inputs, complete := parseChannels(rp.Inputs)
			args.Complete = args.Complete && complete
			args.Buffers[idx] = &BufferRenderPass{Code: rp.Code, Inputs: inputs, BufferIdx: idx}
		default:
			log.WithField("type", rp.Type).Warn("Unsupported render pass type")
			args.Complete = false
		}
	}
	if args.ShaderCode == "" {
		return nil, ErrNoImagePass
	}

	info := resp.Shader.Info
	args.Title = fmt.Sprintf(`"%s" by %s`, info.Name, info.Username)
	return args, nil
}

// bufferRef maps a buffer input such as /media/previz/buffer00.png to its
// pass.
func bufferRef(src string) (string, bool) {
	name := strings.TrimSuffix(src, filepath.Ext(src))
	if len(name) < 2 {
		return "", false
	}
	n, err := strconv.Atoi(name[len(name)-2:])
	if err != nil || n < 0 || n > 3 {
		return "", false
	}
	return string(rune('A' + n)), true
}

func parseChannels(inputs []Input) ([]*ShadertoyChannel, bool) {
	channels := make([]*ShadertoyChannel, 4)
	complete := true
	for _, in := range inputs {
		logger := log.WithFields(log.Fields{"channel": in.Channel, "ctype": in.CType})
		if in.Channel < 0 || in.Channel >= len(channels) {
			logger.Warn("Invalid channel index")
			complete = false
			continue
		}
		if in.CType != "buffer" {
			logger.Warn("Unsupported input type")
			complete = false
			continue
		}
		ref, ok := bufferRef(in.Src)
		if !ok {
			logger.WithField("src", in.Src).Warn("Invalid buffer reference")
			complete = false
			continue
		}
		channels[in.Channel] = &ShadertoyChannel{CType: in.CType, Channel: in.Channel, Sampler: in.Sampler, BufferRef: ref}
	}
	return channels, complete
}
