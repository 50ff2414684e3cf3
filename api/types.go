// Package api fetches shaders from shadertoy.com and extracts the passes a
// scene can render.
package api

// ShadertoyResponse is the public API's response to a shader query.
type ShadertoyResponse struct {
	Shader *Shader `json:"Shader"`
	Error  string  `json:"Error,omitempty"`
	// IsAPI is false when the shader came from the site endpoint.
	IsAPI bool `json:"isAPI,omitempty"`
}

type Shader struct {
	Info       ShaderInfo   `json:"info"`
	RenderPass []RenderPass `json:"renderpass"`
}

type ShaderInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type RenderPass struct {
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
}

type Input struct {
	Channel int     `json:"channel"`
	CType   string  `json:"ctype"`
	Src     string  `json:"src"`
	Sampler Sampler `json:"sampler"`
}

type Output struct {
	ID      int `json:"id"`
	Channel int `json:"channel"`
}

type Sampler struct {
	Filter   string `json:"filter"`
	Wrap     string `json:"wrap"`
	VFlip    string `json:"vflip"`
	SRGB     string `json:"srgb"`
	Internal string `json:"internal"`
}

// siteShader is the site endpoint's shape of a shader. Inputs name their
// source and type differently and ids are strings.
type siteShader struct {
	Info       ShaderInfo `json:"info"`
	RenderPass []struct {
		Inputs []struct {
			Filepath string  `json:"filepath"`
			Type     string  `json:"type"`
			Channel  int     `json:"channel"`
			Sampler  Sampler `json:"sampler"`
		} `json:"inputs"`
		Outputs []struct {
			Channel int `json:"channel"`
		} `json:"outputs"`
		Code string `json:"code"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"renderpass"`
}

func (s siteShader) toShader() *Shader {
	out := &Shader{Info: s.Info, RenderPass: make([]RenderPass, 0, len(s.RenderPass))}
	for _, sp := range s.RenderPass {
		rp := RenderPass{Code: sp.Code, Name: sp.Name, Type: sp.Type}
		for _, in := range sp.Inputs {
			rp.Inputs = append(rp.Inputs, Input{Channel: in.Channel, CType: in.Type, Src: in.Filepath, Sampler: in.Sampler})
		}
		for _, o := range sp.Outputs {
			rp.Outputs = append(rp.Outputs, Output{Channel: o.Channel})
		}
		out.RenderPass = append(out.RenderPass, rp)
	}
	return out
}
