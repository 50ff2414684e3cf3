// Package shader holds the GLSL sources: the quad vertex shader, the blit
// that presents a back buffer, and the glue around shadertoy passes.
package shader

import (
	"fmt"
	"strings"
)

// every context is a desktop 4.1 core profile
const version = "#version 410 core\n"

const vertexBody = `layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitBody = `in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, frag_uv); }
`

// VertexShader draws the fullscreen quad and passes uv to the fragment stage.
func VertexShader() string {
	return version + vertexBody
}

// BlitShader samples u_texture at the quad's uv.
func BlitShader() string {
	return version + blitBody
}

// DefaultImage is shown when no shadertoy content is available.
const DefaultImage = `
void mainImage(out vec4 fragColor, in vec2 fragCoord)
{
    vec2 uv = fragCoord / iResolution.xy;
    vec3 col = 0.5 + 0.5 * cos(iTime + uv.xyx + vec3(0.0, 2.0, 4.0));
    fragColor = vec4(col, 1.0);
}
`

// Uniform is a shadertoy input declared in every pass.
type Uniform struct {
	Type string
	Name string
}

// Uniforms lists the shadertoy inputs in declaration order.
var Uniforms = []Uniform{
	{"vec3", "iResolution"},
	{"float", "iTime"},
	{"float", "iTimeDelta"},
	{"float", "iFrameRate"},
	{"int", "iFrame"},
	{"float", "iChannelTime[4]"},
	{"vec3", "iChannelResolution[4]"},
	{"vec4", "iMouse"},
	{"vec4", "iDate"},
	{"float", "iSampleRate"},
}

// Samplers holds the GLSL sampler type of each iChannel. Empty entries are
// declared as sampler2D.
type Samplers [4]string

// tanhShim replaces tanh with a rational approximation.
const tanhShim = `
#define FAST_TANH_BODY(x) ((x) * (27.0 + (x)*(x)) / (27.0 + 9.0*(x)*(x)))
float fast_tanh(float x) { return FAST_TANH_BODY(x); }
vec2  fast_tanh(vec2  x) { return FAST_TANH_BODY(x); }
vec3  fast_tanh(vec3  x) { return FAST_TANH_BODY(x); }
vec4  fast_tanh(vec4  x) { return FAST_TANH_BODY(x); }
#define tanh fast_tanh
`

// Preamble is the WebGL2 header of a pass: precision, uniforms, channels and
// the output variable.
func Preamble(samplers Samplers) string {
	var b strings.Builder
	b.WriteString("#version 300 es\nprecision highp float;\nprecision highp int;\nprecision mediump sampler3D;\n\n#define HW_PERFORMANCE 1\n\n")
	for _, u := range Uniforms {
		fmt.Fprintf(&b, "uniform %s %s;\n", u.Type, u.Name)
	}
	for i, sampler := range samplers {
		if sampler == "" {
			sampler = "sampler2D"
		}
		fmt.Fprintf(&b, "uniform %s iChannel%d;\n", sampler, i)
	}
	b.WriteString("\nout vec4 fragColor;\n")
	b.WriteString(tanhShim)
	return b.String()
}

const mainWrapper = `
void main(void)
{
    mainImage(fragColor, gl_FragCoord.xy);
}
`

// FragmentShader joins the preamble, the common code, the pass code and the
// main wrapper into one WebGL2 fragment shader.
func FragmentShader(samplers Samplers, common, pass string) string {
	return Preamble(samplers) + common + "\n" + pass + mainWrapper
}
