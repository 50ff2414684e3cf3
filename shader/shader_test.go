package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreambleDeclaresChannels(t *testing.T) {
	src := Preamble(Samplers{"", "samplerCube", "", "sampler3D"})

	assert.True(t, strings.HasPrefix(src, "#version 300 es"))
	assert.Contains(t, src, "uniform sampler2D iChannel0;")
	assert.Contains(t, src, "uniform samplerCube iChannel1;")
	assert.Contains(t, src, "uniform sampler2D iChannel2;")
	assert.Contains(t, src, "uniform sampler3D iChannel3;")
	assert.Contains(t, src, "out vec4 fragColor;")
}

func TestPreambleDeclaresUniforms(t *testing.T) {
	src := Preamble(Samplers{})
	for _, u := range Uniforms {
		assert.Contains(t, src, "uniform "+u.Type+" "+u.Name+";")
	}
	assert.Contains(t, src, "uniform vec3 iChannelResolution[4];")
}

func TestFragmentShaderOrder(t *testing.T) {
	src := FragmentShader(Samplers{}, "float common_fn();", DefaultImage)

	common := strings.Index(src, "float common_fn();")
	image := strings.Index(src, "void mainImage")
	wrapper := strings.Index(src, "void main(void)")
	assert.Greater(t, common, 0)
	assert.Greater(t, image, common)
	assert.Greater(t, wrapper, image)
}

func TestCoreProfileSources(t *testing.T) {
	assert.True(t, strings.HasPrefix(VertexShader(), "#version 410 core\n"))
	assert.True(t, strings.HasPrefix(BlitShader(), "#version 410 core\n"))
	assert.NotContains(t, BlitShader(), "precision")
	assert.Contains(t, BlitShader(), "texture(u_texture, frag_uv)")
}
