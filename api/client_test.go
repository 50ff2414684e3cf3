package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiShaderJSON = `{
  "Shader": {
    "info": {"id": "abc123", "name": "Waves", "username": "someone"},
    "renderpass": [
      {"type": "common", "name": "Common", "code": "float common_fn() { return 1.0; }"},
      {"type": "buffer", "name": "Buffer A", "code": "void mainImage(out vec4 c, in vec2 p) { c = vec4(1.0); }",
       "inputs": [{"channel": 0, "ctype": "buffer", "src": "/media/previz/buffer00.png"}]},
      {"type": "image", "name": "Image", "code": "void mainImage(out vec4 c, in vec2 p) { c = texture(iChannel0, p); }",
       "inputs": [{"channel": 0, "ctype": "buffer", "src": "/media/previz/buffer00.png"},
                  {"channel": 1, "ctype": "texture", "src": "/media/a/noise.png"}]}
    ]
  }
}`

const siteShaderJSON = `[{
  "info": {"id": "priv01", "name": "Private", "username": "other"},
  "renderpass": [
    {"type": "image", "name": "Image", "code": "void mainImage(out vec4 c, in vec2 p) { c = vec4(0.0); }",
     "inputs": [{"id": "4dXGR8", "filepath": "/media/previz/buffer01.png", "type": "buffer", "channel": 2}],
     "outputs": [{"id": "4dfGRr", "channel": 0}]}
  ]
}]`

func newTestClient(t *testing.T, key string, handler http.HandlerFunc, opts ...ClientOption) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]ClientOption{WithURLs(srv.URL+"/api/v1", srv.URL+"/shadertoy")}, opts...)
	return NewClient(key, opts...)
}

func TestClientShader(t *testing.T) {
	var requests int
	c := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/api/v1/shaders/abc123", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "goglhost", r.UserAgent())
		fmt.Fprint(w, apiShaderJSON)
	})

	resp, err := c.Shader(context.Background(), "https://www.shadertoy.com/view/abc123/")
	require.NoError(t, err)
	assert.True(t, resp.IsAPI)
	assert.Equal(t, 1, requests)

	args, err := ShaderArgsFromJSON(resp)
	require.NoError(t, err)
	assert.Equal(t, `"Waves" by someone`, args.Title)
	assert.Contains(t, args.CommonCode, "common_fn")
	assert.Contains(t, args.ShaderCode, "texture(iChannel0")
	require.Contains(t, args.Buffers, "A")
	assert.Equal(t, "A", args.Buffers["A"].Inputs[0].BufferRef)
	assert.Equal(t, "A", args.Inputs[0].BufferRef)
	assert.Nil(t, args.Inputs[1])
	assert.False(t, args.Complete)
}

func TestClientUsesCache(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	var requests int
	c := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, apiShaderJSON)
	}, WithCache(cache))

	first, err := c.Shader(context.Background(), "abc123")
	require.NoError(t, err)
	second, err := c.Shader(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, 1, requests)
	assert.Equal(t, first.Shader.Info, second.Shader.Info)
	assert.Len(t, second.Shader.RenderPass, 3)
	assert.True(t, second.IsAPI)
}

func TestClientFallsBackToSiteEndpoint(t *testing.T) {
	c := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/shaders/priv01":
			fmt.Fprint(w, `{"Error": "Shader not found"}`)
		case "/shadertoy":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, `{"shaders":["priv01"]}`, r.PostForm.Get("s"))
			fmt.Fprint(w, siteShaderJSON)
		default:
			http.NotFound(w, r)
		}
	})

	resp, err := c.Shader(context.Background(), "priv01")
	require.NoError(t, err)
	assert.False(t, resp.IsAPI)

	args, err := ShaderArgsFromJSON(resp)
	require.NoError(t, err)
	assert.Equal(t, "B", args.Inputs[2].BufferRef)
	assert.True(t, args.Complete)
}

func TestClientSiteEmpty(t *testing.T) {
	c := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/shadertoy" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `{"Error": "Shader not found"}`)
	})

	_, err := c.Shader(context.Background(), "gone")
	assert.ErrorContains(t, err, "site has no shader gone")
}

func TestClientStatusError(t *testing.T) {
	c := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Shader(context.Background(), "abc123")
	assert.ErrorContains(t, err, "status code: 500")
}

func TestClientCancelled(t *testing.T) {
	c := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, apiShaderJSON)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Shader(ctx, "abc123")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientMissingAPIKey(t *testing.T) {
	c := NewClient("")
	_, err := c.Shader(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestShaderID(t *testing.T) {
	assert.Equal(t, "abc123", ShaderID("abc123"))
	assert.Equal(t, "abc123", ShaderID("https://www.shadertoy.com/view/abc123"))
	assert.Equal(t, "abc123", ShaderID("https://www.shadertoy.com/view/abc123/"))
}
