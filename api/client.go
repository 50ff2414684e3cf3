package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultAPIURL  = "https://www.shadertoy.com/api/v1"
	DefaultSiteURL = "https://www.shadertoy.com/shadertoy"
)

// ErrNoAPIKey is returned when fetching from the public API without a key.
var ErrNoAPIKey = errors.New("api: no shadertoy API key, set SHADERTOY_KEY. See https://www.shadertoy.com/howto#q2")

// Client fetches shaders, from the cache first when it has one.
type Client struct {
	apiKey  string
	apiURL  string
	siteURL string
	http    *http.Client
	cache   *Cache
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCache reads and writes responses through c. A nil c disables caching.
func WithCache(c *Cache) ClientOption {
	return func(cl *Client) {
		cl.cache = c
	}
}

// WithURLs overrides the public API and site endpoints.
func WithURLs(apiURL, siteURL string) ClientOption {
	return func(cl *Client) {
		cl.apiURL, cl.siteURL = apiURL, siteURL
	}
}

// WithHTTPClient sets the HTTP client requests go through.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = h
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		apiURL:  DefaultAPIURL,
		siteURL: DefaultSiteURL,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShaderID extracts the shader ID from an ID or a shader page URL.
func ShaderID(idOrURL string) string {
	if strings.Contains(idOrURL, "/") {
		return path.Base(strings.TrimSuffix(idOrURL, "/"))
	}
	return idOrURL
}

// Shader fetches a shader by ID or URL. Shaders that are not published to the
// public API are fetched from the site endpoint.
func (c *Client) Shader(ctx context.Context, idOrURL string) (*ShadertoyResponse, error) {
	id := ShaderID(idOrURL)
	logger := log.WithField("shader", id)

	if c.cache != nil {
		resp, ok, err := c.cache.Load(id)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Debug("Using cached shader")
			return resp, nil
		}
	}

	resp, err := c.fetchAPI(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		logger.WithField("error", resp.Error).Warn("Shadertoy API refused the shader, trying the site endpoint")
		if resp, err = c.fetchSite(ctx, id); err != nil {
			return nil, err
		}
	}
	if resp.Shader == nil {
		return nil, fmt.Errorf("api: response for %s has no shader", id)
	}

	if c.cache != nil {
		if err := c.cache.Store(id, resp); err != nil {
			return nil, err
		}
		logger.Info("Shader cached")
	}
	return resp, nil
}

func (c *Client) fetchAPI(ctx context.Context, id string) (*ShadertoyResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	u := fmt.Sprintf("%s/shaders/%s?%s", c.apiURL, url.PathEscape(id), url.Values{"key": {c.apiKey}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("api: load shader %s: %w", id, err)
	}
	var resp ShadertoyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("api: decode shader %s: %w", id, err)
	}
	resp.IsAPI = resp.Error == ""
	return &resp, nil
}

func (c *Client) fetchSite(ctx context.Context, id string) (*ShadertoyResponse, error) {
	form := url.Values{"s": {fmt.Sprintf(`{"shaders":["%s"]}`, id)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.siteURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://www.shadertoy.com")
	req.Header.Set("Referer", "https://www.shadertoy.com/browse")

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("api: load shader %s from site: %w", id, err)
	}
	var shaders []siteShader
	if err := json.Unmarshal(body, &shaders); err != nil {
		return nil, fmt.Errorf("api: decode site shader %s: %w", id, err)
	}
	if len(shaders) == 0 {
		return nil, fmt.Errorf("api: site has no shader %s", id)
	}
	return &ShadertoyResponse{Shader: shaders[0].toShader()}, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", "goglhost")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
