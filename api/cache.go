package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// Cache stores shader responses as JSON files, one per shader ID.
type Cache struct {
	dir string
}

// DefaultCacheDir returns the per-user cache directory for shaders.
func DefaultCacheDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
		if base == "" {
			return "", errors.New("api: LOCALAPPDATA is not set")
		}
	case "darwin":
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("api: HOME is not set")
		}
		base = filepath.Join(home, "Library", "Caches")
	default:
		base = os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home := os.Getenv("HOME")
			if home == "" {
				return "", errors.New("api: HOME is not set")
			}
			base = filepath.Join(home, ".cache")
		}
	}
	return filepath.Join(base, "goglhost", "shaders"), nil
}

// NewCache creates dir if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("api: create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(id string) string {
	return filepath.Join(c.dir, id+".json")
}

// Load returns the cached response for id. ok is false on a miss.
func (c *Cache) Load(id string) (resp *ShadertoyResponse, ok bool, err error) {
	data, err := os.ReadFile(c.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("api: read cached shader: %w", err)
	}

	var cached ShadertoyResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("api: decode cached shader %s: %w", id, err)
	}
	if cached.Shader == nil {
		return nil, false, fmt.Errorf("api: cached shader %s has no shader", id)
	}
	return &cached, true, nil
}

// Store writes resp for id.
func (c *Cache) Store(id string, resp *ShadertoyResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("api: encode shader %s: %w", id, err)
	}
	if err := os.WriteFile(c.path(id), data, 0o644); err != nil {
		return fmt.Errorf("api: write cached shader: %w", err)
	}
	return nil
}
