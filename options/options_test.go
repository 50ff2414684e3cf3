package options

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetenv(t *testing.T, keys ...string) {
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestParseDefaults(t *testing.T) {
	unsetenv(t, "SHADERTOY_KEY", "GOGLHOST_SHADER", "GOGLHOST_MODE", "LOG_LEVEL", "FFMPEG_PATH")
	opts, rest, err := Parse([]string{"--panels", "3"})
	require.NoError(t, err)

	assert.Empty(t, rest)
	assert.Equal(t, "XlSSzV", opts.ShaderID)
	assert.Equal(t, "interactive", opts.Mode)
	assert.Equal(t, 3, opts.Panels)
	assert.Equal(t, 60, opts.FPS)
	assert.Equal(t, 30, opts.SecondaryFPS)
	assert.Equal(t, "h264", opts.Codec)
	assert.False(t, opts.MultiSampling)
	assert.False(t, opts.HWAccel)
}

func TestParseFromEnvironment(t *testing.T) {
	unsetenv(t, "LOG_LEVEL", "GOGLHOST_SHADER")
	t.Setenv("SHADERTOY_KEY", "from-env")
	t.Setenv("GOGLHOST_MODE", "record")

	opts, _, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", opts.APIKey)
	assert.Equal(t, "record", opts.Mode)

	opts, _, err = Parse([]string{"--apikey", "flag"})
	require.NoError(t, err)
	assert.Equal(t, "flag", opts.APIKey)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	unsetenv(t, "GOGLHOST_MODE", "LOG_LEVEL")
	_, _, err := Parse([]string{"--mode", "stream"})
	assert.Error(t, err)

	_, _, err = Parse([]string{"--width", "0"})
	assert.Error(t, err)

	_, _, err = Parse([]string{"--fps", "0"})
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GOGLHOST_TEST_VALUE=dotenv\n"), 0o644))
	unsetenv(t, "GOGLHOST_TEST_VALUE")

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "dotenv", os.Getenv("GOGLHOST_TEST_VALUE"))
}

func TestSetLogLevel(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.Error(t, SetLogLevel("loud"))
}

func TestFrameInterval(t *testing.T) {
	assert.Equal(t, 33333333*time.Nanosecond, FrameInterval(30))
	assert.Equal(t, time.Duration(0), FrameInterval(0))
}
