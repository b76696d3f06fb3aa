package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := write(t, "frame.toml", `
width = 1920
height = 1080

[shadow]
resolution = 2048

[post]
bloom = false
bloom_iterations = 4

[profiler]
latency = 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, 2048, cfg.Shadow.Resolution)
	assert.Equal(t, float32(25), cfg.Shadow.Extent)
	assert.False(t, cfg.Post.Bloom)
	assert.True(t, cfg.Post.SSAO)
	assert.Equal(t, 4, cfg.Post.BloomIterations)
	assert.Equal(t, 3, cfg.Profiler.Latency)
	assert.Equal(t, 500*time.Millisecond, cfg.Profiler.AverageInterval())
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "frame.yml", `
post:
  volumetric: false
profiler:
  average_interval_ms: 250
workers: 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Post.Volumetric)
	assert.Equal(t, 250*time.Millisecond, cfg.Profiler.AverageInterval())
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 1280, cfg.Width)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := Load(write(t, "frame.json", `{}`))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadNormalizesInvalidValues(t *testing.T) {
	cfg, err := Load(write(t, "frame.toml", "width = 0\n[profiler]\nlatency = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, Default().Width, cfg.Width)
	assert.Equal(t, 2, cfg.Profiler.Latency)

	cfg, err = Load(write(t, "single.toml", "[profiler]\nlatency = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Profiler.Latency, "a single query set is read before it is submitted")
}

func TestLoadExpandsShaderRoot(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg, err := Load(write(t, "frame.yaml", "shader_root: ~/shaders\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "shaders"), cfg.ShaderRoot)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
