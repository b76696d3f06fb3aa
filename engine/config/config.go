package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned by Load for a file extension other than
// .toml, .yaml or .yml.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Shadow configures the directional shadow pass.
type Shadow struct {
	Resolution int     `toml:"resolution" yaml:"resolution"`
	// Extent is the orthographic half-extent in world units.
	Extent     float32 `toml:"extent" yaml:"extent"`
	Offset     float32 `toml:"offset" yaml:"offset"`
}

// Post toggles the built-in post-processing techniques.
type Post struct {
	SSAO            bool `toml:"ssao" yaml:"ssao"`
	Bloom           bool `toml:"bloom" yaml:"bloom"`
	Volumetric      bool `toml:"volumetric" yaml:"volumetric"`
	AntiAliasing    bool `toml:"anti_aliasing" yaml:"anti_aliasing"`
	BloomIterations int  `toml:"bloom_iterations" yaml:"bloom_iterations"`
}

// Profiler configures GPU timing.
type Profiler struct {
	// Latency is the number of in-flight query sets, at least 2. A set is read
	// back Latency-1 frames after it was written.
	Latency int `toml:"latency" yaml:"latency"`
	// AverageIntervalMs is the wall-clock interval between average refreshes.
	AverageIntervalMs int `toml:"average_interval_ms" yaml:"average_interval_ms"`
	// Report enables the periodic terminal report.
	Report bool `toml:"report" yaml:"report"`
}

// AverageInterval returns AverageIntervalMs as a duration.
func (p Profiler) AverageInterval() time.Duration {
	return time.Duration(p.AverageIntervalMs) * time.Millisecond
}

// Frame is the configuration of the frame orchestrator and the passes it owns.
type Frame struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	Shadow   Shadow   `toml:"shadow" yaml:"shadow"`
	Post     Post     `toml:"post" yaml:"post"`
	Profiler Profiler `toml:"profiler" yaml:"profiler"`

	// ShaderRoot is a directory of WGSL sources overriding the embedded set. Empty
	// selects the embedded shaders. A leading ~ is expanded.
	ShaderRoot string `toml:"shader_root" yaml:"shader_root"`
	// HotReload watches ShaderRoot and recompiles changed programs.
	HotReload bool `toml:"hot_reload" yaml:"hot_reload"`
	// Workers is the CPU worker count of the geometry and shadow passes.
	Workers int `toml:"workers" yaml:"workers"`
	// Skybox enables the sky draw when a cube map is supplied.
	Skybox bool `toml:"skybox" yaml:"skybox"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - Frame: the defaults
func Default() Frame {
	return Frame{
		Width:  1280,
		Height: 720,
		Shadow: Shadow{Resolution: 4096, Extent: 25, Offset: 25},
		Post: Post{
			SSAO:            true,
			Bloom:           true,
			Volumetric:      true,
			AntiAliasing:    true,
			BloomIterations: 2,
		},
		Profiler: Profiler{Latency: 2, AverageIntervalMs: 500},
		Workers:  4,
		Skybox:   true,
	}
}

// Load reads a configuration file over the defaults. The format is chosen by the
// file extension.
//
// Parameters:
//   - path: the file path; a leading ~ is expanded
//
// Returns:
//   - Frame: the configuration
//   - error: ErrUnsupportedFormat, or a read or decode error
func Load(path string) (Frame, error) {
	cfg := Default()
	full, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("config: expand %s: %w", path, err)
	}

	var unmarshal func([]byte, any) error
	switch strings.ToLower(filepath.Ext(full)) {
	case ".toml":
		unmarshal = toml.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(full))
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", full, err)
	}
	if err := unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", full, err)
	}

	if cfg.ShaderRoot != "" {
		if cfg.ShaderRoot, err = homedir.Expand(cfg.ShaderRoot); err != nil {
			return cfg, fmt.Errorf("config: expand shader_root: %w", err)
		}
	}
	cfg.normalize()
	return cfg, nil
}

// normalize replaces out-of-range values with their defaults.
func (c *Frame) normalize() {
	d := Default()
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = d.Width, d.Height
	}
	if c.Shadow.Resolution <= 0 {
		c.Shadow.Resolution = d.Shadow.Resolution
	}
	if c.Shadow.Extent <= 0 {
		c.Shadow.Extent = d.Shadow.Extent
	}
	if c.Post.BloomIterations <= 0 {
		c.Post.BloomIterations = d.Post.BloomIterations
	}
	if c.Profiler.Latency < 2 {
		c.Profiler.Latency = d.Profiler.Latency
	}
	if c.Profiler.AverageIntervalMs <= 0 {
		c.Profiler.AverageIntervalMs = d.Profiler.AverageIntervalMs
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
}
