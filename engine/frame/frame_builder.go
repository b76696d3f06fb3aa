package frame

import (
	"io/fs"

	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// FrameBuilderOption is a functional option applied to a Frame during construction.
type FrameBuilderOption func(*frame)

// WithConfig replaces the default configuration.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - FrameBuilderOption: a function that applies the configuration
func WithConfig(cfg config.Frame) FrameBuilderOption {
	return func(f *frame) {
		f.cfg = cfg
	}
}

// WithGPUProfiler attaches a GPU profiler. Every pass emits a timestamp through it.
// The profiler is owned by the caller.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - FrameBuilderOption: a function that applies the profiler
func WithGPUProfiler(p profiler.GPUProfiler) FrameBuilderOption {
	return func(f *frame) {
		f.gpu = p
	}
}

// WithShaderFS replaces the shader source tree. It takes precedence over
// Config.ShaderRoot and disables hot reload.
//
// Parameters:
//   - fsys: the source tree, laid out like Shaders
//
// Returns:
//   - FrameBuilderOption: a function that applies the file system
func WithShaderFS(fsys fs.FS) FrameBuilderOption {
	return func(f *frame) {
		f.fsys = fsys
	}
}

// WithLibraryOptions forwards options to the shader library.
//
// Parameters:
//   - options: the library options
//
// Returns:
//   - FrameBuilderOption: a function that applies the library options
func WithLibraryOptions(options ...shader.LibraryBuilderOption) FrameBuilderOption {
	return func(f *frame) {
		f.libOptions = append(f.libOptions, options...)
	}
}

// WithStateObserver registers a callback invoked on every state transition.
//
// Parameters:
//   - fn: the callback, called with the frame lock held
//
// Returns:
//   - FrameBuilderOption: a function that applies the observer
func WithStateObserver(fn func(State)) FrameBuilderOption {
	return func(f *frame) {
		f.observer = fn
	}
}
