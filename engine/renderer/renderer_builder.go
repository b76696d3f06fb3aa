package renderer

// rendererConfig collects pre-creation configuration from builder options.
type rendererConfig struct {
	presentMode          PresentMode
	forceFallbackAdapter bool
	timestamps           bool
}

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*rendererConfig)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(c *rendererConfig) {
		c.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(c *rendererConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithTimestampQueries requests the timestamp-query device feature. When the adapter
// does not support it, timestamp queries report as unsupported and the GPU profiler
// disables itself.
//
// Parameters:
//   - enabled: true to request timestamp queries
//
// Returns:
//   - RendererBuilderOption: a function that applies the timestamp option to a renderer
func WithTimestampQueries(enabled bool) RendererBuilderOption {
	return func(c *rendererConfig) {
		c.timestamps = enabled
	}
}
