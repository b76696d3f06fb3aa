package postprocess

// GraphBuilderOption is a functional option applied to a Graph during construction.
type GraphBuilderOption func(*graph)

// WithProduced declares resources written before post-processing runs, such as the
// HDR intermediate, the scene depth and the GBuffer normals. Stages may read them
// without an earlier stage writing them.
//
// Parameters:
//   - names: the resource names
//
// Returns:
//   - GraphBuilderOption: a function that applies the option
func WithProduced(names ...string) GraphBuilderOption {
	return func(g *graph) {
		for _, n := range names {
			g.produced[n] = struct{}{}
		}
	}
}

// WithTimestamper records one timestamp per technique after its last stage.
//
// Parameters:
//   - t: the timestamp sink, usually a profiler.GPUProfiler
//
// Returns:
//   - GraphBuilderOption: a function that applies the option
func WithTimestamper(t Timestamper) GraphBuilderOption {
	return func(g *graph) {
		g.timer = t
	}
}

// WithShadowSource resolves the light matrix of the primary light.
//
// Parameters:
//   - s: the shadow source
//
// Returns:
//   - GraphBuilderOption: a function that applies the option
func WithShadowSource(s ShadowSource) GraphBuilderOption {
	return func(g *graph) {
		g.shadows = s
	}
}

// WithKernelSeed seeds the occlusion kernel.
//
// Parameters:
//   - seed: the seed
//
// Returns:
//   - GraphBuilderOption: a function that applies the option
func WithKernelSeed(seed uint64) GraphBuilderOption {
	return func(g *graph) {
		g.seed = seed
	}
}
