package resource

// RegistryBuilderOption is a functional option applied to a Registry during construction.
type RegistryBuilderOption func(*registry)

// WithClearColor sets the color ClearTransient clears color resources to.
//
// Parameters:
//   - color: the RGBA clear value
//
// Returns:
//   - RegistryBuilderOption: a function that applies the clear color
func WithClearColor(color [4]float32) RegistryBuilderOption {
	return func(g *registry) {
		g.clearColor = color
	}
}
