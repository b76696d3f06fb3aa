package material

// MaterialBuilderOption is a functional option for configuring a Material.
type MaterialBuilderOption func(*material)

// WithName sets the name of the Material.
//
// Parameters:
//   - name: the name to set for the Material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithAlbedo sets a constant base color. The alpha is the surface opacity.
//
// Parameters:
//   - r, g, b, a: the base color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color option to a material
func WithAlbedo(r, g, b, a float32) MaterialBuilderOption {
	return func(m *material) {
		m.albedo = [4]float32{r, g, b, a}
	}
}

// WithMetallic sets a constant metallic factor.
//
// Parameters:
//   - metallic: the metallic factor in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness sets a constant roughness factor.
//
// Parameters:
//   - roughness: the roughness factor in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithAO sets a constant ambient occlusion factor.
func WithAO(ao float32) MaterialBuilderOption {
	return func(m *material) {
		m.ao = ao
	}
}

// WithEmissive sets a constant emissive strength.
func WithEmissive(emissive float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = emissive
	}
}
