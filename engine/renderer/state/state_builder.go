package state

import "github.com/Carmen-Shannon/oxy-deferred/engine/renderer"

// ManagerBuilderOption is a functional option applied to a Manager during construction.
type ManagerBuilderOption func(*manager)

// WithBlendState registers an additional named blend state. Built-in names cannot be replaced.
//
// Parameters:
//   - name: the state name
//   - s: the blend state
//
// Returns:
//   - ManagerBuilderOption: a function that registers the state
func WithBlendState(name string, s renderer.BlendState) ManagerBuilderOption {
	return func(m *manager) {
		if _, exists := m.blend[name]; !exists {
			m.blend[name] = s
		}
	}
}

// WithDepthState registers an additional named depth state. Built-in names cannot be replaced.
//
// Parameters:
//   - name: the state name
//   - s: the depth state
//
// Returns:
//   - ManagerBuilderOption: a function that registers the state
func WithDepthState(name string, s renderer.DepthState) ManagerBuilderOption {
	return func(m *manager) {
		if _, exists := m.depth[name]; !exists {
			m.depth[name] = s
		}
	}
}

// WithRasterState registers an additional named rasterizer state. Built-in names cannot be replaced.
//
// Parameters:
//   - name: the state name
//   - s: the rasterizer state
//
// Returns:
//   - ManagerBuilderOption: a function that registers the state
func WithRasterState(name string, s renderer.RasterState) ManagerBuilderOption {
	return func(m *manager) {
		if _, exists := m.raster[name]; !exists {
			m.raster[name] = s
		}
	}
}
