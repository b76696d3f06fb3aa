package state

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Names of the built-in state combinations.
const (
	BlendDisable    = "Disable"
	BlendAlpha      = "AlphaBlend"
	BlendAdditive   = "Additive"
	DepthDefault    = "Default"
	DepthLessEquals = "LessEquals"
	DepthReadOnly   = "ReadOnly"
	RasterDefault   = "Default"
	RasterNoCull    = "NoCull"
	RasterFrontFace = "FrontFace"
	RasterWireframe = "Wireframe"
	RasterBackCull  = "BackCull"
)

// manager is the implementation of the Manager interface.
type manager struct {
	mu     *sync.Mutex
	r      renderer.Renderer
	blend  map[string]renderer.BlendState
	depth  map[string]renderer.DepthState
	raster map[string]renderer.RasterState
}

// Manager is a registry of immutable blend, depth and rasterizer states selected by name.
// States are registered once at construction and applied to the injected Renderer.
type Manager interface {
	// SetBlendState applies the named blend state.
	//
	// Parameters:
	//   - name: the registered blend state name
	//
	// Returns:
	//   - error: an error if no blend state has that name
	SetBlendState(name string) error

	// SetDepthState applies the named depth state.
	//
	// Parameters:
	//   - name: the registered depth state name
	//
	// Returns:
	//   - error: an error if no depth state has that name
	SetDepthState(name string) error

	// SetRasterState applies the named rasterizer state.
	//
	// Parameters:
	//   - name: the registered rasterizer state name
	//
	// Returns:
	//   - error: an error if no rasterizer state has that name
	SetRasterState(name string) error

	// Blend returns the named blend state.
	//
	// Parameters:
	//   - name: the registered name
	//
	// Returns:
	//   - renderer.BlendState: the state
	//   - bool: false if the name is unknown
	Blend(name string) (renderer.BlendState, bool)

	// Depth returns the named depth state.
	//
	// Parameters:
	//   - name: the registered name
	//
	// Returns:
	//   - renderer.DepthState: the state
	//   - bool: false if the name is unknown
	Depth(name string) (renderer.DepthState, bool)

	// Raster returns the named rasterizer state.
	//
	// Parameters:
	//   - name: the registered name
	//
	// Returns:
	//   - renderer.RasterState: the state
	//   - bool: false if the name is unknown
	Raster(name string) (renderer.RasterState, bool)

	// Reset applies the Disable, Default and Default states.
	Reset()
}

var _ Manager = &manager{}

// NewManager creates a Manager holding the built-in states plus any registered by options.
//
// Parameters:
//   - r: the renderer the states are applied to
//   - options: functional options registering additional states
//
// Returns:
//   - Manager: the state manager
func NewManager(r renderer.Renderer, options ...ManagerBuilderOption) Manager {
	m := &manager{
		mu: &sync.Mutex{},
		r:  r,
		blend: map[string]renderer.BlendState{
			BlendDisable: {},
			BlendAlpha: {
				Enabled:  true,
				SrcColor: renderer.BlendFactorSrcAlpha,
				DstColor: renderer.BlendFactorOneMinusSrcAlpha,
				SrcAlpha: renderer.BlendFactorZero,
				DstAlpha: renderer.BlendFactorOne,
			},
			BlendAdditive: {
				Enabled:  true,
				SrcColor: renderer.BlendFactorSrcAlpha,
				DstColor: renderer.BlendFactorOne,
				SrcAlpha: renderer.BlendFactorOne,
				DstAlpha: renderer.BlendFactorOne,
			},
		},
		depth: map[string]renderer.DepthState{
			DepthDefault:    {TestEnabled: true, WriteEnabled: true, Compare: renderer.CompareLess},
			DepthLessEquals: {TestEnabled: true, WriteEnabled: true, Compare: renderer.CompareLessEqual},
			DepthReadOnly:   {TestEnabled: true, WriteEnabled: false, Compare: renderer.CompareLessEqual},
		},
		raster: map[string]renderer.RasterState{
			RasterDefault:   {Cull: renderer.CullBack},
			RasterNoCull:    {Cull: renderer.CullNone},
			RasterFrontFace: {Cull: renderer.CullFront},
			RasterWireframe: {Cull: renderer.CullBack, Wireframe: true},
			RasterBackCull:  {Cull: renderer.CullBack},
		},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *manager) SetBlendState(name string) error {
	s, ok := m.Blend(name)
	if !ok {
		return fmt.Errorf("state: unknown blend state %q", name)
	}
	m.r.SetBlendState(s)
	return nil
}

func (m *manager) SetDepthState(name string) error {
	s, ok := m.Depth(name)
	if !ok {
		return fmt.Errorf("state: unknown depth state %q", name)
	}
	m.r.SetDepthState(s)
	return nil
}

func (m *manager) SetRasterState(name string) error {
	s, ok := m.Raster(name)
	if !ok {
		return fmt.Errorf("state: unknown raster state %q", name)
	}
	m.r.SetRasterState(s)
	return nil
}

func (m *manager) Blend(name string) (renderer.BlendState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.blend[name]
	return s, ok
}

func (m *manager) Depth(name string) (renderer.DepthState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.depth[name]
	return s, ok
}

func (m *manager) Raster(name string) (renderer.RasterState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.raster[name]
	return s, ok
}

func (m *manager) Reset() {
	m.r.SetBlendState(m.blend[BlendDisable])
	m.r.SetDepthState(m.depth[DepthDefault])
	m.r.SetRasterState(m.raster[RasterDefault])
}
