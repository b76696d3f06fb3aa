package skybox

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
)

// CubeSlot is the texture slot of the sky cube map.
const CubeSlot = 0

// skybox is the implementation of the Skybox interface.
type skybox struct {
	r       renderer.Renderer
	states  state.Manager
	program *shader.Program
	cube    *model.Mesh
	texture renderer.Texture
}

// Skybox draws a cube-mapped sky behind the lit scene. Its program writes depth 1,
// so only pixels no geometry covered pass the LessEqual test.
type Skybox interface {
	// SetTexture replaces the sky cube map. A nil texture disables the draw.
	//
	// Parameters:
	//   - t: the cube texture
	SetTexture(t renderer.Texture)

	// Texture returns the sky cube map.
	//
	// Returns:
	//   - renderer.Texture: the cube texture, or nil
	Texture() renderer.Texture

	// Render draws the sky into target, depth-tested against depth without writing it.
	//
	// Parameters:
	//   - frame: the frame block holding the camera
	//   - target: the HDR target
	//   - depth: the scene depth
	//
	// Returns:
	//   - bool: false if no cube map is set
	Render(frame *deferred.FrameBlock, target, depth renderer.Texture) bool

	// Release frees the cube mesh. The cube map is owned by the caller.
	Release()
}

var _ Skybox = &skybox{}

// NewSkybox creates a skybox renderer.
//
// Parameters:
//   - r: the renderer
//   - states: the named state registry
//   - program: the sky program
//   - texture: the cube map, may be nil
//
// Returns:
//   - Skybox: the skybox
func NewSkybox(r renderer.Renderer, states state.Manager, program *shader.Program, texture renderer.Texture) Skybox {
	mesh, err := model.Upload(r, model.Cube([4]float32{1, 1, 1, 1}))
	if err != nil {
		panic(fmt.Sprintf("skybox: failed to create cube: %v", err))
	}
	return &skybox{r: r, states: states, program: program, cube: mesh, texture: texture}
}

func (s *skybox) SetTexture(t renderer.Texture) { s.texture = t }

func (s *skybox) Texture() renderer.Texture { return s.texture }

func (s *skybox) Render(frame *deferred.FrameBlock, target, depth renderer.Texture) bool {
	if s.texture == nil {
		return false
	}
	for _, err := range []error{
		s.states.SetDepthState(state.DepthReadOnly),
		s.states.SetRasterState(state.RasterNoCull),
		s.states.SetBlendState(state.BlendDisable),
	} {
		if err != nil {
			panic(fmt.Sprintf("skybox: failed to select render state: %v", err))
		}
	}

	s.r.BeginEvent("Skybox")
	s.r.SetRenderTargets(depth, target)
	s.r.SetProgram(s.program.Handle())
	frame.Bind(s.r)
	s.r.BindTexture(CubeSlot, s.texture)
	s.r.DrawIndexed(s.cube.Vertices, s.cube.Indices, s.cube.IndexCount)
	s.r.UnbindTexture(CubeSlot)
	s.r.UnsetRenderTargets()
	s.r.EndEvent()
	return true
}

func (s *skybox) Release() {
	if s.cube != nil {
		s.cube.Release()
		s.cube = nil
	}
}
