package postprocess

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shadow"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
)

// Uniform slots used by post-processing programs.
const (
	FrameSlot  = 0
	ParamsSlot = 1
)

var (
	// ErrReadBeforeWrite reports a stage input that no earlier stage produced.
	ErrReadBeforeWrite = errors.New("postprocess: stage reads a resource before it is written")
	// ErrFeedbackLoop reports a stage that reads its own output.
	ErrFeedbackLoop = errors.New("postprocess: stage reads its own output")
	// ErrInvalidStage reports a stage without a program or a target.
	ErrInvalidStage = errors.New("postprocess: invalid stage")
)

// Producer is the pseudo stage name of resources written before post-processing.
const Producer = "<frame>"

// Edge is one resource dependency: To reads Resource, which From wrote.
type Edge struct {
	From     string
	To       string
	Resource string
}

// Timestamper records a named GPU timestamp.
type Timestamper interface {
	Timestamp(name string)
}

// ShadowSource resolves the shadow state of a directional light.
type ShadowSource interface {
	Data(l light.DirectionalLight) (*shadow.Data, bool)
}

// graph is the implementation of the Graph interface.
type graph struct {
	mu     *sync.Mutex
	r      renderer.Renderer
	states state.Manager

	techniques []*Technique
	produced   map[string]struct{}
	written    map[string]string
	edges      []Edge

	frame   renderer.Buffer
	block   GPUPostFrame
	timer   Timestamper
	shadows ShadowSource
	seed    uint64
}

// Graph executes an ordered list of techniques of full-screen stages. Every pushed
// stage is validated against the resources written by the stages before it.
type Graph interface {
	// PushStage appends a single-stage technique named after the stage.
	//
	// Parameters:
	//   - s: the stage
	//
	// Returns:
	//   - error: ErrReadBeforeWrite, ErrFeedbackLoop or ErrInvalidStage
	PushStage(s *Stage) error

	// PushTechnique appends a technique. Either every stage is accepted or none is.
	//
	// Parameters:
	//   - t: the technique
	//
	// Returns:
	//   - error: ErrReadBeforeWrite, ErrFeedbackLoop or ErrInvalidStage
	PushTechnique(t *Technique) error

	// Techniques returns the techniques in execution order.
	//
	// Returns:
	//   - []*Technique: the techniques
	Techniques() []*Technique

	// Dependencies returns every input edge of the pushed stages in push order.
	//
	// Returns:
	//   - []Edge: the edges
	Dependencies() []Edge

	// Clear drops every technique and the stage buffers.
	Clear()

	// Render refreshes the frame block and draws every stage in order.
	//
	// Parameters:
	//   - dest: the destination of ToDestination stages
	//   - cam: the camera
	//   - primary: the light used by volumetric and shadow-aware stages, may be nil
	Render(dest renderer.Texture, cam camera.Camera, primary light.DirectionalLight)

	// Release frees the frame block and every stage buffer.
	Release()
}

var _ Graph = &graph{}

// NewGraph creates an empty graph.
//
// Parameters:
//   - r: the renderer
//   - states: the named state registry
//   - options: builder options
//
// Returns:
//   - Graph: the graph
func NewGraph(r renderer.Renderer, states state.Manager, options ...GraphBuilderOption) Graph {
	g := &graph{
		mu:       &sync.Mutex{},
		r:        r,
		states:   states,
		produced: make(map[string]struct{}),
		written:  make(map[string]string),
		seed:     1,
	}
	for _, opt := range options {
		opt(g)
	}

	g.block.Kernel = OcclusionKernel(rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15)))
	buf, err := r.CreateBuffer(renderer.BufferDescriptor{Label: "Post.Frame", Usage: renderer.BufferUsageUniform, Size: g.block.Size()})
	if err != nil {
		panic(fmt.Sprintf("postprocess: failed to create frame block: %v", err))
	}
	g.frame = buf
	return g
}

func (g *graph) PushStage(s *Stage) error {
	if s == nil {
		return fmt.Errorf("%w: nil stage", ErrInvalidStage)
	}
	return g.PushTechnique(NewTechnique(s.Name, s))
}

func (g *graph) PushTechnique(t *Technique) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if t == nil || len(t.Stages) == 0 {
		return fmt.Errorf("%w: empty technique", ErrInvalidStage)
	}

	written := make(map[string]string, len(g.written))
	for k, v := range g.written {
		written[k] = v
	}
	var edges []Edge
	for _, s := range t.Stages {
		if s == nil || s.Program == nil {
			return fmt.Errorf("%w: %s: missing program", ErrInvalidStage, t.Name)
		}
		if !s.ToDestination && s.Output == nil {
			return fmt.Errorf("%w: %s/%s: no output", ErrInvalidStage, t.Name, s.Name)
		}
		id := t.Name + "/" + s.Name
		for _, in := range s.Inputs {
			name := in.Name()
			if !s.ToDestination && name == s.Output.Name() {
				return fmt.Errorf("%w: %s reads %q", ErrFeedbackLoop, id, name)
			}
			from, ok := written[name]
			switch {
			case ok:
			case in.Persistent():
				from = name
			default:
				if _, pre := g.produced[name]; !pre {
					return fmt.Errorf("%w: %s reads %q", ErrReadBeforeWrite, id, name)
				}
				from = Producer
			}
			edges = append(edges, Edge{From: from, To: id, Resource: name})
		}
		if !s.ToDestination {
			written[s.Output.Name()] = id
		}
	}

	for _, s := range t.Stages {
		if s.params != nil {
			continue
		}
		var p GPUStageParams
		buf, err := g.r.CreateBuffer(renderer.BufferDescriptor{Label: "Post." + t.Name + "." + s.Name, Usage: renderer.BufferUsageUniform, Size: p.Size()})
		if err != nil {
			return fmt.Errorf("postprocess: failed to create params for %s/%s: %w", t.Name, s.Name, err)
		}
		s.params = buf
	}

	g.written = written
	g.edges = append(g.edges, edges...)
	g.techniques = append(g.techniques, t)
	return nil
}

func (g *graph) Techniques() []*Technique {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Technique(nil), g.techniques...)
}

func (g *graph) Dependencies() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Edge(nil), g.edges...)
}

func (g *graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clear()
}

func (g *graph) clear() {
	for i := len(g.techniques) - 1; i >= 0; i-- {
		stages := g.techniques[i].Stages
		for j := len(stages) - 1; j >= 0; j-- {
			if stages[j].params != nil {
				stages[j].params.Release()
				stages[j].params = nil
			}
		}
	}
	g.techniques = nil
	g.edges = nil
	g.written = make(map[string]string)
}

// updateFrame rewrites the shared block from the camera and the primary light.
func (g *graph) updateFrame(cam camera.Camera, primary light.DirectionalLight) {
	b := &g.block
	b.View = cam.ViewMatrix()
	b.Proj = cam.ProjectionMatrix()
	b.InvView = cam.InverseViewMatrix()
	b.InvProj = cam.InverseProjectionMatrix()
	b.CameraPosition = cam.Position()
	b.Near, b.Far = cam.Near(), cam.Far()
	b.Resolution = [2]float32{float32(g.r.Width()), float32(g.r.Height())}

	b.LightViewProj = common.Identity4()
	b.LightDirection = [3]float32{0, -1, 0}
	b.LightColor = [3]float32{}
	b.LightIntensity = 0
	b.HasLight = 0
	if primary != nil {
		b.LightDirection = common.Normalize3(primary.Direction())
		b.LightColor = primary.Color()
		b.LightIntensity = primary.Intensity()
		b.HasLight = 1
		if g.shadows != nil {
			if d, ok := g.shadows.Data(primary); ok {
				b.LightViewProj = d.ViewProj
			}
		}
	}
	g.r.WriteBuffer(g.frame, b.Marshal())
}

func (g *graph) Render(dest renderer.Texture, cam camera.Camera, primary light.DirectionalLight) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cam == nil || len(g.techniques) == 0 {
		return
	}
	g.updateFrame(cam, primary)

	for _, t := range g.techniques {
		for _, s := range t.Stages {
			out := s.target(dest)
			p := NewGPUStageParams(out.Width(), out.Height())
			g.r.WriteBuffer(s.params, p.Marshal())
		}
	}

	if err := g.states.SetRasterState(state.RasterNoCull); err != nil {
		panic(fmt.Sprintf("postprocess: failed to select raster state: %v", err))
	}
	if err := g.states.SetDepthState(state.DepthReadOnly); err != nil {
		panic(fmt.Sprintf("postprocess: failed to select depth state: %v", err))
	}

	for _, t := range g.techniques {
		g.r.BeginEvent(t.Name)
		for _, s := range t.Stages {
			g.renderStage(s, dest)
		}
		g.r.EndEvent()
		if g.timer != nil {
			g.timer.Timestamp(t.Name)
		}
	}
	g.r.UnsetRenderTargets()
}

func (g *graph) renderStage(s *Stage, dest renderer.Texture) {
	if err := g.states.SetBlendState(s.Blend); err != nil {
		panic(fmt.Sprintf("postprocess: failed to select blend state for %s: %v", s.Name, err))
	}
	g.r.BeginEvent(s.Name)
	for slot, in := range s.Inputs {
		g.r.BindTexture(slot, in.Texture())
	}
	g.r.SetProgram(s.Program.Handle())
	g.r.SetRenderTargets(nil, s.target(dest))
	g.r.BindUniform(FrameSlot, g.frame)
	g.r.BindUniform(ParamsSlot, s.params)
	g.r.Draw(3)
	for slot := range s.Inputs {
		g.r.UnbindTexture(slot)
	}
	g.r.EndEvent()
}

func (g *graph) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clear()
	if g.frame != nil {
		g.frame.Release()
		g.frame = nil
	}
}
