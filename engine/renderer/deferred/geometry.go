package deferred

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
)

// geometryPass is the implementation of the GeometryPass interface.
type geometryPass struct {
	r         renderer.Renderer
	states    state.Manager
	program   *shader.Program
	frame     *FrameBlock
	fallbacks *resource.Fallbacks
	pool      worker.DynamicWorkerPool
	workers   int

	models  []model.Model
	objects renderer.Buffer
}

// GeometryPass fills the GBuffer and depth with every submitted model.
type GeometryPass interface {
	// Submit queues a model for the next Render.
	//
	// Parameters:
	//   - m: the model; nil is ignored
	Submit(m model.Model)

	// Pending returns the number of queued models.
	//
	// Returns:
	//   - int: the queue length
	Pending() int

	// Render refreshes the frame block, draws every queued model back to front into
	// gbuf and depth, then clears the queue.
	//
	// Parameters:
	//   - cam: the camera
	//   - time: the frame time in seconds
	//   - gbuf: the GBuffer to write
	//   - depth: the depth target
	Render(cam camera.Camera, time float32, gbuf *resource.GBuffer, depth renderer.Texture)

	// Clear drops the queue without rendering.
	Clear()

	// Release frees the pass buffers.
	Release()
}

var _ GeometryPass = &geometryPass{}

// NewGeometryPass creates a geometry pass.
//
// Parameters:
//   - r: the renderer
//   - states: the named state registry
//   - program: the mesh program writing the four GBuffer targets
//   - frame: the shared frame block
//   - fallbacks: textures bound into empty material slots
//   - options: builder options
//
// Returns:
//   - GeometryPass: the pass
func NewGeometryPass(r renderer.Renderer, states state.Manager, program *shader.Program, frame *FrameBlock, fallbacks *resource.Fallbacks, options ...GeometryPassBuilderOption) GeometryPass {
	g := &geometryPass{
		r:         r,
		states:    states,
		program:   program,
		frame:     frame,
		fallbacks: fallbacks,
		workers:   4,
	}
	for _, opt := range options {
		opt(g)
	}
	g.pool = worker.NewDynamicWorkerPool(g.workers, 256, 1*time.Second)

	var obj model.GPUObject
	objects, err := r.CreateBuffer(renderer.BufferDescriptor{Label: "Geometry.Object", Usage: renderer.BufferUsageUniform, Size: obj.Size()})
	if err != nil {
		panic(fmt.Sprintf("deferred: failed to create object buffer: %v", err))
	}
	g.objects = objects
	return g
}

func (g *geometryPass) Submit(m model.Model) {
	if m == nil {
		return
	}
	g.models = append(g.models, m)
}

func (g *geometryPass) Pending() int { return len(g.models) }

func (g *geometryPass) Clear() { g.models = g.models[:0] }

// fallback returns the texture bound into mesh slot when the mesh has none.
func (g *geometryPass) fallback(slot int) renderer.Texture {
	switch slot {
	case model.TextureNormal:
		return g.fallbacks.FlatNormal
	case model.TextureEmissive:
		return g.fallbacks.Black
	}
	return g.fallbacks.White
}

// SortBackToFront orders models by descending squared distance from eye. The sort
// is not stable; models at equal distance may swap between frames.
//
// Parameters:
//   - models: the models, sorted in place
//   - eye: the camera position
func SortBackToFront(models []model.Model, eye [3]float32) {
	dist := make(map[model.Model]float32, len(models))
	for _, m := range models {
		dist[m] = common.LengthSq3(common.Sub3(m.Position(), eye))
	}
	sort.Slice(models, func(i, j int) bool {
		return dist[models[i]] > dist[models[j]]
	})
}

func (g *geometryPass) Render(cam camera.Camera, time float32, gbuf *resource.GBuffer, depth renderer.Texture) {
	defer g.Clear()
	if cam == nil {
		return
	}

	g.frame.Update(g.r, cam, time, g.r.Width(), g.r.Height())
	SortBackToFront(g.models, cam.Position())

	blocks := make([][]byte, len(g.models))
	var wg sync.WaitGroup
	for i, m := range g.models {
		wg.Add(1)
		idx, mCap := i, m
		g.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				obj := model.NewGPUObject(mCap)
				blocks[idx] = obj.Marshal()
				return nil, nil
			},
		})
	}
	wg.Wait()

	if err := g.states.SetRasterState(state.RasterDefault); err != nil {
		panic(fmt.Sprintf("deferred: failed to select raster state: %v", err))
	}
	if err := g.states.SetDepthState(state.DepthDefault); err != nil {
		panic(fmt.Sprintf("deferred: failed to select depth state: %v", err))
	}
	if err := g.states.SetBlendState(state.BlendDisable); err != nil {
		panic(fmt.Sprintf("deferred: failed to select blend state: %v", err))
	}

	gbuf.BindTargets(g.r, depth)
	g.r.SetProgram(g.program.Handle())
	g.frame.Bind(g.r)
	g.r.BindUniform(ObjectSlot, g.objects)

	for i, m := range g.models {
		g.r.WriteBuffer(g.objects, blocks[i])
		for _, mesh := range m.Meshes() {
			if mesh == nil || mesh.IndexCount == 0 {
				continue
			}
			for slot := 0; slot < model.MeshTextureCount; slot++ {
				tex := mesh.Textures[slot]
				if tex == nil {
					tex = g.fallback(slot)
				}
				g.r.BindTexture(slot, tex)
			}
			g.r.DrawIndexed(mesh.Vertices, mesh.Indices, mesh.IndexCount)
		}
	}

	for slot := 0; slot < model.MeshTextureCount; slot++ {
		g.r.UnbindTexture(slot)
	}
	g.r.UnsetRenderTargets()
}

func (g *geometryPass) Release() {
	if g.objects != nil {
		g.objects.Release()
		g.objects = nil
	}
	g.Clear()
}
