package shadow

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
)

// Uniform slots used by the shadow program.
const (
	LightSlot  = 0
	ObjectSlot = 1
)

// lightBlockSize is the size of the light-space view-projection block.
const lightBlockSize = 64

// Data is the per-light shadow state. It lives from InitLight until ReleaseLight.
type Data struct {
	// ShadowMap is the R32Float light-space depth the lighting pass samples.
	ShadowMap renderer.Texture
	// Depth is the depth attachment used while rendering ShadowMap.
	Depth renderer.Texture
	// ViewProj is the light view-projection of the most recent Render.
	ViewProj [16]float32
	// Resolution is the width and height of ShadowMap in texels.
	Resolution int

	uniform renderer.Buffer
}

func (d *Data) release() {
	if d.uniform != nil {
		d.uniform.Release()
	}
	if d.Depth != nil {
		d.Depth.Release()
	}
	if d.ShadowMap != nil {
		d.ShadowMap.Release()
	}
}

// pass is the implementation of the Pass interface.
type pass struct {
	r       renderer.Renderer
	states  state.Manager
	program *shader.Program
	pool    worker.DynamicWorkerPool

	frustum Frustum
	workers int

	data    map[light.DirectionalLight]*Data
	order   []light.DirectionalLight
	models  []model.Model
	lights  []light.DirectionalLight
	objects renderer.Buffer
}

// Pass renders light-space depth for every submitted directional light that casts shadows.
type Pass interface {
	// InitLight creates the shadow map pair of l. Initializing a light twice is a no-op.
	//
	// Parameters:
	//   - l: the light
	//
	// Returns:
	//   - error: an error if a texture or buffer could not be created
	InitLight(l light.DirectionalLight) error

	// ReleaseLight frees the shadow map pair of l.
	//
	// Parameters:
	//   - l: the light
	ReleaseLight(l light.DirectionalLight)

	// Data returns the shadow state of l.
	//
	// Parameters:
	//   - l: the light
	//
	// Returns:
	//   - *Data: the shadow state
	//   - bool: false if l was never initialized
	Data(l light.DirectionalLight) (*Data, bool)

	// SubmitModel queues a model for the next Render.
	//
	// Parameters:
	//   - m: the model; nil is ignored
	SubmitModel(m model.Model)

	// SubmitLight queues a directional light for the next Render.
	// Lights that do not cast shadows are ignored.
	//
	// Parameters:
	//   - l: the light; nil is ignored
	SubmitLight(l light.DirectionalLight)

	// Pending returns the lengths of the submission lists.
	//
	// Returns:
	//   - int: the number of queued models
	//   - int: the number of queued lights
	Pending() (int, int)

	// Render draws every queued model into the shadow map of every queued light,
	// then clears both lists.
	//
	// Parameters:
	//   - cam: the camera the shadow volume follows
	Render(cam camera.Camera)

	// Clear drops the submission lists without rendering.
	Clear()

	// Release frees every light's shadow state and the pass buffers.
	Release()
}

var _ Pass = &pass{}

// NewPass creates a shadow pass.
//
// Parameters:
//   - r: the renderer to record into
//   - states: the named state registry
//   - program: the depth-only mesh program
//   - options: builder options
//
// Returns:
//   - Pass: the shadow pass
func NewPass(r renderer.Renderer, states state.Manager, program *shader.Program, options ...PassBuilderOption) Pass {
	p := &pass{
		r:       r,
		states:  states,
		program: program,
		frustum: Frustum{
			Extent:     light.DefaultShadowExtent,
			Offset:     light.DefaultShadowOffset,
			Near:       light.DefaultShadowNear,
			Far:        light.DefaultShadowFar,
			Resolution: light.DefaultShadowResolution,
		},
		workers: 4,
		data:    make(map[light.DirectionalLight]*Data),
	}
	for _, opt := range options {
		opt(p)
	}

	p.pool = worker.NewDynamicWorkerPool(p.workers, 256, 1*time.Second)

	var obj model.GPUObject
	objects, err := r.CreateBuffer(renderer.BufferDescriptor{Label: "Shadow.Object", Usage: renderer.BufferUsageUniform, Size: obj.Size()})
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to create object buffer: %v", err))
	}
	p.objects = objects
	return p
}

func (p *pass) InitLight(l light.DirectionalLight) error {
	if l == nil {
		return nil
	}
	if _, ok := p.data[l]; ok {
		return nil
	}

	res := p.frustum.Resolution
	d := &Data{Resolution: res}
	var err error
	d.ShadowMap, err = p.r.CreateTexture(renderer.TextureDescriptor{
		Label:  fmt.Sprintf("Shadow.Map%d", len(p.order)),
		Width:  res,
		Height: res,
		Format: renderer.FormatR32Float,
		Usage:  renderer.TextureUsageRenderTarget | renderer.TextureUsageSampled,
	})
	if err != nil {
		return fmt.Errorf("shadow: failed to create shadow map: %w", err)
	}
	d.Depth, err = p.r.CreateTexture(renderer.TextureDescriptor{
		Label:  fmt.Sprintf("Shadow.Depth%d", len(p.order)),
		Width:  res,
		Height: res,
		Format: renderer.FormatDepth32Float,
		Usage:  renderer.TextureUsageRenderTarget | renderer.TextureUsageSampled,
	})
	if err != nil {
		d.release()
		return fmt.Errorf("shadow: failed to create shadow depth: %w", err)
	}
	d.uniform, err = p.r.CreateBuffer(renderer.BufferDescriptor{
		Label: fmt.Sprintf("Shadow.Light%d", len(p.order)),
		Usage: renderer.BufferUsageUniform,
		Size:  lightBlockSize,
	})
	if err != nil {
		d.release()
		return fmt.Errorf("shadow: failed to create light buffer: %w", err)
	}

	p.data[l] = d
	p.order = append(p.order, l)
	return nil
}

func (p *pass) ReleaseLight(l light.DirectionalLight) {
	d, ok := p.data[l]
	if !ok {
		return
	}
	d.release()
	delete(p.data, l)
	for i, o := range p.order {
		if o == l {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *pass) Data(l light.DirectionalLight) (*Data, bool) {
	d, ok := p.data[l]
	return d, ok
}

func (p *pass) SubmitModel(m model.Model) {
	if m == nil {
		return
	}
	p.models = append(p.models, m)
}

func (p *pass) SubmitLight(l light.DirectionalLight) {
	if l == nil || !l.CastsShadows() {
		return
	}
	p.lights = append(p.lights, l)
}

func (p *pass) Pending() (int, int) {
	return len(p.models), len(p.lights)
}

func (p *pass) Clear() {
	p.models = p.models[:0]
	p.lights = p.lights[:0]
}

func (p *pass) Render(cam camera.Camera) {
	defer p.Clear()
	if cam == nil || len(p.lights) == 0 {
		return
	}

	for _, l := range p.lights {
		if _, ok := p.data[l]; ok {
			continue
		}
		log.Printf("[Shadow] WARN: directional light rendered before InitLight; creating shadow map now")
		if err := p.InitLight(l); err != nil {
			panic(fmt.Sprintf("shadow: failed to initialize light: %v", err))
		}
	}

	center := Center(cam.Position(), cam.Forward(), p.frustum.Offset)
	// Tasks only fill their own index; shared light data is written after Wait.
	viewProjs := make([][16]float32, len(p.lights))
	lightBytes := make([][]byte, len(p.lights))
	objectBytes := make([][]byte, len(p.models))

	var wg sync.WaitGroup
	taskID := 0
	for i, l := range p.lights {
		wg.Add(1)
		idx, lCap := i, l
		p.pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				vp := ViewProjection(lCap.Direction(), center, p.frustum)
				buf := make([]byte, lightBlockSize)
				for j, v := range vp {
					binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(v))
				}
				viewProjs[idx] = vp
				lightBytes[idx] = buf
				return nil, nil
			},
		})
		taskID++
	}
	for i, m := range p.models {
		wg.Add(1)
		idx, mCap := i, m
		p.pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				obj := model.NewGPUObject(mCap)
				objectBytes[idx] = obj.Marshal()
				return nil, nil
			},
		})
		taskID++
	}
	wg.Wait()
	for i, l := range p.lights {
		p.data[l].ViewProj = viewProjs[i]
	}

	p.mustState(p.states.SetRasterState(state.RasterNoCull))
	p.mustState(p.states.SetDepthState(state.DepthDefault))
	p.mustState(p.states.SetBlendState(state.BlendDisable))

	for i, l := range p.lights {
		d := p.data[l]
		p.r.BeginEvent(fmt.Sprintf("Shadow %d", i))
		p.r.SetRenderTargets(d.Depth, d.ShadowMap)
		p.r.ClearColor(d.ShadowMap, [4]float32{1, 1, 1, 1})
		p.r.ClearDepth(d.Depth, 1)
		p.r.SetProgram(p.program.Handle())
		p.r.WriteBuffer(d.uniform, lightBytes[i])
		p.r.BindUniform(LightSlot, d.uniform)
		p.r.BindUniform(ObjectSlot, p.objects)
		for j, m := range p.models {
			p.r.WriteBuffer(p.objects, objectBytes[j])
			for _, mesh := range m.Meshes() {
				if mesh == nil || mesh.IndexCount == 0 {
					continue
				}
				p.r.DrawIndexed(mesh.Vertices, mesh.Indices, mesh.IndexCount)
			}
		}
		p.r.UnsetRenderTargets()
		p.r.EndEvent()
	}
}

func (p *pass) mustState(err error) {
	if err != nil {
		panic(fmt.Sprintf("shadow: failed to select render state: %v", err))
	}
}

func (p *pass) Release() {
	for i := len(p.order) - 1; i >= 0; i-- {
		p.data[p.order[i]].release()
	}
	p.data = make(map[light.DirectionalLight]*Data)
	p.order = nil
	if p.objects != nil {
		p.objects.Release()
		p.objects = nil
	}
	p.Clear()
}
