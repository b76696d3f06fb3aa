package frame

import (
	"fmt"
	"io/fs"
	"log"
	"math/rand/v2"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/postprocess"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shadow"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/skybox"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
)

// Sampler slots bound once at Init and shared by every program.
const (
	SamplerLinearClamp = iota
	SamplerLinearWrap
	SamplerPointClamp
	SamplerPointWrap

	samplerCount
)

// NoiseSize is the edge length of the tiled occlusion rotation texture.
const NoiseSize = 8

// Names of the resources the frame hands to post-processing.
const (
	ResourceHDR       = "HDR"
	ResourceDepth     = "Depth"
	ResourceNoise     = "Noise"
	ResourceShadowMap = "ShadowMap"
)

var samplerDescs = [samplerCount]renderer.SamplerDescriptor{
	{Label: "Sampler.LinearClamp", Filter: renderer.FilterLinear, Address: renderer.AddressClamp},
	{Label: "Sampler.LinearWrap", Filter: renderer.FilterLinear, Address: renderer.AddressWrap},
	{Label: "Sampler.PointClamp", Filter: renderer.FilterPoint, Address: renderer.AddressClamp},
	{Label: "Sampler.PointWrap", Filter: renderer.FilterPoint, Address: renderer.AddressWrap},
}

// frame is the implementation of the Frame interface.
type frame struct {
	mu *sync.Mutex

	r          renderer.Renderer
	cfg        config.Frame
	fsys       fs.FS
	libOptions []shader.LibraryBuilderOption
	gpu        profiler.GPUProfiler
	observer   func(State)
	state      State

	states    state.Manager
	lib       shader.Library
	watcher   *shader.Watcher
	reg       resource.Registry
	gbuf      *resource.GBuffer
	depth     *resource.Resource
	hdr       *resource.Resource
	samplers  [samplerCount]renderer.Sampler
	noise     renderer.Texture
	fallbacks *resource.Fallbacks

	noiseBinding  *resource.External
	shadowBinding *resource.External

	frameBlock *deferred.FrameBlock
	shadows    shadow.Pass
	geometry   deferred.GeometryPass
	lighting   deferred.LightingPass
	sky        skybox.Skybox
	post       postprocess.Graph
	assembler  *postprocess.Assembler

	primary     light.DirectionalLight
	releasers   []func()
	initialized bool
}

// Frame sequences the GPU work of one frame: shadows, deferred geometry and
// lighting, the optional sky, a forward hook, and post-processing. It owns every
// intermediate resource and the passes that use them.
//
// Submit may be called from another goroutine than Render. Every other method must
// be called from the submission goroutine that owns the renderer.
type Frame interface {
	// Init creates the resources, programs and passes. It panics if one cannot be
	// created. A second call is a no-op.
	Init()

	// Render records one frame into dest. It must be called between the renderer's
	// BeginFrame and EndFrame. A nil camera logs an error, drops every submission,
	// and records nothing.
	//
	// Parameters:
	//   - time: the elapsed time in seconds
	//   - cam: the camera
	//   - dest: the destination, nil for the back buffer
	Render(time float32, cam camera.Camera, dest renderer.Texture)

	// Submit queues a model, point light, directional light or environment light
	// for the next Render. nil and other types are ignored.
	//
	// Parameters:
	//   - v: the object to submit
	Submit(v any)

	// SubmitModel queues a model for the shadow and geometry passes.
	//
	// Parameters:
	//   - m: the model
	SubmitModel(m model.Model)

	// SubmitPointLight queues a point light.
	//
	// Parameters:
	//   - l: the light
	SubmitPointLight(l light.PointLight)

	// SubmitDirectionalLight queues a directional light for the shadow and lighting
	// passes and makes it the primary light of post-processing.
	//
	// Parameters:
	//   - l: the light
	SubmitDirectionalLight(l light.DirectionalLight)

	// SubmitEnvironmentLight sets the environment light of the next Render.
	//
	// Parameters:
	//   - l: the light
	SubmitEnvironmentLight(l light.EnvironmentLight)

	// InitLight creates the shadow resources of a directional light ahead of its
	// first submission.
	//
	// Parameters:
	//   - l: the light
	//
	// Returns:
	//   - error: an error if the resources could not be created
	InitLight(l light.DirectionalLight) error

	// ReleaseLight frees the shadow resources of a directional light.
	//
	// Parameters:
	//   - l: the light
	ReleaseLight(l light.DirectionalLight)

	// ResizeTextures recreates every sized resource and rebuilds post-processing.
	// A zero dimension is a no-op.
	//
	// Parameters:
	//   - width: the new viewport width
	//   - height: the new viewport height
	ResizeTextures(width, height int)

	// Shutdown releases every owned resource in reverse creation order.
	Shutdown()

	// State returns the stage currently being recorded.
	//
	// Returns:
	//   - State: the state
	State() State

	// Size returns the size the sized resources were created at.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	Size() (int, int)

	// Registry returns the resource registry.
	//
	// Returns:
	//   - resource.Registry: the registry
	Registry() resource.Registry

	// Graph returns the post-processing graph. Custom techniques pushed into it are
	// dropped by the next ResizeTextures.
	//
	// Returns:
	//   - postprocess.Graph: the graph
	Graph() postprocess.Graph

	// Library returns the shader library.
	//
	// Returns:
	//   - shader.Library: the library
	Library() shader.Library

	// Skybox returns the sky renderer.
	//
	// Returns:
	//   - skybox.Skybox: the sky renderer
	Skybox() skybox.Skybox

	// SetSkyboxTexture replaces the sky cube map. A nil texture disables the sky draw.
	//
	// Parameters:
	//   - t: the cube texture
	SetSkyboxTexture(t renderer.Texture)
}

var _ Frame = &frame{}

// NewFrame creates a frame orchestrator. Call Init before the first Render.
//
// Parameters:
//   - r: the renderer
//   - options: builder options
//
// Returns:
//   - Frame: the frame
func NewFrame(r renderer.Renderer, options ...FrameBuilderOption) Frame {
	f := &frame{
		mu:  &sync.Mutex{},
		r:   r,
		cfg: config.Default(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// own pushes a release function run by Shutdown.
func (f *frame) own(release func()) {
	f.releasers = append(f.releasers, release)
}

func check(err error, what string) {
	if err != nil {
		panic(fmt.Sprintf("frame: failed to create %s: %v", what, err))
	}
}

func (f *frame) Init() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initialized {
		return
	}

	f.states = state.NewManager(f.r)
	f.initLibrary()

	for i, desc := range samplerDescs {
		s, err := f.r.CreateSampler(desc)
		check(err, desc.Label)
		f.samplers[i] = s
		f.r.BindSampler(i, s)
		f.own(s.Release)
	}

	w, h := f.r.Width(), f.r.Height()
	if w <= 0 || h <= 0 {
		w, h = f.cfg.Width, f.cfg.Height
	}
	f.reg = resource.NewRegistry(f.r, w, h)
	f.own(f.reg.Release)
	var err error
	f.hdr, err = f.reg.Register(resource.Desc{Name: ResourceHDR, Policy: resource.SizeFull, Format: renderer.FormatRGBA16Float})
	check(err, "hdr target")
	f.depth, err = f.reg.Register(resource.Desc{Name: ResourceDepth, Policy: resource.SizeFull, Format: renderer.FormatDepth32Float})
	check(err, "depth target")
	f.gbuf, err = resource.NewGBuffer(f.reg)
	check(err, "gbuffer")

	rng := rand.New(rand.NewPCG(uint64(NoiseSize), 0x5eed))
	f.noise, err = f.r.CreateTexture(renderer.TextureDescriptor{
		Label:  "Noise",
		Width:  NoiseSize,
		Height: NoiseSize,
		Format: renderer.FormatRGBA32Float,
		Usage:  renderer.TextureUsageSampled | renderer.TextureUsageCopyDst,
		Data:   postprocess.NoiseData(rng, NoiseSize),
	})
	check(err, "noise texture")
	f.own(f.noise.Release)

	f.fallbacks, err = resource.NewFallbacks(f.r)
	check(err, "fallback textures")
	f.own(f.fallbacks.Release)
	f.noiseBinding = resource.NewExternal(ResourceNoise, f.noise)
	f.shadowBinding = resource.NewExternal(ResourceShadowMap, f.fallbacks.White)

	f.frameBlock, err = deferred.NewFrameBlock(f.r)
	check(err, "frame block")
	f.own(f.frameBlock.Release)

	programs := make(map[string]*shader.Program, len(programDescs))
	for _, desc := range programDescs {
		programs[desc.Label] = f.lib.MustLoad(desc)
	}

	f.shadows = shadow.NewPass(f.r, f.states, programs[ProgramShadow],
		shadow.WithResolution(f.cfg.Shadow.Resolution),
		shadow.WithExtent(f.cfg.Shadow.Extent),
		shadow.WithOffset(f.cfg.Shadow.Offset),
		shadow.WithWorkers(f.cfg.Workers),
	)
	f.own(f.shadows.Release)
	f.geometry = deferred.NewGeometryPass(f.r, f.states, programs[ProgramGeometry], f.frameBlock, f.fallbacks,
		deferred.WithGeometryWorkers(f.cfg.Workers),
	)
	f.own(f.geometry.Release)
	f.lighting = deferred.NewLightingPass(f.r, f.states, deferred.LightingPrograms{
		Ambient:     programs[ProgramAmbient],
		Directional: programs[ProgramDirectional],
		Point:       programs[ProgramPoint],
	}, f.frameBlock, f.fallbacks)
	f.own(f.lighting.Release)
	f.sky = skybox.NewSkybox(f.r, f.states, programs[ProgramSkybox], nil)
	f.own(f.sky.Release)

	in := postprocess.Inputs{
		HDR:       f.hdr,
		Depth:     f.depth,
		Normal:    f.gbuf.Slot(resource.GBufferNormal),
		Noise:     f.noiseBinding,
		ShadowMap: f.shadowBinding,
	}
	graphOptions := []postprocess.GraphBuilderOption{
		postprocess.WithProduced(in.Names()...),
		postprocess.WithShadowSource(f.shadows),
	}
	if f.gpu != nil {
		graphOptions = append(graphOptions, postprocess.WithTimestamper(f.gpu))
	}
	f.post = postprocess.NewGraph(f.r, f.states, graphOptions...)
	f.own(f.post.Release)
	f.assembler = postprocess.NewAssembler(f.reg, f.lib, in)
	if err := f.assembler.Build(f.post, f.postOptions()); err != nil {
		panic(fmt.Sprintf("frame: failed to build post-processing: %v", err))
	}

	f.initialized = true
	log.Printf("[Frame] Initialized at %dx%d with %d post-processing techniques", w, h, len(f.post.Techniques()))
}

// initLibrary opens the shader source tree and, with hot reload, watches it.
func (f *frame) initLibrary() {
	fsys := f.fsys
	root := ""
	if fsys == nil {
		if f.cfg.ShaderRoot != "" {
			root = f.cfg.ShaderRoot
			fsys = os.DirFS(root)
		} else {
			fsys = Shaders
		}
	}
	f.lib = shader.NewLibrary(f.r, fsys, f.libOptions...)
	f.own(f.lib.Release)

	if root == "" || !f.cfg.HotReload {
		return
	}
	w, err := shader.NewWatcher(f.lib, root, 0)
	if err != nil {
		log.Printf("[Frame] WARN: hot reload disabled: %v", err)
		return
	}
	f.watcher = w
	f.own(func() {
		if err := w.Close(); err != nil {
			log.Printf("[Frame] WARN: failed to close shader watcher: %v", err)
		}
	})
}

func (f *frame) postOptions() postprocess.Options {
	p := f.cfg.Post
	return postprocess.Options{
		SSAO:            p.SSAO,
		Bloom:           p.Bloom,
		Volumetric:      p.Volumetric,
		AntiAliasing:    p.AntiAliasing,
		BloomIterations: p.BloomIterations,
	}
}

func (f *frame) setState(s State) {
	f.state = s
	if f.observer != nil {
		f.observer(s)
	}
}

func (f *frame) timestamp(name string) {
	if f.gpu != nil {
		f.gpu.Timestamp(name)
	}
}

func (f *frame) mustState(err error) {
	if err != nil {
		panic(fmt.Sprintf("frame: failed to select state: %v", err))
	}
}

// clear drops every pending submission.
func (f *frame) clear() {
	f.shadows.Clear()
	f.geometry.Clear()
	f.lighting.Clear()
	f.primary = nil
}

func (f *frame) Render(time float32, cam camera.Camera, dest renderer.Texture) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		log.Printf("[Frame] ERROR: Render called before Init")
		return
	}
	if cam == nil {
		log.Printf("[Frame] ERROR: no camera, skipping frame")
		f.clear()
		return
	}
	if dest == nil {
		dest = f.r.BackBuffer()
	}
	defer func() { f.primary = nil }()

	if f.gpu != nil {
		f.gpu.BeginFrame()
	}
	f.reg.SwapPingPongs()
	f.reg.ClearTransient()

	f.setState(StateShadow)
	f.r.BeginEvent("Shadow")
	f.shadows.Render(cam)
	f.r.EndEvent()
	f.timestamp("Shadow")

	f.setState(StateGeometry)
	f.r.BeginEvent("Geometry")
	f.geometry.Render(cam, time, f.gbuf, f.depth.Texture())
	f.r.EndEvent()
	f.timestamp("Geometry")

	f.setState(StateLighting)
	f.r.BeginEvent("Lighting")
	f.lighting.Render(f.gbuf, f.depth.Texture(), f.hdr.Texture(), f.shadows)
	f.r.EndEvent()
	f.timestamp("Lighting")

	if f.cfg.Skybox {
		f.r.BeginEvent("Skybox")
		drawn := f.sky.Render(f.frameBlock, f.hdr.Texture(), f.depth.Texture())
		f.r.EndEvent()
		if drawn {
			f.timestamp("Skybox")
		}
	}

	// Forward hook: translucent draws go here once there are any.
	f.mustState(f.states.SetBlendState(state.BlendAlpha))
	f.timestamp("Forward")

	f.setState(StatePostProcess)
	f.shadowBinding.Set(f.fallbacks.White)
	if f.primary != nil {
		if d, ok := f.shadows.Data(f.primary); ok {
			f.shadowBinding.Set(d.ShadowMap)
		}
	}
	f.post.Render(dest, cam, f.primary)

	f.setState(StatePresent)
	if f.gpu != nil {
		f.gpu.EndFrame()
		f.gpu.WaitForDataAndUpdate()
	}
	f.setState(StateIdle)
}

func (f *frame) Submit(v any) {
	switch o := v.(type) {
	case model.Model:
		f.SubmitModel(o)
	case light.DirectionalLight:
		f.SubmitDirectionalLight(o)
	case light.PointLight:
		f.SubmitPointLight(o)
	case light.EnvironmentLight:
		f.SubmitEnvironmentLight(o)
	}
}

func (f *frame) SubmitModel(m model.Model) {
	if m == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return
	}
	f.shadows.SubmitModel(m)
	f.geometry.Submit(m)
}

func (f *frame) SubmitPointLight(l light.PointLight) {
	if l == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return
	}
	f.lighting.SubmitPointLight(l)
}

func (f *frame) SubmitDirectionalLight(l light.DirectionalLight) {
	if l == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return
	}
	f.shadows.SubmitLight(l)
	f.lighting.SubmitDirectionalLight(l)
	f.primary = l
}

func (f *frame) SubmitEnvironmentLight(l light.EnvironmentLight) {
	if l == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return
	}
	f.lighting.SubmitEnvironment(l)
}

func (f *frame) InitLight(l light.DirectionalLight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return fmt.Errorf("frame: InitLight called before Init")
	}
	return f.shadows.InitLight(l)
}

func (f *frame) ReleaseLight(l light.DirectionalLight) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initialized {
		f.shadows.ReleaseLight(l)
	}
}

func (f *frame) ResizeTextures(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return
	}
	if w, h := f.reg.Size(); w == width && h == height {
		return
	}

	if err := f.reg.Resize(width, height); err != nil {
		panic(fmt.Sprintf("frame: failed to resize resources: %v", err))
	}
	f.post.Clear()
	if err := f.assembler.Build(f.post, f.postOptions()); err != nil {
		panic(fmt.Sprintf("frame: failed to rebuild post-processing: %v", err))
	}
	log.Printf("[Frame] Resized to %dx%d", width, height)
}

func (f *frame) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.releasers) - 1; i >= 0; i-- {
		f.releasers[i]()
	}
	f.releasers = nil
	f.initialized = false
}

func (f *frame) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *frame) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reg == nil {
		return 0, 0
	}
	return f.reg.Size()
}

func (f *frame) Registry() resource.Registry { return f.reg }
func (f *frame) Graph() postprocess.Graph      { return f.post }
func (f *frame) Library() shader.Library       { return f.lib }
func (f *frame) Skybox() skybox.Skybox         { return f.sky }

func (f *frame) SetSkyboxTexture(t renderer.Texture) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sky != nil {
		f.sky.SetTexture(t)
	}
}
