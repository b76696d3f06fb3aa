package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shadow"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
)

// Texture slots read by the lighting programs in addition to the GBuffer on 0..4.
const (
	ShadowMapSlot   = 8
	IrradianceSlot  = 9
	PrefilteredSlot = 10
	BRDFSlot        = 11
)

// Volume sphere tessellation used for point lights.
const (
	sphereSlices = 10
	sphereStacks = 10
)

// ShadowSource resolves the shadow state of a directional light.
type ShadowSource interface {
	Data(l light.DirectionalLight) (*shadow.Data, bool)
}

// LightingPrograms are the three programs the lighting pass draws with.
type LightingPrograms struct {
	// Ambient is the full-screen environment program.
	Ambient *shader.Program
	// Directional is the full-screen directional light program.
	Directional *shader.Program
	// Point is the light volume program drawn on the unit sphere.
	Point *shader.Program
}

// lightingPass is the implementation of the LightingPass interface.
type lightingPass struct {
	r         renderer.Renderer
	states    state.Manager
	programs  LightingPrograms
	frame     *FrameBlock
	fallbacks *resource.Fallbacks

	points      []light.PointLight
	directional []light.DirectionalLight
	environment light.EnvironmentLight

	sphere     *model.Mesh
	ambientBuf renderer.Buffer
	dirBuf     renderer.Buffer
	pointBuf   renderer.Buffer
}

// LightingPass accumulates every submitted light into the HDR target from the GBuffer.
type LightingPass interface {
	// SubmitPointLight queues a point light.
	//
	// Parameters:
	//   - l: the light; nil is ignored
	SubmitPointLight(l light.PointLight)

	// SubmitDirectionalLight queues a directional light.
	//
	// Parameters:
	//   - l: the light; nil is ignored
	SubmitDirectionalLight(l light.DirectionalLight)

	// SubmitEnvironment sets the environment light of the next Render. The most
	// recent submission wins.
	//
	// Parameters:
	//   - l: the light; nil is ignored
	SubmitEnvironment(l light.EnvironmentLight)

	// Pending returns the queue lengths.
	//
	// Returns:
	//   - int: queued point lights
	//   - int: queued directional lights
	//   - bool: true if an environment light is set
	Pending() (int, int, bool)

	// Render draws the ambient term, every directional light and every point light
	// additively into target, then clears the queues.
	//
	// Parameters:
	//   - gbuf: the GBuffer to read
	//   - depth: the scene depth to read
	//   - target: the HDR target
	//   - shadows: resolves shadow maps of directional lights, may be nil
	Render(gbuf *resource.GBuffer, depth, target renderer.Texture, shadows ShadowSource)

	// Clear drops the queues without rendering.
	Clear()

	// Release frees the light volume mesh and the light buffers.
	Release()
}

var _ LightingPass = &lightingPass{}

// NewLightingPass creates a lighting pass.
//
// Parameters:
//   - r: the renderer
//   - states: the named state registry
//   - programs: the ambient, directional and point programs
//   - frame: the shared frame block
//   - fallbacks: textures bound into empty slots
//
// Returns:
//   - LightingPass: the pass
func NewLightingPass(r renderer.Renderer, states state.Manager, programs LightingPrograms, frame *FrameBlock, fallbacks *resource.Fallbacks) LightingPass {
	l := &lightingPass{
		r:         r,
		states:    states,
		programs:  programs,
		frame:     frame,
		fallbacks: fallbacks,
	}

	sphere, err := model.Upload(r, model.Sphere(1, sphereSlices, sphereStacks, [4]float32{1, 1, 1, 1}))
	if err != nil {
		panic(fmt.Sprintf("deferred: failed to create light volume: %v", err))
	}
	l.sphere = sphere

	var amb light.GPUAmbientLight
	var dir light.GPUDirectionalLight
	var pt light.GPUPointLight
	for _, b := range []struct {
		dst   *renderer.Buffer
		label string
		size  int
	}{
		{&l.ambientBuf, "Lighting.Ambient", amb.Size()},
		{&l.dirBuf, "Lighting.Directional", dir.Size()},
		{&l.pointBuf, "Lighting.Point", pt.Size()},
	} {
		buf, err := r.CreateBuffer(renderer.BufferDescriptor{Label: b.label, Usage: renderer.BufferUsageUniform, Size: b.size})
		if err != nil {
			panic(fmt.Sprintf("deferred: failed to create %s buffer: %v", b.label, err))
		}
		*b.dst = buf
	}
	return l
}

func (l *lightingPass) SubmitPointLight(p light.PointLight) {
	if p == nil {
		return
	}
	l.points = append(l.points, p)
}

func (l *lightingPass) SubmitDirectionalLight(d light.DirectionalLight) {
	if d == nil {
		return
	}
	l.directional = append(l.directional, d)
}

func (l *lightingPass) SubmitEnvironment(e light.EnvironmentLight) {
	if e == nil {
		return
	}
	l.environment = e
}

func (l *lightingPass) Pending() (int, int, bool) {
	return len(l.points), len(l.directional), l.environment != nil
}

func (l *lightingPass) Clear() {
	l.points = l.points[:0]
	l.directional = l.directional[:0]
	l.environment = nil
}

func (l *lightingPass) mustState(err error) {
	if err != nil {
		panic(fmt.Sprintf("deferred: failed to select render state: %v", err))
	}
}

func (l *lightingPass) bindOr(slot int, t, fallback renderer.Texture) {
	if t == nil {
		t = fallback
	}
	l.r.BindTexture(slot, t)
}

func (l *lightingPass) Render(gbuf *resource.GBuffer, depth, target renderer.Texture, shadows ShadowSource) {
	defer l.Clear()

	l.r.SetRenderTargets(nil, target)
	l.mustState(l.states.SetBlendState(state.BlendAdditive))
	l.mustState(l.states.SetDepthState(state.DepthReadOnly))
	gbuf.BindResources(l.r, depth)
	l.frame.Bind(l.r)

	l.renderAmbient()
	l.renderDirectional(shadows)
	l.renderPoints()

	gbuf.UnbindResources(l.r)
	for _, slot := range []int{ShadowMapSlot, IrradianceSlot, PrefilteredSlot, BRDFSlot} {
		l.r.UnbindTexture(slot)
	}
	l.r.UnsetRenderTargets()
}

func (l *lightingPass) renderAmbient() {
	l.r.BeginEvent("Ambient")
	l.mustState(l.states.SetRasterState(state.RasterBackCull))

	var irr, pref, brdf renderer.Texture
	if l.environment != nil {
		irr, pref, brdf = l.environment.Irradiance(), l.environment.Prefiltered(), l.environment.BRDF()
	}
	l.bindOr(IrradianceSlot, irr, l.fallbacks.Cube)
	l.bindOr(PrefilteredSlot, pref, l.fallbacks.Cube)
	l.bindOr(BRDFSlot, brdf, l.fallbacks.Black)

	block := light.NewGPUAmbientLight(l.environment)
	l.r.WriteBuffer(l.ambientBuf, block.Marshal())
	l.r.BindUniform(LightSlot, l.ambientBuf)
	l.r.SetProgram(l.programs.Ambient.Handle())
	l.r.Draw(3)
	l.r.EndEvent()
}

func (l *lightingPass) renderDirectional(shadows ShadowSource) {
	if len(l.directional) == 0 {
		return
	}
	l.r.BeginEvent("Directional")
	l.mustState(l.states.SetRasterState(state.RasterBackCull))
	l.r.SetProgram(l.programs.Directional.Handle())
	l.r.BindUniform(LightSlot, l.dirBuf)

	for _, d := range l.directional {
		var data *shadow.Data
		if shadows != nil && d.CastsShadows() {
			data, _ = shadows.Data(d)
		}

		block := light.NewGPUDirectionalLight(d, common.Identity4(), 0)
		if data != nil {
			block = light.NewGPUDirectionalLight(d, data.ViewProj, data.Resolution)
			l.r.BindTexture(ShadowMapSlot, data.ShadowMap)
		} else {
			l.r.BindTexture(ShadowMapSlot, l.fallbacks.White)
		}
		l.r.WriteBuffer(l.dirBuf, block.Marshal())
		l.r.Draw(3)
	}
	l.r.EndEvent()
}

func (l *lightingPass) renderPoints() {
	if len(l.points) == 0 {
		return
	}
	l.r.BeginEvent("Point")
	l.mustState(l.states.SetRasterState(state.RasterFrontFace))
	l.r.SetProgram(l.programs.Point.Handle())
	l.r.BindUniform(LightSlot, l.pointBuf)

	for _, p := range l.points {
		block := light.NewGPUPointLight(p)
		l.r.WriteBuffer(l.pointBuf, block.Marshal())
		l.r.DrawIndexed(l.sphere.Vertices, l.sphere.Indices, l.sphere.IndexCount)
	}
	l.r.EndEvent()
}

func (l *lightingPass) Release() {
	for _, b := range []*renderer.Buffer{&l.pointBuf, &l.dirBuf, &l.ambientBuf} {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
	if l.sphere != nil {
		l.sphere.Release()
		l.sphere = nil
	}
	l.Clear()
}
