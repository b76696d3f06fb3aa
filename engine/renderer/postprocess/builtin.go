package postprocess

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
)

// Technique names of the built-in effects, also their timestamp markers.
const (
	TechniqueSSAO         = "SSAO"
	TechniqueBloom        = "Bloom"
	TechniqueVolumetric   = "Volumetric"
	TechniqueAntiAliasing = "AntiAliasing"
	TechniqueTonemapping  = "Tonemapping"
)

// DefaultBloomIterations is the number of separable blur passes of Bloom.
const DefaultBloomIterations = 2

// luminanceChainSize is the first level of the 2x luminance downsample chain.
const luminanceChainSize = 512

// Inputs are the resources produced ahead of post-processing that the built-ins read.
type Inputs struct {
	// HDR is the lit scene. Effects composite back into it.
	HDR resource.Binding
	// Depth is the scene depth.
	Depth resource.Binding
	// Normal is the GBuffer normal target.
	Normal resource.Binding
	// Noise is the tiled occlusion rotation texture.
	Noise resource.Binding
	// ShadowMap is the primary light's shadow map.
	ShadowMap resource.Binding
}

// Names returns the resource names of every input, for WithProduced.
//
// Returns:
//   - []string: the names
func (in Inputs) Names() []string {
	var out []string
	for _, b := range []resource.Binding{in.HDR, in.Depth, in.Normal, in.Noise, in.ShadowMap} {
		if b != nil {
			out = append(out, b.Name())
		}
	}
	return out
}

// Options toggles the optional built-ins. Tonemapping always runs since it is the
// stage that writes the destination.
type Options struct {
	SSAO            bool
	Bloom           bool
	Volumetric      bool
	AntiAliasing    bool
	BloomIterations int
}

// DefaultOptions enables every effect.
//
// Returns:
//   - Options: the defaults
func DefaultOptions() Options {
	return Options{SSAO: true, Bloom: true, Volumetric: true, AntiAliasing: true, BloomIterations: DefaultBloomIterations}
}

// Assembler builds the built-in techniques. It registers their intermediates once
// and reuses them on later builds, so a graph can be rebuilt after a resize.
type Assembler struct {
	reg   resource.Registry
	lib   shader.Library
	in    Inputs
	pairs map[string]*resource.PingPong
}

// NewAssembler creates an Assembler.
//
// Parameters:
//   - reg: the registry intermediates are registered in
//   - lib: the shader library programs are loaded from
//   - in: the resources produced ahead of post-processing
//
// Returns:
//   - *Assembler: the assembler
func NewAssembler(reg resource.Registry, lib shader.Library, in Inputs) *Assembler {
	return &Assembler{reg: reg, lib: lib, in: in, pairs: make(map[string]*resource.PingPong)}
}

func (a *Assembler) program(label, path string) (*shader.Program, error) {
	if p, ok := a.lib.Get(label); ok {
		return p, nil
	}
	return a.lib.Load(shader.ProgramDesc{Label: label, Stages: shader.StagePixel, PixelPath: path})
}

func (a *Assembler) resource(desc resource.Desc) (*resource.Resource, error) {
	if r, ok := a.reg.Get(desc.Name); ok {
		return r, nil
	}
	return a.reg.Register(desc)
}

func (a *Assembler) pingPong(desc resource.Desc) (*resource.PingPong, error) {
	if p, ok := a.pairs[desc.Name]; ok {
		return p, nil
	}
	p, err := a.reg.RegisterPingPong(desc)
	if err != nil {
		return nil, err
	}
	a.pairs[desc.Name] = p
	return p, nil
}

// loader collects the first error of a sequence of program and resource lookups.
type loader struct {
	a   *Assembler
	err error
}

func (l *loader) program(label, path string) *shader.Program {
	if l.err != nil {
		return nil
	}
	p, err := l.a.program(label, path)
	if err != nil {
		l.err = err
	}
	return p
}

func (l *loader) resource(name string, policy resource.SizePolicy, format renderer.TextureFormat) resource.Binding {
	return l.fixed(name, policy, 0, 0, format)
}

func (l *loader) fixed(name string, policy resource.SizePolicy, w, h int, format renderer.TextureFormat) resource.Binding {
	if l.err != nil {
		return nil
	}
	r, err := l.a.resource(resource.Desc{Name: name, Policy: policy, Width: w, Height: h, Format: format})
	if err != nil {
		l.err = err
		return nil
	}
	return r
}

func (l *loader) finish(name string, stages ...*Stage) (*Technique, error) {
	if l.err != nil {
		return nil, fmt.Errorf("postprocess: %s: %w", name, l.err)
	}
	return NewTechnique(name, stages...), nil
}

// Bloom extracts bright areas, blurs them at quarter resolution and adds them back.
//
// Parameters:
//   - iterations: the number of horizontal and vertical blur pairs
//
// Returns:
//   - *Technique: the technique
//   - error: an error if a program or resource could not be created
func (a *Assembler) Bloom(iterations int) (*Technique, error) {
	iterations = max(iterations, 1)
	l := &loader{a: a}
	lum := l.resource("Bloom.Luminance", resource.SizeFull, renderer.FormatRGBA16Float)
	half := l.resource("Bloom.Half", resource.SizeHalf, renderer.FormatRGBA16Float)
	quarter := l.resource("Bloom.Quarter", resource.SizeQuarter, renderer.FormatRGBA16Float)
	blur := l.resource("Bloom.Blur", resource.SizeQuarter, renderer.FormatRGBA16Float)
	pLum := l.program("Bloom.Luminance", "post/bloom_luminance.wgsl")
	pCopy := l.program("Post.Copy", "post/copy.wgsl")
	pBlurH := l.program("Post.BlurHorizontal", "post/blur_horizontal.wgsl")
	pBlurV := l.program("Post.BlurVertical", "post/blur_vertical.wgsl")
	if l.err != nil {
		return l.finish(TechniqueBloom)
	}

	stages := []*Stage{
		NewStage("Luminance", pLum, []resource.Binding{a.in.HDR}, lum),
		NewStage("Downsample Half", pCopy, []resource.Binding{lum}, half),
		NewStage("Downsample Quarter", pCopy, []resource.Binding{half}, quarter),
	}
	for i := range iterations {
		stages = append(stages,
			NewStage(fmt.Sprintf("Blur H %d", i), pBlurH, []resource.Binding{quarter}, blur),
			NewStage(fmt.Sprintf("Blur V %d", i), pBlurV, []resource.Binding{blur}, quarter),
		)
	}
	stages = append(stages,
		NewStage("Upsample Half", pCopy, []resource.Binding{quarter}, half),
		NewStage("Upsample Full", pCopy, []resource.Binding{half}, lum),
		NewStage("Composite", pCopy, []resource.Binding{lum}, a.in.HDR, WithBlend(state.BlendAdditive)),
	)
	return l.finish(TechniqueBloom, stages...)
}

// SSAO computes screen-space ambient occlusion, blurs it with a depth-aware filter and
// darkens the HDR target with it.
//
// Returns:
//   - *Technique: the technique
//   - error: an error if a program or resource could not be created
func (a *Assembler) SSAO() (*Technique, error) {
	l := &loader{a: a}
	raw := l.resource("SSAO.Occlusion", resource.SizeFull, renderer.FormatR16Float)
	tmp := l.resource("SSAO.Blur", resource.SizeFull, renderer.FormatR16Float)
	pOcc := l.program("SSAO.Occlusion", "post/ssao.wgsl")
	pBlurH := l.program("SSAO.BlurHorizontal", "post/ssao_blur_horizontal.wgsl")
	pBlurV := l.program("SSAO.BlurVertical", "post/ssao_blur_vertical.wgsl")
	pComp := l.program("SSAO.Composite", "post/ssao_composite.wgsl")
	if l.err != nil {
		return l.finish(TechniqueSSAO)
	}

	return l.finish(TechniqueSSAO,
		NewStage("Occlusion", pOcc, []resource.Binding{a.in.Depth, a.in.Normal, a.in.Noise}, raw),
		NewStage("Blur H", pBlurH, []resource.Binding{raw, a.in.Depth}, tmp),
		NewStage("Blur V", pBlurV, []resource.Binding{tmp, a.in.Depth}, raw),
		NewStage("Composite", pComp, []resource.Binding{raw}, a.in.HDR, WithBlend(state.BlendAlpha)),
	)
}

// Volumetric raymarches the primary light's shadow map at half resolution and adds
// the scattered light to the HDR target.
//
// Returns:
//   - *Technique: the technique
//   - error: an error if a program or resource could not be created
func (a *Assembler) Volumetric() (*Technique, error) {
	l := &loader{a: a}
	half := l.resource("Volumetric.Half", resource.SizeHalf, renderer.FormatRGBA16Float)
	full := l.resource("Volumetric.Full", resource.SizeFull, renderer.FormatRGBA16Float)
	pMarch := l.program("Volumetric.Raymarch", "post/volumetric.wgsl")
	pCopy := l.program("Post.Copy", "post/copy.wgsl")
	if l.err != nil {
		return l.finish(TechniqueVolumetric)
	}

	return l.finish(TechniqueVolumetric,
		NewStage("Raymarch", pMarch, []resource.Binding{a.in.Depth, a.in.ShadowMap}, half),
		NewStage("Upscale", pCopy, []resource.Binding{half}, full),
		NewStage("Composite", pCopy, []resource.Binding{full}, a.in.HDR, WithBlend(state.BlendAdditive)),
	)
}

// AntiAliasing runs FXAA over the HDR target and copies the result back into it.
//
// Returns:
//   - *Technique: the technique
//   - error: an error if a program or resource could not be created
func (a *Assembler) AntiAliasing() (*Technique, error) {
	l := &loader{a: a}
	luma := l.resource("AA.Luma", resource.SizeFull, renderer.FormatRGBA16Float)
	out := l.resource("AA.Output", resource.SizeFull, renderer.FormatRGBA16Float)
	pLuma := l.program("AA.Luma", "post/luma.wgsl")
	pFXAA := l.program("AA.FXAA", "post/fxaa.wgsl")
	pCopy := l.program("Post.Copy", "post/copy.wgsl")
	if l.err != nil {
		return l.finish(TechniqueAntiAliasing)
	}

	return l.finish(TechniqueAntiAliasing,
		NewStage("Luma", pLuma, []resource.Binding{a.in.HDR}, luma),
		NewStage("FXAA", pFXAA, []resource.Binding{luma}, out),
		NewStage("Copy", pCopy, []resource.Binding{out}, a.in.HDR),
	)
}

// Tonemapping measures the average scene luminance, adapts it against last frame's
// value, maps the HDR target to display range and copies it to the destination.
//
// Returns:
//   - *Technique: the technique
//   - error: an error if a program or resource could not be created
func (a *Assembler) Tonemapping() (*Technique, error) {
	l := &loader{a: a}
	pLog := l.program("Tonemap.Luminance", "post/log_luminance.wgsl")
	pDown := l.program("Post.Copy", "post/copy.wgsl")
	pAdapt := l.program("Tonemap.Adapt", "post/adapt.wgsl")
	pMap := l.program("Tonemap.Operator", "post/tonemap.wgsl")
	ldr := l.resource("Tonemap.LDR", resource.SizeFull, renderer.FormatRGBA8Unorm)

	var chain []resource.Binding
	for size := luminanceChainSize; size >= 1; size /= 2 {
		chain = append(chain, l.fixed(fmt.Sprintf("Tonemap.Luminance%d", size), resource.SizeFixed, size, size, renderer.FormatR16Float))
	}
	var adapted *resource.PingPong
	if l.err == nil {
		var err error
		adapted, err = a.pingPong(resource.Desc{Name: "Tonemap.Adapted", Policy: resource.SizeFixed, Width: 1, Height: 1, Format: renderer.FormatR16Float})
		if err != nil {
			l.err = err
		}
	}
	if l.err != nil {
		return l.finish(TechniqueTonemapping)
	}

	stages := []*Stage{NewStage("Luminance", pLog, []resource.Binding{a.in.HDR}, chain[0])}
	for i := 1; i < len(chain); i++ {
		stages = append(stages, NewStage(fmt.Sprintf("Downsample %d", chain[i].Texture().Width()), pDown, []resource.Binding{chain[i-1]}, chain[i]))
	}
	last := chain[len(chain)-1]
	stages = append(stages,
		NewStage("Adapt", pAdapt, []resource.Binding{last, adapted.Back()}, adapted.Front()),
		NewStage("Tonemap", pMap, []resource.Binding{a.in.HDR, adapted.Front()}, ldr),
		NewStage("Present", pDown, []resource.Binding{ldr}, nil, ToDestination()),
	)
	return l.finish(TechniqueTonemapping, stages...)
}

// Build pushes the enabled built-ins into g in their fixed order: Bloom, SSAO,
// Volumetric, AntiAliasing, Tonemapping.
//
// Parameters:
//   - g: the graph
//   - opts: the toggles
//
// Returns:
//   - error: the first assembly or validation error
func (a *Assembler) Build(g Graph, opts Options) error {
	type builtin struct {
		enabled bool
		build   func() (*Technique, error)
	}
	for _, b := range []builtin{
		{opts.Bloom, func() (*Technique, error) { return a.Bloom(opts.BloomIterations) }},
		{opts.SSAO, a.SSAO},
		{opts.Volumetric, a.Volumetric},
		{opts.AntiAliasing, a.AntiAliasing},
		{true, a.Tonemapping},
	} {
		if !b.enabled {
			continue
		}
		t, err := b.build()
		if err != nil {
			return err
		}
		if err := g.PushTechnique(t); err != nil {
			return err
		}
	}
	return nil
}
