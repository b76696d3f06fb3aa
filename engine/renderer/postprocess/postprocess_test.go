package postprocess

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stub = "@fragment fn fs_main() {}\n"

var postFiles = []string{
	"fullscreen.wgsl", "post/copy.wgsl", "post/bloom_luminance.wgsl", "post/blur_horizontal.wgsl",
	"post/blur_vertical.wgsl", "post/ssao.wgsl", "post/ssao_blur_horizontal.wgsl",
	"post/ssao_blur_vertical.wgsl", "post/ssao_composite.wgsl", "post/volumetric.wgsl",
	"post/luma.wgsl", "post/fxaa.wgsl", "post/log_luminance.wgsl", "post/adapt.wgsl", "post/tonemap.wgsl",
}

type fixture struct {
	rec    *renderertest.Recorder
	states state.Manager
	reg    resource.Registry
	lib    shader.Library
	hdr    *resource.Resource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := renderertest.NewRecorder(64, 32)
	fsys := fstest.MapFS{}
	for _, f := range postFiles {
		fsys[f] = &fstest.MapFile{Data: []byte(stub)}
	}
	f := &fixture{
		rec:    rec,
		states: state.NewManager(rec),
		reg:    resource.NewRegistry(rec, 64, 32),
		lib:    shader.NewLibrary(rec, fsys, shader.WithValidator(nil)),
	}
	var err error
	f.hdr, err = f.reg.Register(resource.Desc{Name: "HDR", Policy: resource.SizeFull, Format: renderer.FormatRGBA16Float})
	require.NoError(t, err)
	return f
}

func (f *fixture) copyProgram(t *testing.T) *shader.Program {
	t.Helper()
	if p, ok := f.lib.Get("Post.Copy"); ok {
		return p
	}
	p, err := f.lib.Load(shader.ProgramDesc{Label: "Post.Copy", Stages: shader.StagePixel, PixelPath: "post/copy.wgsl"})
	require.NoError(t, err)
	return p
}

func (f *fixture) target(t *testing.T, name string, policy resource.SizePolicy) *resource.Resource {
	t.Helper()
	r, err := f.reg.Register(resource.Desc{Name: name, Policy: policy, Format: renderer.FormatRGBA16Float})
	require.NoError(t, err)
	return r
}

type timestamps struct{ names []string }

func (ts *timestamps) Timestamp(name string) { ts.names = append(ts.names, name) }

func TestTechniquesRunInInsertionOrder(t *testing.T) {
	f := newFixture(t)
	ts := &timestamps{}
	g := NewGraph(f.rec, f.states, WithProduced("HDR"), WithTimestamper(ts))
	a := f.target(t, "A", resource.SizeHalf)
	b := f.target(t, "B", resource.SizeQuarter)
	p := f.copyProgram(t)

	require.NoError(t, g.PushStage(NewStage("First", p, []resource.Binding{f.hdr}, a)))
	require.NoError(t, g.PushTechnique(NewTechnique("Second", NewStage("Down", p, []resource.Binding{a}, b))))
	require.NoError(t, g.PushStage(NewStage("Third", p, []resource.Binding{b}, nil, ToDestination())))

	g.Render(f.rec.BackBuffer(), camera.NewCamera(), nil)

	draws := f.rec.CallsOf(renderertest.OpDraw)
	require.Len(t, draws, 3)
	assert.Equal(t, []string{"A"}, draws[0].Targets)
	assert.Equal(t, []string{"B"}, draws[1].Targets)
	assert.Equal(t, []string{"BackBuffer"}, draws[2].Targets)
	for _, d := range draws {
		assert.Equal(t, 3, d.Count)
		assert.Empty(t, d.Depth)
	}
	assert.Equal(t, []string{"First", "Second", "Third"}, ts.names)
}

func TestStageReadingUnwrittenResourceIsRejected(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.rec, f.states, WithProduced("HDR"))
	a := f.target(t, "A", resource.SizeFull)
	b := f.target(t, "B", resource.SizeFull)
	p := f.copyProgram(t)

	err := g.PushTechnique(NewTechnique("Broken",
		NewStage("Reads B", p, []resource.Binding{b}, a),
		NewStage("Writes B", p, []resource.Binding{f.hdr}, b),
	))
	require.ErrorIs(t, err, ErrReadBeforeWrite)
	assert.Contains(t, err.Error(), `"B"`)
	assert.Empty(t, g.Techniques())
	assert.Empty(t, g.Dependencies())

	require.NoError(t, g.PushStage(NewStage("Writes B", p, []resource.Binding{f.hdr}, b)))
	require.NoError(t, g.PushStage(NewStage("Reads B", p, []resource.Binding{b}, a)))
}

func TestStageReadingItsOutputIsRejected(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.rec, f.states, WithProduced("HDR"))
	err := g.PushStage(NewStage("Loop", f.copyProgram(t), []resource.Binding{f.hdr}, f.hdr))
	assert.ErrorIs(t, err, ErrFeedbackLoop)
}

func TestInvalidStagesAreRejected(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.rec, f.states)
	assert.ErrorIs(t, g.PushStage(nil), ErrInvalidStage)
	assert.ErrorIs(t, g.PushStage(NewStage("NoProgram", nil, nil, f.hdr)), ErrInvalidStage)
	assert.ErrorIs(t, g.PushStage(NewStage("NoOutput", f.copyProgram(t), nil, nil)), ErrInvalidStage)
	assert.ErrorIs(t, g.PushTechnique(NewTechnique("Empty")), ErrInvalidStage)
}

func TestPersistentHistoryMayBeReadFirst(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.rec, f.states, WithProduced("HDR"))
	pair, err := f.reg.RegisterPingPong(resource.Desc{Name: "History", Policy: resource.SizeFull, Format: renderer.FormatRGBA16Float})
	require.NoError(t, err)

	require.NoError(t, g.PushStage(NewStage("Accumulate", f.copyProgram(t), []resource.Binding{f.hdr, pair.Back()}, pair.Front())))
	err = g.PushStage(NewStage("Stale", f.copyProgram(t), []resource.Binding{f.hdr}, f.target(t, "X", resource.SizeFull)))
	require.NoError(t, err)

	edges := g.Dependencies()
	require.Len(t, edges, 3)
	assert.Equal(t, Edge{From: Producer, To: "Accumulate/Accumulate", Resource: "HDR"}, edges[0])
	assert.Equal(t, pair.Back().Name(), edges[1].Resource)
}

func TestConsecutiveStagesShareResourceWithoutClear(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.rec, f.states, WithProduced("HDR"))
	mid := f.target(t, "Mid", resource.SizeHalf)
	p := f.copyProgram(t)

	require.NoError(t, g.PushTechnique(NewTechnique("AB",
		NewStage("A", p, []resource.Binding{f.hdr}, mid),
		NewStage("B", p, []resource.Binding{mid}, nil, ToDestination()),
	)))
	f.rec.Reset()
	g.Render(f.rec.BackBuffer(), camera.NewCamera(), nil)

	calls := f.rec.Calls()
	var drawA, drawB = -1, -1
	for i, c := range calls {
		if c.Op != renderertest.OpDraw {
			continue
		}
		if drawA < 0 {
			drawA = i
		} else {
			drawB = i
		}
	}
	require.True(t, drawA >= 0 && drawB > drawA)
	assert.Equal(t, []string{"Mid"}, calls[drawA].Targets)
	assert.Equal(t, "Mid", calls[drawB].Textures[0])
	for _, c := range calls[drawA:drawB] {
		assert.False(t, c.Op == renderertest.OpClearColor && c.Name == "Mid")
	}

	edges := g.Dependencies()
	assert.Equal(t, Edge{From: "AB/A", To: "AB/B", Resource: "Mid"}, edges[1])
}

func TestStageWithoutInputsBindsNothing(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.rec, f.states)
	require.NoError(t, g.PushStage(NewStage("Gradient", f.copyProgram(t), nil, f.hdr)))
	f.rec.Reset()
	g.Render(f.rec.BackBuffer(), camera.NewCamera(), nil)

	assert.Empty(t, f.rec.CallsOf(renderertest.OpBindTexture))
	assert.Empty(t, f.rec.CallsOf(renderertest.OpUnbindTexture))
	assert.Len(t, f.rec.CallsOf(renderertest.OpDraw), 1)
}

func TestStageParamsCarryOutputSize(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.rec, f.states, WithProduced("HDR"))
	half := f.target(t, "Half", resource.SizeHalf)
	require.NoError(t, g.PushStage(NewStage("Down", f.copyProgram(t), []resource.Binding{f.hdr}, half)))
	g.Render(f.rec.BackBuffer(), camera.NewCamera(), nil)

	var params *renderertest.Buffer
	for _, b := range f.rec.Buffers() {
		if b.Label() == "Post.Down.Down" {
			params = b
		}
	}
	require.NotNil(t, params)
	read := func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(params.Data[i*4:])) }
	assert.Equal(t, float32(32), read(0))
	assert.Equal(t, float32(16), read(1))
	assert.InDelta(t, 1.0/32, read(2), 1e-7)
	assert.InDelta(t, 1.0/16, read(3), 1e-7)
}

func TestClearDropsTechniques(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.rec, f.states)
	require.NoError(t, g.PushStage(NewStage("Gradient", f.copyProgram(t), nil, f.hdr)))
	g.Clear()
	assert.Empty(t, g.Techniques())
	f.rec.Reset()
	g.Render(f.rec.BackBuffer(), camera.NewCamera(), nil)
	assert.Empty(t, f.rec.CallsOf(renderertest.OpDraw))
}

func TestOcclusionKernelLiesInHemisphere(t *testing.T) {
	k := OcclusionKernel(rand.New(rand.NewPCG(7, 11)))
	for i, s := range k {
		v := [3]float32{s[0], s[1], s[2]}
		assert.GreaterOrEqual(t, s[2], float32(0), "sample %d", i)
		assert.LessOrEqual(t, common.LengthSq3(v), float32(1.0001), "sample %d", i)
	}
	assert.Equal(t, k, OcclusionKernel(rand.New(rand.NewPCG(7, 11))))
}

func TestPostFrameLayout(t *testing.T) {
	var b GPUPostFrame
	assert.Equal(t, 640, b.Size())
	b.HasLight = 1
	b.Kernel[15] = [4]float32{0, 0, 0.5, 0}
	buf := b.Marshal()
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[376:]))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[384+15*16+8:])))
}

func TestBuiltinsAssembleAndRebuild(t *testing.T) {
	f := newFixture(t)
	depth, err := f.reg.Register(resource.Desc{Name: "Depth", Policy: resource.SizeFull, Format: renderer.FormatDepth32Float})
	require.NoError(t, err)
	normal := f.target(t, "GBuffer.Normal", resource.SizeFull)
	noiseTex, err := f.rec.CreateTexture(renderer.TextureDescriptor{Label: "Noise", Width: 8, Height: 8, Format: renderer.FormatRGBA32Float})
	require.NoError(t, err)

	in := Inputs{
		HDR:       f.hdr,
		Depth:     depth,
		Normal:    normal,
		Noise:     resource.NewExternal("Noise", noiseTex),
		ShadowMap: resource.NewExternal("ShadowMap", noiseTex),
	}
	g := NewGraph(f.rec, f.states, WithProduced(in.Names()...))
	asm := NewAssembler(f.reg, f.lib, in)
	require.NoError(t, asm.Build(g, DefaultOptions()))

	names := func() []string {
		var out []string
		for _, tq := range g.Techniques() {
			out = append(out, tq.Name)
		}
		return out
	}
	assert.Equal(t, []string{TechniqueBloom, TechniqueSSAO, TechniqueVolumetric, TechniqueAntiAliasing, TechniqueTonemapping}, names())

	techniques := g.Techniques()
	last := techniques[len(techniques)-1].Stages
	assert.True(t, last[len(last)-1].ToDestination)
	resources := len(f.reg.Resources())

	g.Clear()
	require.NoError(t, asm.Build(g, Options{BloomIterations: 1}))
	assert.Equal(t, []string{TechniqueTonemapping}, names())
	assert.Len(t, f.reg.Resources(), resources)

	sun := light.NewDirectionalLight()
	f.rec.Reset()
	g.Render(f.rec.BackBuffer(), camera.NewCamera(), sun)
	draws := f.rec.CallsOf(renderertest.OpDraw)
	// Luminance, nine downsamples, adapt, tonemap, present.
	assert.Len(t, draws, 13)
	assert.Equal(t, []string{"BackBuffer"}, draws[len(draws)-1].Targets)
}
