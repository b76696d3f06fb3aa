package frame

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/postprocess"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Frame {
	cfg := config.Default()
	cfg.Shadow.Resolution = 64
	cfg.Workers = 2
	return cfg
}

func newTestFrame(t *testing.T, w, h int, options ...FrameBuilderOption) (Frame, *renderertest.Recorder) {
	t.Helper()
	rec := renderertest.NewRecorder(w, h)
	options = append([]FrameBuilderOption{
		WithConfig(testConfig()),
		WithLibraryOptions(shader.WithValidator(nil)),
	}, options...)
	f := NewFrame(rec, options...)
	f.Init()
	return f, rec
}

func cube(t *testing.T, rec *renderertest.Recorder, x float32) model.Model {
	t.Helper()
	mesh, err := model.Upload(rec, model.Cube([4]float32{1, 1, 1, 1}))
	require.NoError(t, err)
	return model.NewModel(model.WithName("Cube"), model.WithPosition(x, 0, 0), model.WithMeshes(mesh))
}

func drawsOf(rec *renderertest.Recorder, program string) int {
	n := 0
	for _, c := range rec.CallsOf(renderertest.OpDrawIndexed) {
		if c.Program == program {
			n++
		}
	}
	return n
}

func TestEmptySceneStillPresents(t *testing.T) {
	f, rec := newTestFrame(t, 64, 32)
	rec.Reset()

	f.Render(0, camera.NewCamera(), nil)

	assert.Zero(t, drawsOf(rec, ProgramGeometry))
	assert.Zero(t, drawsOf(rec, ProgramShadow))
	draws := rec.CallsOf(renderertest.OpDraw)
	require.NotEmpty(t, draws)
	last := draws[len(draws)-1]
	assert.Equal(t, []string{"BackBuffer"}, last.Targets)
	assert.Equal(t, "Post.Copy", last.Program)
	assert.Equal(t, StateIdle, f.State())
}

func TestSubmittedModelsDrawOncePerPass(t *testing.T) {
	f, rec := newTestFrame(t, 64, 32)
	sun := light.NewDirectionalLight(light.WithCastsShadows(true))
	require.NoError(t, f.InitLight(sun))

	for i := 0; i < 3; i++ {
		f.Submit(cube(t, rec, float32(i)))
	}
	f.Submit(sun)
	f.Submit(nil)
	f.Submit("not a scene object")

	rec.Reset()
	f.Render(0, camera.NewCamera(), nil)
	assert.Equal(t, 3, drawsOf(rec, ProgramGeometry))
	assert.Equal(t, 3, drawsOf(rec, ProgramShadow))

	rec.Reset()
	f.Render(0, camera.NewCamera(), nil)
	assert.Zero(t, drawsOf(rec, ProgramGeometry))
	assert.Zero(t, drawsOf(rec, ProgramShadow))
}

func TestPrimaryLightShadowMapFeedsVolumetric(t *testing.T) {
	f, rec := newTestFrame(t, 64, 32)
	sun := light.NewDirectionalLight(light.WithCastsShadows(true))
	require.NoError(t, f.InitLight(sun))
	f.SubmitDirectionalLight(sun)

	rec.Reset()
	f.Render(0, camera.NewCamera(), nil)

	var marched bool
	for _, c := range rec.CallsOf(renderertest.OpDraw) {
		if c.Program == "Volumetric.Raymarch" {
			marched = true
			assert.Equal(t, "Shadow.Map0", c.Textures[1])
		}
	}
	assert.True(t, marched)

	rec.Reset()
	f.Render(0, camera.NewCamera(), nil)
	for _, c := range rec.CallsOf(renderertest.OpDraw) {
		if c.Program == "Volumetric.Raymarch" {
			assert.Equal(t, "Fallback.White", c.Textures[1])
		}
	}
}

func TestNilCameraDropsSubmissions(t *testing.T) {
	f, rec := newTestFrame(t, 64, 32)
	f.Submit(cube(t, rec, 0))
	f.Submit(light.NewPointLight(light.WithRadius(2)))

	rec.Reset()
	f.Render(0, nil, nil)
	assert.Empty(t, rec.CallsOf(renderertest.OpDraw))
	assert.Empty(t, rec.CallsOf(renderertest.OpDrawIndexed))

	f.Render(0, camera.NewCamera(), nil)
	assert.Zero(t, drawsOf(rec, ProgramGeometry))
	assert.Zero(t, drawsOf(rec, ProgramPoint))
}

func TestResizeRestoresSizes(t *testing.T) {
	f, _ := newTestFrame(t, 1280, 720)
	reg := f.Registry()
	techniques := len(f.Graph().Techniques())

	size := func(name string) [2]int {
		res, ok := reg.Get(name)
		require.True(t, ok, name)
		return [2]int{res.Width(), res.Height()}
	}

	f.ResizeTextures(640, 360)
	assert.Equal(t, [2]int{640, 360}, size(ResourceHDR))
	assert.Equal(t, [2]int{320, 180}, size("Bloom.Half"))
	assert.Equal(t, [2]int{640, 360}, size("GBuffer.Normal"))

	f.ResizeTextures(1280, 720)
	assert.Equal(t, [2]int{1280, 720}, size(ResourceHDR))
	assert.Equal(t, [2]int{640, 360}, size("Bloom.Half"))
	assert.Equal(t, [2]int{320, 180}, size("Bloom.Quarter"))
	assert.Equal(t, [2]int{1, 1}, size("Tonemap.Luminance1"))
	assert.Len(t, f.Graph().Techniques(), techniques)
}

func TestResizeWithZeroDimensionIsNoOp(t *testing.T) {
	f, _ := newTestFrame(t, 64, 32)
	f.ResizeTextures(0, 100)
	f.ResizeTextures(100, 0)
	w, h := f.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
}

func TestRenderWalksStatesInOrder(t *testing.T) {
	var seen []State
	f, _ := newTestFrame(t, 64, 32, WithStateObserver(func(s State) { seen = append(seen, s) }))

	f.Render(0, camera.NewCamera(), nil)
	assert.Equal(t, []State{StateShadow, StateGeometry, StateLighting, StatePostProcess, StatePresent, StateIdle}, seen)
}

func TestEveryPassIsTimestamped(t *testing.T) {
	rec := renderertest.NewRecorder(64, 32)
	gpu := profiler.NewGPUProfiler(rec)
	f := NewFrame(rec, WithConfig(testConfig()), WithLibraryOptions(shader.WithValidator(nil)), WithGPUProfiler(gpu))
	f.Init()

	f.Render(0, camera.NewCamera(), nil)

	var names []string
	for _, s := range gpu.Samples() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		profiler.BeginMarker, "Shadow", "Geometry", "Lighting", "Forward",
		postprocess.TechniqueBloom, postprocess.TechniqueSSAO, postprocess.TechniqueVolumetric,
		postprocess.TechniqueAntiAliasing, postprocess.TechniqueTonemapping,
	}, names)
}

func TestDisabledEffectsAreNotBuilt(t *testing.T) {
	cfg := testConfig()
	cfg.Post = config.Post{}
	f, _ := newTestFrame(t, 64, 32, WithConfig(cfg))

	techniques := f.Graph().Techniques()
	require.Len(t, techniques, 1)
	assert.Equal(t, postprocess.TechniqueTonemapping, techniques[0].Name)
}

func TestShutdownReleasesEverything(t *testing.T) {
	f, rec := newTestFrame(t, 64, 32)
	require.NoError(t, f.InitLight(light.NewDirectionalLight(light.WithCastsShadows(true))))
	f.Render(0, camera.NewCamera(), nil)

	f.Shutdown()
	assert.Empty(t, rec.LiveTextures())

	rec.Reset()
	f.Render(0, camera.NewCamera(), nil)
	assert.Empty(t, rec.Calls())
}

func TestInitCompilesEmbeddedShaders(t *testing.T) {
	rec := renderertest.NewRecorder(64, 32)
	f := NewFrame(rec, WithConfig(testConfig()))
	require.NotPanics(t, f.Init)
	defer f.Shutdown()

	labels := make(map[string]bool)
	for _, p := range f.Library().Programs() {
		labels[p.Label()] = true
	}
	for _, desc := range programDescs {
		assert.True(t, labels[desc.Label], desc.Label)
	}
	assert.True(t, labels["Volumetric.Raymarch"])
	assert.True(t, labels["Tonemap.Operator"])
}
