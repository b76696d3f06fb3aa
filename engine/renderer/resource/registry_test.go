package resource

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type size struct{ w, h int }

func sizes(reg Registry) map[string]size {
	out := make(map[string]size)
	for _, r := range reg.Resources() {
		out[r.Name()] = size{r.Width(), r.Height()}
	}
	return out
}

func newTestRegistry(t *testing.T, w, h int) (*renderertest.Recorder, Registry) {
	t.Helper()
	rec := renderertest.NewRecorder(w, h)
	reg := NewRegistry(rec, w, h)
	for _, d := range []Desc{
		{Name: "Full", Policy: SizeFull, Format: renderer.FormatRGBA16Float},
		{Name: "Half", Policy: SizeHalf, Format: renderer.FormatRGBA16Float},
		{Name: "Quarter", Policy: SizeQuarter, Format: renderer.FormatRGBA16Float},
		{Name: "Lum1x1", Policy: SizeFixed, Width: 1, Height: 1, Format: renderer.FormatR16Float},
		{Name: "Depth", Policy: SizeFull, Format: renderer.FormatDepth32Float},
	} {
		_, err := reg.Register(d)
		require.NoError(t, err)
	}
	_, err := NewGBuffer(reg)
	require.NoError(t, err)
	return rec, reg
}

func TestSizePolicyDimensions(t *testing.T) {
	w, h := SizeHalf.Dimensions(1280, 720, 0, 0)
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, h)

	w, h = SizeQuarter.Dimensions(2, 2, 0, 0)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)

	w, h = SizeFixed.Dimensions(1280, 720, 4096, 4096)
	assert.Equal(t, 4096, w)
	assert.Equal(t, 4096, h)
}

func TestResizeIsIdempotent(t *testing.T) {
	rec, reg := newTestRegistry(t, 800, 600)

	require.NoError(t, reg.Resize(1024, 768))
	once := sizes(reg)
	liveOnce := len(rec.LiveTextures())

	require.NoError(t, reg.Resize(1024, 768))
	assert.Equal(t, once, sizes(reg))
	assert.Equal(t, liveOnce, len(rec.LiveTextures()))
	assert.Len(t, reg.Resources(), 9)
}

func TestResizeRoundTripRestoresOriginalSizes(t *testing.T) {
	_, reg := newTestRegistry(t, 1280, 720)
	original := sizes(reg)

	require.NoError(t, reg.Resize(640, 360))
	assert.Equal(t, size{320, 180}, sizes(reg)["Half"])
	require.NoError(t, reg.Resize(1280, 720))

	assert.Equal(t, original, sizes(reg))
	assert.Equal(t, size{1, 1}, sizes(reg)["Lum1x1"])
}

func TestResizeWithZeroDimensionKeepsResources(t *testing.T) {
	rec, reg := newTestRegistry(t, 1280, 720)
	before := rec.LiveTextures()

	require.NoError(t, reg.Resize(0, 720))
	require.NoError(t, reg.Resize(1280, 0))

	assert.Equal(t, before, rec.LiveTextures())
	w, h := reg.Size()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
}

func TestResourceHandleSurvivesResize(t *testing.T) {
	_, reg := newTestRegistry(t, 100, 100)
	full, ok := reg.Get("Full")
	require.True(t, ok)
	old := full.Texture()

	require.NoError(t, reg.Resize(200, 100))
	again, _ := reg.Get("Full")
	assert.Same(t, full, again)
	assert.NotSame(t, old, full.Texture())
	assert.True(t, old.(*renderertest.Texture).Released())
}

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	_, reg := newTestRegistry(t, 16, 16)
	_, err := reg.Register(Desc{Name: "Full", Format: renderer.FormatRGBA8Unorm})
	assert.Error(t, err)
}

func TestClearTransientSkipsPersistent(t *testing.T) {
	rec, reg := newTestRegistry(t, 16, 16)
	_, err := reg.RegisterPingPong(Desc{Name: "Adapt", Policy: SizeFixed, Width: 1, Height: 1, Format: renderer.FormatR16Float})
	require.NoError(t, err)
	rec.Reset()

	reg.ClearTransient()

	var cleared []string
	for _, c := range rec.Calls() {
		cleared = append(cleared, c.Name)
	}
	assert.Contains(t, cleared, "Full")
	assert.Contains(t, cleared, "GBuffer.Emissive")
	assert.NotContains(t, cleared, "Adapt.a")
	assert.NotContains(t, cleared, "Adapt.b")
	assert.Len(t, rec.CallsOf(renderertest.OpClearDepth), 1)
}

func TestPingPongSwapsRoles(t *testing.T) {
	_, reg := newTestRegistry(t, 16, 16)
	pp, err := reg.RegisterPingPong(Desc{Name: "Adapt", Policy: SizeFixed, Width: 1, Height: 1, Format: renderer.FormatR16Float})
	require.NoError(t, err)

	front, back := pp.Front().Texture(), pp.Back().Texture()
	assert.NotSame(t, front, back)
	assert.False(t, pp.Front().Persistent())
	assert.True(t, pp.Back().Persistent())

	reg.SwapPingPongs()
	assert.Same(t, front, pp.Back().Texture())
	assert.Same(t, back, pp.Front().Texture())
}

func TestReleaseFreesEverything(t *testing.T) {
	rec, reg := newTestRegistry(t, 16, 16)
	reg.Release()
	assert.Empty(t, rec.LiveTextures())
	assert.Empty(t, reg.Resources())
}

func TestGBufferBindsFourTargetsAndDepthSlot(t *testing.T) {
	rec, reg := newTestRegistry(t, 32, 32)
	gb, err := NewGBuffer(NewRegistry(rec, 32, 32))
	require.NoError(t, err)
	depth, _ := reg.Get("Depth")

	gb.BindTargets(rec, depth.Texture())
	targets := rec.CallsOf(renderertest.OpSetTargets)
	require.Len(t, targets, 1)
	assert.Equal(t, []string{"GBuffer.Albedo", "GBuffer.Normal", "GBuffer.Material", "GBuffer.Emissive"}, targets[0].Targets)
	assert.Equal(t, "Depth", targets[0].Depth)

	gb.BindResources(rec, depth.Texture())
	binds := rec.CallsOf(renderertest.OpBindTexture)
	require.Len(t, binds, 5)
	assert.Equal(t, GBufferDepthSlot, binds[4].Slot)
	assert.Equal(t, "Depth", binds[4].Name)
	assert.Equal(t, renderer.FormatR32Float, gb.Slot(GBufferEmissive).Texture().Format())

	gb.UnbindResources(rec)
	assert.Len(t, rec.CallsOf(renderertest.OpUnbindTexture), 5)
}

func TestFallbacksCreateAndRelease(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	f, err := NewFallbacks(rec)
	require.NoError(t, err)
	require.NoError(t, f.Validate())
	assert.True(t, f.Cube.(*renderertest.Texture).Cube())
	assert.Len(t, rec.LiveTextures(), 4)

	f.Release()
	assert.Empty(t, rec.LiveTextures())
	assert.Error(t, f.Validate())
}
