package shadow

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFrustum = Frustum{Extent: 64, Near: -100, Far: 100, Resolution: 1024}

func newTestPass(t *testing.T, rec *renderertest.Recorder, options ...PassBuilderOption) Pass {
	t.Helper()
	lib := shader.NewLibrary(rec, fstest.MapFS{
		"shadow.wgsl": {Data: []byte("@vertex fn vs_main() {}\n@fragment fn fs_main() {}\n")},
	}, shader.WithValidator(nil))
	prog, err := lib.Load(shader.ProgramDesc{
		Label:      "Shadow",
		Stages:     shader.StageVertex | shader.StagePixel,
		VertexPath: "shadow.wgsl",
		PixelPath:  "shadow.wgsl",
		Layout:     renderer.VertexLayoutMesh,
	})
	require.NoError(t, err)
	return NewPass(rec, state.NewManager(rec), prog, append([]PassBuilderOption{WithResolution(64)}, options...)...)
}

func newCube(t *testing.T, rec *renderertest.Recorder, x float32) model.Model {
	t.Helper()
	mesh, err := model.Upload(rec, model.Cube([4]float32{1, 1, 1, 1}))
	require.NoError(t, err)
	return model.NewModel(model.WithPosition(x, 0, 0), model.WithMeshes(mesh))
}

func TestSnappedOriginIsWholeTexels(t *testing.T) {
	for _, center := range [][3]float32{{0.3, 0, 0.77}, {-12.061, 4, 3.3}, {100.01, 0, -0.02}} {
		vp := ViewProjection([3]float32{0, -1, 0}, center, testFrustum)
		origin := TexelOrigin(vp, testFrustum.Resolution)
		assert.InDelta(t, math32.Round(origin[0]), origin[0], 1e-3)
		assert.InDelta(t, math32.Round(origin[1]), origin[1], 1e-3)
	}
}

func TestCameraMoveShiftsShadowByWholeTexels(t *testing.T) {
	// 2*64/1024 world units per texel.
	texel := float32(0.125)
	a := ViewProjection([3]float32{0, -1, 0}, [3]float32{0.3, 0, 0}, testFrustum)
	b := ViewProjection([3]float32{0, -1, 0}, [3]float32{0.3 + 3*texel, 0, 0}, testFrustum)

	oa := TexelOrigin(a, testFrustum.Resolution)
	ob := TexelOrigin(b, testFrustum.Resolution)
	assert.InDelta(t, 3, math32.Abs(ob[0]-oa[0]), 1e-3)
	assert.InDelta(t, 0, ob[1]-oa[1], 1e-3)
}

func TestSnapIgnoresNonPositiveResolution(t *testing.T) {
	vp := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0.123, 0.456, 0, 1}
	SnapToTexel(&vp, 0)
	assert.Equal(t, float32(0.123), vp[12])
	assert.Equal(t, float32(0.456), vp[13])
}

func TestCenterFollowsFlattenedForward(t *testing.T) {
	c := Center([3]float32{1, 5, 1}, [3]float32{0, -0.6, -0.8}, 25)
	assert.InDelta(t, 1, c[0], 1e-5)
	assert.InDelta(t, 5, c[1], 1e-5)
	assert.InDelta(t, -24, c[2], 1e-4)

	down := Center([3]float32{1, 5, 1}, [3]float32{0, -1, 0}, 25)
	assert.Equal(t, [3]float32{1, 5, 1}, down)
}

func TestRenderDrawsEveryModelPerCastingLight(t *testing.T) {
	rec := renderertest.NewRecorder(320, 240)
	p := newTestPass(t, rec)

	sun := light.NewDirectionalLight(light.WithDirection(0.3, -1, 0.2))
	moon := light.NewDirectionalLight()
	flat := light.NewDirectionalLight(light.WithCastsShadows(false))
	require.NoError(t, p.InitLight(sun))
	require.NoError(t, p.InitLight(moon))

	for i := 0; i < 3; i++ {
		p.SubmitModel(newCube(t, rec, float32(i)))
	}
	p.SubmitModel(nil)
	p.SubmitLight(sun)
	p.SubmitLight(moon)
	p.SubmitLight(flat)
	p.SubmitLight(nil)

	models, lights := p.Pending()
	assert.Equal(t, 3, models)
	assert.Equal(t, 2, lights)

	rec.Reset()
	p.Render(camera.NewCamera())

	draws := rec.CallsOf(renderertest.OpDrawIndexed)
	require.Len(t, draws, 6)
	for _, d := range draws {
		assert.Equal(t, "Shadow", d.Program)
		assert.Equal(t, renderer.CullNone, d.Raster.Cull)
		assert.True(t, d.DepthSt.WriteEnabled)
		assert.Equal(t, 36, d.Count)
	}
	assert.Equal(t, "Shadow.Map0", draws[0].Targets[0])
	assert.Equal(t, "Shadow.Map1", draws[3].Targets[0])

	models, lights = p.Pending()
	assert.Zero(t, models)
	assert.Zero(t, lights)

	d, ok := p.Data(sun)
	require.True(t, ok)
	assert.Equal(t, 64, d.Resolution)
	assert.NotEqual(t, [16]float32{}, d.ViewProj)
}

func TestUninitializedLightIsCreatedOnRender(t *testing.T) {
	rec := renderertest.NewRecorder(320, 240)
	p := newTestPass(t, rec)

	sun := light.NewDirectionalLight()
	p.SubmitModel(newCube(t, rec, 0))
	p.SubmitLight(sun)
	p.Render(camera.NewCamera())

	_, ok := p.Data(sun)
	assert.True(t, ok)
	assert.Len(t, rec.CallsOf(renderertest.OpDrawIndexed), 1)
}

func TestNilCameraClearsWithoutDrawing(t *testing.T) {
	rec := renderertest.NewRecorder(320, 240)
	p := newTestPass(t, rec)

	p.SubmitModel(newCube(t, rec, 0))
	p.SubmitLight(light.NewDirectionalLight())
	rec.Reset()
	p.Render(nil)

	assert.Empty(t, rec.CallsOf(renderertest.OpDrawIndexed))
	models, lights := p.Pending()
	assert.Zero(t, models)
	assert.Zero(t, lights)
}

func TestReleaseLightFreesTextures(t *testing.T) {
	rec := renderertest.NewRecorder(320, 240)
	p := newTestPass(t, rec)

	sun := light.NewDirectionalLight()
	require.NoError(t, p.InitLight(sun))
	require.NoError(t, p.InitLight(sun))
	d, _ := p.Data(sun)

	p.ReleaseLight(sun)
	_, ok := p.Data(sun)
	assert.False(t, ok)
	assert.True(t, d.ShadowMap.(*renderertest.Texture).Released())
	assert.True(t, d.Depth.(*renderertest.Texture).Released())
}

func TestRepeatedLightSubmissionRendersEachCopy(t *testing.T) {
	rec := renderertest.NewRecorder(320, 240)
	p := newTestPass(t, rec, WithWorkers(4))

	sun := light.NewDirectionalLight(light.WithDirection(0.3, -1, 0.2))
	require.NoError(t, p.InitLight(sun))
	p.SubmitModel(newCube(t, rec, 0))
	for i := 0; i < 8; i++ {
		p.SubmitLight(sun)
	}

	rec.Reset()
	cam := camera.NewCamera()
	p.Render(cam)

	assert.Len(t, rec.CallsOf(renderertest.OpDrawIndexed), 8)
	d, ok := p.Data(sun)
	require.True(t, ok)
	f := Frustum{
		Extent:     light.DefaultShadowExtent,
		Offset:     light.DefaultShadowOffset,
		Near:       light.DefaultShadowNear,
		Far:        light.DefaultShadowFar,
		Resolution: 64,
	}
	want := ViewProjection(sun.Direction(), Center(cam.Position(), cam.Forward(), f.Offset), f)
	assert.Equal(t, want, d.ViewProj)
}

func TestDefaultVolumeIsFiftyUnitsWide(t *testing.T) {
	f := Frustum{Extent: light.DefaultShadowExtent, Near: light.DefaultShadowNear, Far: light.DefaultShadowFar}
	vp := ViewProjection([3]float32{0, -1, 0}, [3]float32{}, f)

	edge := common.MulVec4(vp[:], [4]float32{25, 0, 0, 1})
	assert.InDelta(t, 1, math32.Max(math32.Abs(edge[0]), math32.Abs(edge[1])), 1e-5)
	inside := common.MulVec4(vp[:], [4]float32{0, 0, 24, 1})
	assert.Less(t, math32.Max(math32.Abs(inside[0]), math32.Abs(inside[1])), float32(1))
}
