package skybox

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkyboxDrawsOnlyWithCubeMap(t *testing.T) {
	rec := renderertest.NewRecorder(32, 32)
	lib := shader.NewLibrary(rec, fstest.MapFS{
		"skybox.wgsl": {Data: []byte("@vertex fn vs_main() {}\n@fragment fn fs_main() {}\n")},
	}, shader.WithValidator(nil))
	prog, err := lib.Load(shader.ProgramDesc{Label: "Skybox", Stages: shader.StageVertex | shader.StagePixel, VertexPath: "skybox.wgsl", PixelPath: "skybox.wgsl", Layout: renderer.VertexLayoutMesh})
	require.NoError(t, err)
	frame, err := deferred.NewFrameBlock(rec)
	require.NoError(t, err)

	hdr, _ := rec.CreateTexture(renderer.TextureDescriptor{Label: "HDR", Width: 32, Height: 32, Format: renderer.FormatRGBA16Float})
	depth, _ := rec.CreateTexture(renderer.TextureDescriptor{Label: "Depth", Width: 32, Height: 32, Format: renderer.FormatDepth32Float})

	sky := NewSkybox(rec, state.NewManager(rec), prog, nil)
	assert.False(t, sky.Render(frame, hdr, depth))
	assert.Empty(t, rec.CallsOf(renderertest.OpDrawIndexed))

	cube, _ := rec.CreateTexture(renderer.TextureDescriptor{Label: "Sky", Width: 16, Height: 16, Cube: true})
	sky.SetTexture(cube)
	require.True(t, sky.Render(frame, hdr, depth))

	draws := rec.CallsOf(renderertest.OpDrawIndexed)
	require.Len(t, draws, 1)
	assert.Equal(t, "Sky", draws[0].Textures[CubeSlot])
	assert.Equal(t, "Depth", draws[0].Depth)
	assert.False(t, draws[0].DepthSt.WriteEnabled)
	assert.Equal(t, renderer.CompareLessEqual, draws[0].DepthSt.Compare)
	assert.Equal(t, 36, draws[0].Count)
}
