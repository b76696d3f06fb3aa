package state

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinStatesApplyToRenderer(t *testing.T) {
	rec := renderertest.NewRecorder(64, 64)
	m := NewManager(rec)
	rec.SetRenderTargets(nil, rec.BackBuffer())

	require.NoError(t, m.SetBlendState(BlendAdditive))
	require.NoError(t, m.SetDepthState(DepthReadOnly))
	require.NoError(t, m.SetRasterState(RasterFrontFace))
	rec.Draw(3)

	draws := rec.CallsOf(renderertest.OpDraw)
	require.Len(t, draws, 1)
	assert.True(t, draws[0].Blend.Enabled)
	assert.Equal(t, renderer.BlendFactorOne, draws[0].Blend.DstColor)
	assert.False(t, draws[0].DepthSt.WriteEnabled)
	assert.Equal(t, renderer.CullFront, draws[0].Raster.Cull)
}

func TestUnknownStateNameErrors(t *testing.T) {
	m := NewManager(renderertest.NewRecorder(8, 8))
	assert.Error(t, m.SetBlendState("Subtractive"))
	assert.Error(t, m.SetDepthState("GreaterEqual"))
	assert.Error(t, m.SetRasterState("Points"))
}

func TestOptionsRegisterButNeverReplaceBuiltins(t *testing.T) {
	custom := renderer.RasterState{Cull: renderer.CullNone, Wireframe: true}
	m := NewManager(renderertest.NewRecorder(8, 8),
		WithRasterState("DebugWire", custom),
		WithRasterState(RasterDefault, custom),
	)

	s, ok := m.Raster("DebugWire")
	require.True(t, ok)
	assert.Equal(t, custom, s)

	def, ok := m.Raster(RasterDefault)
	require.True(t, ok)
	assert.Equal(t, renderer.CullBack, def.Cull)
	assert.False(t, def.Wireframe)
}

func TestResetRestoresDefaults(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	m := NewManager(rec)
	rec.SetRenderTargets(nil, rec.BackBuffer())
	require.NoError(t, m.SetBlendState(BlendAlpha))
	require.NoError(t, m.SetRasterState(RasterNoCull))
	m.Reset()
	rec.Draw(3)

	draw := rec.CallsOf(renderertest.OpDraw)[0]
	assert.False(t, draw.Blend.Enabled)
	assert.Equal(t, renderer.CullBack, draw.Raster.Cull)
	assert.True(t, draw.DepthSt.WriteEnabled)
}
