package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionIsNormalized(t *testing.T) {
	l := NewDirectionalLight(WithDirection(0, -2, 0))
	assert.Equal(t, [3]float32{0, -1, 0}, l.Direction())

	l.SetDirection(3, 0, 4)
	d := l.Direction()
	assert.InDelta(t, 0.6, d[0], 1e-6)
	assert.InDelta(t, 0.8, d[2], 1e-6)
}

func TestPointLightRadiusIsNonNegative(t *testing.T) {
	l := NewPointLight(WithRadius(-3))
	assert.Zero(t, l.Radius())
	l.SetRadius(4)
	assert.Equal(t, float32(4), l.Radius())
}

func TestPointLightModelScalesToRadius(t *testing.T) {
	l := NewPointLight(WithPosition(1, 2, 3), WithRadius(5))
	g := NewGPUPointLight(l)
	assert.InDelta(t, 5, g.Model[0], 1e-6)
	assert.InDelta(t, 5, g.Model[5], 1e-6)
	assert.InDelta(t, 5, g.Model[10], 1e-6)
	assert.Equal(t, float32(1), g.Model[12])
	assert.Equal(t, float32(3), g.Model[14])

	buf := g.Marshal()
	require.Len(t, buf, 96)
	assert.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(buf[76:])))
}

func TestDirectionalBlockReportsShadowTexel(t *testing.T) {
	l := NewDirectionalLight()
	var identity [16]float32
	identity[0], identity[5], identity[10], identity[15] = 1, 1, 1, 1

	g := NewGPUDirectionalLight(l, identity, DefaultShadowResolution)
	assert.Equal(t, uint32(1), g.CastsShadows)
	assert.InDelta(t, 1.0/4096, g.TexelSize, 1e-9)
	require.Len(t, g.Marshal(), 112)

	none := NewGPUDirectionalLight(l, identity, 0)
	assert.Zero(t, none.CastsShadows)
}

func TestAmbientFlagsFollowMaps(t *testing.T) {
	rec := renderertest.NewRecorder(4, 4)
	brdf := rec.BackBuffer()

	g := NewGPUAmbientLight(NewEnvironmentLight(WithEnvironmentMaps(nil, nil, brdf)))
	assert.Equal(t, AmbientHasBRDF, g.Flags)
	assert.Len(t, g.Marshal(), 32)

	assert.Zero(t, NewGPUAmbientLight(nil).Intensity)
}
