package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactorsDefaultToUnset(t *testing.T) {
	m := NewMaterial(WithName("rock"))
	assert.Equal(t, "rock", m.Name())
	assert.Equal(t, Unset, m.Albedo()[3])
	assert.Equal(t, Unset, m.Metallic())
	assert.Equal(t, Unset, m.Roughness())
	assert.Equal(t, Unset, m.AO())
	assert.Equal(t, Unset, m.Emissive())
}

func TestGPUMaterialLayout(t *testing.T) {
	m := NewMaterial(WithAlbedo(0.5, 0.25, 1, 1), WithMetallic(1), WithRoughness(0.3))
	g := NewGPUMaterial(m)
	buf := g.Marshal()
	require.Len(t, buf, 32)

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(0.25), f(4))
	assert.Equal(t, float32(1), f(16))
	assert.Equal(t, float32(0.3), f(20))
	assert.Equal(t, Unset, f(24))
}

func TestNilMaterialIsAllUnset(t *testing.T) {
	g := NewGPUMaterial(nil)
	assert.Equal(t, Unset, g.Albedo[3])
	assert.Equal(t, Unset, g.Emissive)
}
