package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardPointsAtTarget(t *testing.T) {
	c := NewCamera(WithPosition(0, 0, 10), WithTarget(0, 0, 0))
	f := c.Forward()
	assert.InDelta(t, 0, f[0], 1e-6)
	assert.InDelta(t, 0, f[1], 1e-6)
	assert.InDelta(t, -1, f[2], 1e-6)
}

func TestInverseViewRoundTrips(t *testing.T) {
	c := NewCamera(WithPosition(3, 4, 5), WithTarget(0, 1, 0))
	view := c.ViewMatrix()
	inv := c.InverseViewMatrix()

	var product [16]float32
	common.Mul4(product[:], view[:], inv[:])
	identity := common.Identity4()
	for i := range product {
		assert.InDelta(t, identity[i], product[i], 1e-5, "element %d", i)
	}

	// The eye maps to the view-space origin.
	p := c.Position()
	eye := common.MulVec4(view[:], [4]float32{p[0], p[1], p[2], 1})
	assert.InDelta(t, 0, eye[0], 1e-5)
	assert.InDelta(t, 0, eye[1], 1e-5)
	assert.InDelta(t, 0, eye[2], 1e-5)
}

func TestCameraFollowsController(t *testing.T) {
	ctrl := NewOrbitController(WithOrbit(10, 0, 0))
	c := NewCamera(WithController(ctrl))
	assert.InDelta(t, 10, c.Position()[2], 1e-5)

	ctrl.Orbit(math.Pi/2, 0)
	assert.InDelta(t, 10, c.Position()[2], 1e-5, "camera only moves on Update")

	c.Update()
	assert.InDelta(t, 10, c.Position()[0], 1e-4)
	assert.InDelta(t, 0, c.Position()[2], 1e-4)
}

func TestOrbitClampsRadiusAndElevation(t *testing.T) {
	ctrl := NewOrbitController(WithRadiusBounds(2, 20), WithElevationBounds(-0.5, 0.5))
	ctrl.Zoom(100)
	assert.InDelta(t, 2, ctrl.Radius(), 1e-6)
	ctrl.Zoom(-100)
	assert.InDelta(t, 20, ctrl.Radius(), 1e-6)

	ctrl.Orbit(0, 10)
	p := ctrl.Position()
	assert.InDelta(t, 20*math.Sin(0.5), p[1], 1e-4)
}

func TestPanMovesTargetAndEyeTogether(t *testing.T) {
	ctrl := NewOrbitController(WithOrbit(10, 0, 0))
	before := common.Sub3(ctrl.Position(), ctrl.Target())
	ctrl.Pan(3, 0)
	after := common.Sub3(ctrl.Position(), ctrl.Target())
	for i := range before {
		assert.InDelta(t, before[i], after[i], 1e-5)
	}
	assert.InDelta(t, 3, ctrl.Target()[0], 1e-5)
}

func TestGPUCameraMarshalLayout(t *testing.T) {
	c := NewCamera(WithPosition(1, 2, 3), WithClipPlanes(0.5, 250))
	g := NewGPUCamera(c, 1.5, 1280, 720)
	buf := g.Marshal()
	require.Len(t, buf, 224)

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(1), f(192))
	assert.Equal(t, float32(3), f(200))
	assert.Equal(t, float32(0.5), f(204))
	assert.Equal(t, float32(250), f(208))
	assert.Equal(t, float32(1.5), f(212))
	assert.Equal(t, float32(1280), f(216))
	assert.Equal(t, float32(720), f(220))
}
