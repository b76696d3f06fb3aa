package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// Ambient flag bits reported in GPUAmbientLight.Flags.
const (
	AmbientHasIrradiance uint32 = 1 << iota
	AmbientHasPrefiltered
	AmbientHasBRDF
)

// GPUDirectionalLight is the uniform block of one full-screen directional light draw.
// Size: 112 bytes.
type GPUDirectionalLight struct {
	LightViewProj [16]float32 // offset   0: light view-projection of the shadow map
	Direction     [3]float32  // offset  64: normalized light direction
	Intensity     float32     // offset  76
	Color         [3]float32  // offset  80
	ShadowBias    float32     // offset  92
	CastsShadows  uint32      // offset  96: 1 when a shadow map is bound
	TexelSize     float32     // offset 100: 1 / shadow map resolution
	_pad          [2]uint32   // offset 104
}

// NewGPUDirectionalLight fills a GPUDirectionalLight from l and its current shadow matrix.
//
// Parameters:
//   - l: the light
//   - lightViewProj: the light view-projection, identity when the light has no shadow map
//   - resolution: the shadow map resolution, zero when there is none
//
// Returns:
//   - GPUDirectionalLight: the filled block
func NewGPUDirectionalLight(l DirectionalLight, lightViewProj [16]float32, resolution int) GPUDirectionalLight {
	g := GPUDirectionalLight{
		LightViewProj: lightViewProj,
		Direction:     l.Direction(),
		Intensity:     l.Intensity(),
		Color:         l.Color(),
		ShadowBias:    DefaultShadowBias,
	}
	if resolution > 0 {
		g.CastsShadows = 1
		g.TexelSize = 1 / float32(resolution)
	}
	return g
}

// Size returns the size of the GPUDirectionalLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (g *GPUDirectionalLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDirectionalLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload
func (g *GPUDirectionalLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.LightViewProj[i]))
	}
	putVec3(buf[64:], g.Direction)
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(g.Intensity))
	putVec3(buf[80:], g.Color)
	binary.LittleEndian.PutUint32(buf[92:], math.Float32bits(g.ShadowBias))
	binary.LittleEndian.PutUint32(buf[96:], g.CastsShadows)
	binary.LittleEndian.PutUint32(buf[100:], math.Float32bits(g.TexelSize))
	return buf
}

// GPUPointLight is the uniform block of one point light volume draw.
// Size: 96 bytes.
type GPUPointLight struct {
	Model     [16]float32 // offset  0: unit sphere to world, scaled to the radius
	Position  [3]float32  // offset 64
	Radius    float32     // offset 76
	Color     [3]float32  // offset 80
	Intensity float32     // offset 92
}

// NewGPUPointLight fills a GPUPointLight from l. The model matrix scales the unit
// sphere to the light radius and moves it to the light position.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - GPUPointLight: the filled block
func NewGPUPointLight(l PointLight) GPUPointLight {
	g := GPUPointLight{
		Position:  l.Position(),
		Radius:    l.Radius(),
		Color:     l.Color(),
		Intensity: l.Intensity(),
	}
	r := g.Radius
	common.BuildModelMatrix(g.Model[:], g.Position, [3]float32{}, [3]float32{r, r, r})
	return g
}

// Size returns the size of the GPUPointLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPUPointLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPointLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload
func (g *GPUPointLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
	}
	putVec3(buf[64:], g.Position)
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(g.Radius))
	putVec3(buf[80:], g.Color)
	binary.LittleEndian.PutUint32(buf[92:], math.Float32bits(g.Intensity))
	return buf
}

// GPUAmbientLight is the uniform block of the ambient draw. Size: 32 bytes.
type GPUAmbientLight struct {
	Color     [3]float32 // offset  0
	Intensity float32    // offset 12
	Flags     uint32     // offset 16: Ambient* bits
	_pad      [3]uint32  // offset 20
}

// NewGPUAmbientLight fills a GPUAmbientLight from l. A nil l yields a black ambient term.
//
// Parameters:
//   - l: the environment light, or nil
//
// Returns:
//   - GPUAmbientLight: the filled block
func NewGPUAmbientLight(l EnvironmentLight) GPUAmbientLight {
	if l == nil {
		return GPUAmbientLight{}
	}
	g := GPUAmbientLight{Color: l.Color(), Intensity: l.Intensity()}
	if l.Irradiance() != nil {
		g.Flags |= AmbientHasIrradiance
	}
	if l.Prefiltered() != nil {
		g.Flags |= AmbientHasPrefiltered
	}
	if l.BRDF() != nil {
		g.Flags |= AmbientHasBRDF
	}
	return g
}

// Size returns the size of the GPUAmbientLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUAmbientLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUAmbientLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUAmbientLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	putVec3(buf[0:], g.Color)
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[16:], g.Flags)
	return buf
}

func putVec3(buf []byte, v [3]float32) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
}
