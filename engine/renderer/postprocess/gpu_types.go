package postprocess

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

// KernelSize is the number of hemisphere samples in the occlusion kernel.
const KernelSize = 16

// GPUPostFrame is the per-frame block shared by every post-processing stage. WGSL
// layout (uniform address space, 640 bytes):
//
//	struct PostFrame {
//	    view: mat4x4<f32>,
//	    proj: mat4x4<f32>,
//	    inv_view: mat4x4<f32>,
//	    inv_proj: mat4x4<f32>,
//	    light_view_proj: mat4x4<f32>,
//	    camera_position: vec3<f32>,
//	    near: f32,
//	    light_direction: vec3<f32>,
//	    far: f32,
//	    light_color: vec3<f32>,
//	    light_intensity: f32,
//	    resolution: vec2<f32>,
//	    has_light: u32,
//	    _pad: u32,
//	    kernel: array<vec4<f32>, 16>,
//	}
type GPUPostFrame struct {
	View           [16]float32            // offset   0
	Proj           [16]float32            // offset  64
	InvView        [16]float32            // offset 128
	InvProj        [16]float32            // offset 192
	LightViewProj  [16]float32            // offset 256
	CameraPosition [3]float32             // offset 320
	Near           float32                // offset 332
	LightDirection [3]float32             // offset 336
	Far            float32                // offset 348
	LightColor     [3]float32             // offset 352
	LightIntensity float32                // offset 364
	Resolution     [2]float32             // offset 368
	HasLight       uint32                 // offset 376
	_pad           uint32                 // offset 380
	Kernel         [KernelSize][4]float32 // offset 384
}

// Size returns the size of the GPUPostFrame struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (640)
func (g *GPUPostFrame) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPostFrame struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 640-byte buffer ready for GPU upload
func (g *GPUPostFrame) Marshal() []byte {
	buf := make([]byte, g.Size())
	put := func(off int, vs ...float32) {
		for i, v := range vs {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v))
		}
	}
	put(0, g.View[:]...)
	put(64, g.Proj[:]...)
	put(128, g.InvView[:]...)
	put(192, g.InvProj[:]...)
	put(256, g.LightViewProj[:]...)
	put(320, g.CameraPosition[:]...)
	put(332, g.Near)
	put(336, g.LightDirection[:]...)
	put(348, g.Far)
	put(352, g.LightColor[:]...)
	put(364, g.LightIntensity)
	put(368, g.Resolution[:]...)
	binary.LittleEndian.PutUint32(buf[376:], g.HasLight)
	for i, k := range g.Kernel {
		put(384+i*16, k[:]...)
	}
	return buf
}

// GPUStageParams is the per-stage block: the size of the stage output and its
// reciprocal. Size: 16 bytes.
type GPUStageParams struct {
	OutputSize [2]float32 // offset 0
	TexelSize  [2]float32 // offset 8
}

// NewGPUStageParams fills the block for a width x height output.
//
// Parameters:
//   - width, height: the output size in pixels
//
// Returns:
//   - GPUStageParams: the filled block
func NewGPUStageParams(width, height int) GPUStageParams {
	g := GPUStageParams{OutputSize: [2]float32{float32(width), float32(height)}}
	if width > 0 && height > 0 {
		g.TexelSize = [2]float32{1 / float32(width), 1 / float32(height)}
	}
	return g
}

// Size returns the size of the GPUStageParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUStageParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUStageParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUStageParams) Marshal() []byte {
	buf := make([]byte, 16)
	for i, v := range [4]float32{g.OutputSize[0], g.OutputSize[1], g.TexelSize[0], g.TexelSize[1]} {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// OcclusionKernel builds the hemisphere sample kernel. Samples lie in the +Z
// hemisphere and are scaled so that they cluster towards the origin.
//
// Parameters:
//   - rng: the random source
//
// Returns:
//   - [KernelSize][4]float32: the samples, w is zero
func OcclusionKernel(rng *rand.Rand) [KernelSize][4]float32 {
	var out [KernelSize][4]float32
	for i := range KernelSize {
		s := common.Normalize3([3]float32{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32(),
		})
		s = common.Scale3(s, rng.Float32())
		t := float32(i) / KernelSize
		s = common.Scale3(s, common.Lerp(0.1, 1, t*t))
		out[i] = [4]float32{s[0], s[1], s[2], 0}
	}
	return out
}

// NoiseData builds size x size RGBA32Float rotation vectors in the XY plane for
// tiling the occlusion kernel.
//
// Parameters:
//   - rng: the random source
//   - size: the texture width and height
//
// Returns:
//   - []byte: the texel data
func NoiseData(rng *rand.Rand, size int) []byte {
	buf := make([]byte, size*size*16)
	for i := 0; i < size*size; i++ {
		angle := rng.Float32() * 2 * math32.Pi
		v := [4]float32{math32.Cos(angle), math32.Sin(angle), 0, 0}
		for j, c := range v {
			binary.LittleEndian.PutUint32(buf[i*16+j*4:], math.Float32bits(c))
		}
	}
	return buf
}
