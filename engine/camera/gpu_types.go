package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCamera is the per-frame camera block shared by the geometry, lighting and
// skybox programs. WGSL layout (uniform address space, 224 bytes):
//
//	struct Camera {
//	    view_proj: mat4x4<f32>,
//	    inv_view: mat4x4<f32>,
//	    inv_proj: mat4x4<f32>,
//	    position: vec3<f32>,
//	    near: f32,
//	    far: f32,
//	    time: f32,
//	    viewport: vec2<f32>,
//	}
type GPUCamera struct {
	ViewProj [16]float32 // offset   0
	InvView  [16]float32 // offset  64
	InvProj  [16]float32 // offset 128
	Position [3]float32  // offset 192
	Near     float32     // offset 204
	Far      float32     // offset 208
	Time     float32     // offset 212
	Viewport [2]float32  // offset 216
}

// NewGPUCamera snapshots c into a GPUCamera.
//
// Parameters:
//   - c: the camera to snapshot
//   - time: the frame time in seconds
//   - width, height: the viewport size in pixels
//
// Returns:
//   - GPUCamera: the filled block
func NewGPUCamera(c Camera, time float32, width, height int) GPUCamera {
	return GPUCamera{
		ViewProj: c.ViewProjectionMatrix(),
		InvView:  c.InverseViewMatrix(),
		InvProj:  c.InverseProjectionMatrix(),
		Position: c.Position(),
		Near:     c.Near(),
		Far:      c.Far(),
		Time:     time,
		Viewport: [2]float32{float32(width), float32(height)},
	}
}

// Size returns the size of the GPUCamera struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (224)
func (g *GPUCamera) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCamera struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCamera) Marshal() []byte {
	buf := make([]byte, g.Size())
	putMat := func(off int, m [16]float32) {
		for i := range 16 {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(m[i]))
		}
	}
	putMat(0, g.ViewProj)
	putMat(64, g.InvView)
	putMat(128, g.InvProj)
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[192+i*4:], math.Float32bits(g.Position[i]))
	}
	binary.LittleEndian.PutUint32(buf[204:], math.Float32bits(g.Near))
	binary.LittleEndian.PutUint32(buf[208:], math.Float32bits(g.Far))
	binary.LittleEndian.PutUint32(buf[212:], math.Float32bits(g.Time))
	binary.LittleEndian.PutUint32(buf[216:], math.Float32bits(g.Viewport[0]))
	binary.LittleEndian.PutUint32(buf[220:], math.Float32bits(g.Viewport[1]))
	return buf
}
