package material

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterial is the material half of the geometry pass per-object block.
// Size: 32 bytes.
type GPUMaterial struct {
	Albedo    [4]float32 // offset  0: RGBA, alpha Unset selects the albedo texture
	Metallic  float32    // offset 16
	Roughness float32    // offset 20
	AO        float32    // offset 24
	Emissive  float32    // offset 28
}

// NewGPUMaterial snapshots m. A nil material yields an all-Unset block.
//
// Parameters:
//   - m: the material, or nil
//
// Returns:
//   - GPUMaterial: the filled block
func NewGPUMaterial(m Material) GPUMaterial {
	if m == nil {
		return GPUMaterial{
			Albedo:   [4]float32{1, 1, 1, Unset},
			Metallic: Unset, Roughness: Unset, AO: Unset, Emissive: Unset,
		}
	}
	return GPUMaterial{
		Albedo:    m.Albedo(),
		Metallic:  m.Metallic(),
		Roughness: m.Roughness(),
		AO:        m.AO(),
		Emissive:  m.Emissive(),
	}
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, 32)
	g.MarshalTo(buf)
	return buf
}

// MarshalTo writes the block into buf, which must hold at least 32 bytes.
//
// Parameters:
//   - buf: the destination
func (g *GPUMaterial) MarshalTo(buf []byte) {
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Albedo[i]))
	}
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Metallic))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.AO))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Emissive))
}
