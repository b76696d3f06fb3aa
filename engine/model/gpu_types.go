package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// GPUVertex is one interleaved mesh vertex, matching renderer.VertexLayoutMesh.
// Size: 48 bytes.
type GPUVertex struct {
	Position [3]float32 // offset  0: @location(0)
	Normal   [3]float32 // offset 12: @location(1)
	Color    [4]float32 // offset 24: @location(2)
	TexCoord [2]float32 // offset 40: @location(3)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 48)
	g.marshalTo(buf)
	return buf
}

func (g *GPUVertex) marshalTo(buf []byte) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Position[i]))
		binary.LittleEndian.PutUint32(buf[12+i*4:], math.Float32bits(g.Normal[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[24+i*4:], math.Float32bits(g.Color[i]))
	}
	binary.LittleEndian.PutUint32(buf[40:], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[44:], math.Float32bits(g.TexCoord[1]))
}

// MarshalVertices packs vertices back to back.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices) * 48 bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*48)
	for i := range vertices {
		vertices[i].marshalTo(buf[i*48:])
	}
	return buf
}

// MarshalIndices packs uint32 indices little-endian.
//
// Parameters:
//   - indices: the indices to pack
//
// Returns:
//   - []byte: len(indices) * 4 bytes
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// GPUObject is the geometry pass per-object block: the world transform followed
// by the material factors. Size: 96 bytes.
type GPUObject struct {
	Model    [16]float32          // offset  0
	Material material.GPUMaterial // offset 64
}

// NewGPUObject snapshots the transform and material of m.
//
// Parameters:
//   - m: the model
//
// Returns:
//   - GPUObject: the filled block
func NewGPUObject(m Model) GPUObject {
	return GPUObject{
		Model:    m.Transform(),
		Material: material.NewGPUMaterial(m.Material()),
	}
}

// Size returns the size of the GPUObject struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUObject) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUObject struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload.
func (g *GPUObject) Marshal() []byte {
	buf := make([]byte, 96)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	g.Material.MarshalTo(buf[64:])
	return buf
}
