package model

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Mesh texture slots, in the order the geometry pass binds them.
const (
	TextureAlbedo = iota
	TextureNormal
	TextureMetalness
	TextureRoughness
	TextureAmbientOcclusion
	TextureEmissive

	// MeshTextureCount is the number of texture slots of every mesh.
	MeshTextureCount
)

// Mesh is an uploaded, drawable piece of a Model. Nil texture slots are replaced
// by the neutral fallback texture at draw time.
type Mesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices holds GPUVertex data in the interleaved mesh layout.
	Vertices renderer.Buffer

	// Indices holds uint32 triangle indices.
	Indices renderer.Buffer

	// IndexCount is the number of indices to draw.
	IndexCount int

	// Textures holds the per-slot material textures.
	Textures [MeshTextureCount]renderer.Texture
}

// Release frees the mesh buffers and textures.
func (m *Mesh) Release() {
	if m.Vertices != nil {
		m.Vertices.Release()
	}
	if m.Indices != nil {
		m.Indices.Release()
	}
	for i, t := range m.Textures {
		if t != nil {
			t.Release()
			m.Textures[i] = nil
		}
	}
}

// ImportedMesh is CPU-side mesh data produced by an importer or a generator,
// ready for Upload.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices.
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32

	// Textures references the encoded image of each slot. Nil slots stay empty.
	Textures [MeshTextureCount]*common.ImportedTexture
}
