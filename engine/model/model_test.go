package model

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphereCounts(t *testing.T) {
	s := Sphere(1, 10, 10, [4]float32{1, 1, 1, 1})
	assert.Len(t, s.Vertices, 2+9*11)
	assert.Len(t, s.Indices, 6*10*9)
	for _, idx := range s.Indices {
		require.Less(t, int(idx), len(s.Vertices))
	}
	for _, v := range s.Vertices {
		assert.InDelta(t, 1, common.LengthSq3(v.Position), 1e-5)
	}
}

func TestCubeCounts(t *testing.T) {
	c := Cube([4]float32{1, 1, 1, 1})
	assert.Len(t, c.Vertices, 24)
	assert.Len(t, c.Indices, 36)
}

func TestTransformRebuildsAfterMove(t *testing.T) {
	m := NewModel(WithPosition(1, 2, 3))
	tr := m.Transform()
	assert.Equal(t, float32(1), tr[12])

	m.SetPosition(4, 5, 6)
	tr = m.Transform()
	assert.Equal(t, float32(4), tr[12])
	assert.Equal(t, float32(6), tr[14])
}

func TestGPUObjectCarriesMaterial(t *testing.T) {
	m := NewModel(WithMaterial(material.NewMaterial(material.WithRoughness(0.75))))
	g := NewGPUObject(m)
	assert.Equal(t, float32(0.75), g.Material.Roughness)
	assert.Len(t, g.Marshal(), 96)
}

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadCreatesBuffersAndTextures(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	src := Cube([4]float32{1, 1, 1, 1})
	src.Textures[TextureAlbedo] = &common.ImportedTexture{Name: "albedo", Data: pngBytes(t)}

	mesh, err := Upload(rec, src)
	require.NoError(t, err)
	assert.Equal(t, 36, mesh.IndexCount)
	assert.Equal(t, 24*48, mesh.Vertices.Size())
	require.NotNil(t, mesh.Textures[TextureAlbedo])
	assert.Equal(t, renderer.FormatRGBA8UnormSrgb, mesh.Textures[TextureAlbedo].Format())
	assert.Nil(t, mesh.Textures[TextureNormal])
}

func TestUploadReleasesOnBadTexture(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	src := Cube([4]float32{1, 1, 1, 1})
	src.Textures[TextureNormal] = &common.ImportedTexture{Name: "broken", Data: []byte("not an image")}

	_, err := Upload(rec, src)
	require.Error(t, err)
	for _, b := range rec.Buffers() {
		assert.True(t, b.Released())
	}
}

func TestUploadRejectsEmptyMesh(t *testing.T) {
	_, err := Upload(renderertest.NewRecorder(8, 8), ImportedMesh{Name: "empty"})
	assert.Error(t, err)
}
