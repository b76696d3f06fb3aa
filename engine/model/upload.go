package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Upload creates the GPU buffers of src and decodes and uploads every referenced
// texture. Albedo and emissive images are uploaded as sRGB. On error every
// resource created so far is released.
//
// Parameters:
//   - r: the renderer to create resources with
//   - src: the CPU-side mesh
//
// Returns:
//   - *Mesh: the uploaded mesh
//   - error: an error if src is empty or any creation or decode fails
func Upload(r renderer.Renderer, src ImportedMesh) (*Mesh, error) {
	if len(src.Vertices) == 0 || len(src.Indices) == 0 {
		return nil, fmt.Errorf("model: mesh %q has no geometry", src.Name)
	}

	mesh := &Mesh{Name: src.Name, IndexCount: len(src.Indices)}
	fail := func(err error) (*Mesh, error) {
		mesh.Release()
		return nil, err
	}

	vb, err := r.CreateBuffer(renderer.BufferDescriptor{
		Label: src.Name + ".Vertices",
		Usage: renderer.BufferUsageVertex,
		Data:  MarshalVertices(src.Vertices),
	})
	if err != nil {
		return fail(fmt.Errorf("model: create vertex buffer for %q: %w", src.Name, err))
	}
	mesh.Vertices = vb

	ib, err := r.CreateBuffer(renderer.BufferDescriptor{
		Label: src.Name + ".Indices",
		Usage: renderer.BufferUsageIndex,
		Data:  MarshalIndices(src.Indices),
	})
	if err != nil {
		return fail(fmt.Errorf("model: create index buffer for %q: %w", src.Name, err))
	}
	mesh.Indices = ib

	var errs []error
	for slot, imported := range src.Textures {
		if imported == nil {
			continue
		}
		data, err := imported.Decode()
		if err != nil {
			errs = append(errs, fmt.Errorf("model: texture slot %d of %q: %w", slot, src.Name, err))
			continue
		}
		format := renderer.FormatRGBA8Unorm
		if slot == TextureAlbedo || slot == TextureEmissive {
			format = renderer.FormatRGBA8UnormSrgb
		}
		tex, err := r.CreateTexture(renderer.TextureDescriptor{
			Label:  fmt.Sprintf("%s.Texture%d", src.Name, slot),
			Width:  int(data.Width),
			Height: int(data.Height),
			Format: format,
			Usage:  renderer.TextureUsageSampled | renderer.TextureUsageCopyDst,
			Data:   data.Pixels,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("model: upload texture slot %d of %q: %w", slot, src.Name, err))
			continue
		}
		mesh.Textures[slot] = tex
	}
	if err := errors.Join(errs...); err != nil {
		return fail(err)
	}
	return mesh, nil
}
