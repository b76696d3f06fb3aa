package resource

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Fallbacks holds the 1x1 textures bound into slots a draw has nothing for. Every
// texture a program declares must be bound, so passes fill empty slots from here.
type Fallbacks struct {
	// White is opaque white RGBA8.
	White renderer.Texture
	// Black is opaque black RGBA8.
	Black renderer.Texture
	// FlatNormal encodes the tangent-space normal (0, 0, 1).
	FlatNormal renderer.Texture
	// Cube is a black cube texture for environment slots.
	Cube renderer.Texture
}

// NewFallbacks creates the fallback textures.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - *Fallbacks: the fallback set
//   - error: an error if a texture could not be created
func NewFallbacks(r renderer.Renderer) (*Fallbacks, error) {
	f := &Fallbacks{}
	specs := []struct {
		dst   *renderer.Texture
		label string
		rgba  [4]byte
		cube  bool
	}{
		{&f.White, "Fallback.White", [4]byte{255, 255, 255, 255}, false},
		{&f.Black, "Fallback.Black", [4]byte{0, 0, 0, 255}, false},
		{&f.FlatNormal, "Fallback.Normal", [4]byte{128, 128, 255, 255}, false},
		{&f.Cube, "Fallback.Cube", [4]byte{0, 0, 0, 255}, true},
	}
	for _, s := range specs {
		t, err := r.CreateTexture(renderer.TextureDescriptor{
			Label:  s.label,
			Width:  1,
			Height: 1,
			Format: renderer.FormatRGBA8Unorm,
			Usage:  renderer.TextureUsageSampled | renderer.TextureUsageCopyDst,
			Cube:   s.cube,
			Data:   s.rgba[:],
		})
		if err != nil {
			f.Release()
			return nil, fmt.Errorf("resource: fallback %s: %w", s.label, err)
		}
		*s.dst = t
	}
	return f, nil
}

// Release frees every fallback texture in reverse creation order.
func (f *Fallbacks) Release() {
	for _, t := range []*renderer.Texture{&f.Cube, &f.FlatNormal, &f.Black, &f.White} {
		if *t != nil {
			(*t).Release()
			*t = nil
		}
	}
}

// errNilFallbacks is returned by Validate for an incomplete set.
var errNilFallbacks = errors.New("resource: fallback set is incomplete")

// Validate reports whether every fallback texture exists.
//
// Returns:
//   - error: an error if a texture is missing
func (f *Fallbacks) Validate() error {
	if f == nil || f.White == nil || f.Black == nil || f.FlatNormal == nil || f.Cube == nil {
		return errNilFallbacks
	}
	return nil
}
