// package common contains plain data types and math helpers that are shared throughout the engine.
// They are not interface-wrapped structs, just plain structs that express commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureData holds RGBA8 pixel data for a texture pending GPU upload.
type TextureData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// ImportedTexture references an image by embedded bytes or by file path.
// Supported encodings are PNG, JPEG, BMP, TIFF and WebP.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g. "albedo", "normal").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw encoded image bytes for embedded textures.
	Data []byte

	// MaxSize, when non-zero, bounds the larger dimension of the decoded image.
	// Larger images are downsampled with a Catmull-Rom filter.
	MaxSize int
}

// Decode decodes the texture to RGBA8 pixel data.
//
// Returns:
//   - TextureData: the decoded pixels and dimensions
//   - error: error if the texture has no source or decoding fails
func (t *ImportedTexture) Decode() (TextureData, error) {
	if t == nil {
		return TextureData{}, fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error
	switch {
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return TextureData{}, fmt.Errorf("failed to decode embedded image %q: %w", t.Name, err)
		}
	case t.Path != "":
		file, openErr := os.Open(t.Path)
		if openErr != nil {
			return TextureData{}, fmt.Errorf("failed to open texture file %s: %w", t.Path, openErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return TextureData{}, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	default:
		return TextureData{}, fmt.Errorf("texture %q has neither data nor path", t.Name)
	}

	return ToTextureData(img, t.MaxSize), nil
}

// ToTextureData converts any image to RGBA8 texture data, downsampling it so the
// larger dimension does not exceed maxSize when maxSize is positive.
//
// Parameters:
//   - img: the source image
//   - maxSize: the dimension bound, or 0 for none
//
// Returns:
//   - TextureData: the converted pixels
func ToTextureData(img image.Image, maxSize int) TextureData {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, bounds, draw.Src, nil)
		return TextureData{Pixels: rgba.Pix, Width: uint32(w), Height: uint32(h)}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return TextureData{Pixels: rgba.Pix, Width: uint32(w), Height: uint32(h)}
}

// SolidTexture returns a width x height texture filled with a single RGBA8 color.
//
// Parameters:
//   - width, height: the texture dimensions
//   - rgba: the fill color
//
// Returns:
//   - TextureData: the filled texture
func SolidTexture(width, height uint32, rgba [4]uint8) TextureData {
	pix := make([]byte, int(width*height)*4)
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:i+4], rgba[:])
	}
	return TextureData{Pixels: pix, Width: width, Height: height}
}
