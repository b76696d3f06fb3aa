package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalescePicksFirstNonZero(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(float32(-3), 1, 5))
	assert.Equal(t, 5, Clamp(9, 1, 5))
	assert.Equal(t, 3, Clamp(3, 1, 5))
}

func TestInvert4RejectsSingular(t *testing.T) {
	var zero [16]float32
	out := Identity4()
	assert.False(t, Invert4(out[:], zero[:]))
	assert.Equal(t, Identity4(), out)

	var m [16]float32
	Translation(m[:], 1, 2, 3)
	inv := Inverse4(m)
	assert.Equal(t, float32(-2), inv[13])
}

func TestDecodeDownsamplesToMaxSize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 16))
	for x := 0; x < 64; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	tex := &ImportedTexture{Name: "wide", Data: buf.Bytes(), MaxSize: 32}
	data, err := tex.Decode()
	require.NoError(t, err)
	assert.Equal(t, uint32(32), data.Width)
	assert.Equal(t, uint32(8), data.Height)
	assert.Len(t, data.Pixels, 32*8*4)
	assert.InDelta(t, 255, data.Pixels[0], 1)
}

func TestDecodeWithoutSourceFails(t *testing.T) {
	_, err := (&ImportedTexture{Name: "empty"}).Decode()
	assert.Error(t, err)

	var missing *ImportedTexture
	_, err = missing.Decode()
	assert.Error(t, err)
}

func TestPrintableKeys(t *testing.T) {
	assert.True(t, KeyW.Printable())
	assert.False(t, KeyEscape.Printable())
}
