package geometry

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputSize(t *testing.T) {
	// 160x80 rectangle rounds to multiples of 8 unchanged.
	c := [4]Point{{0, 0}, {160, 0}, {160, 80}, {0, 80}}
	w, h := OutputSize(c, 1600)
	assert.Equal(t, 160, w)
	assert.Equal(t, 80, h)

	// Capped by maxDim while keeping proportions.
	w, h = OutputSize(c, 80)
	assert.LessOrEqual(t, w, 80)
	assert.Equal(t, 0, w%8)
	assert.Equal(t, 0, h%8)
	assert.GreaterOrEqual(t, h, 8)
}

func TestOutputSizeDegenerate(t *testing.T) {
	c := [4]Point{{0, 0}, {2, 0}, {2, 1}, {0, 1}}
	w, h := OutputSize(c, 1600)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestOutputSizeSmallQuad(t *testing.T) {
	c := [4]Point{{0, 0}, {10, 0}, {10, 6}, {0, 6}}
	w, h := OutputSize(c, 1600)
	assert.GreaterOrEqual(t, w, 8)
	assert.GreaterOrEqual(t, h, 8)
	assert.Equal(t, 0, w%8)
	assert.Equal(t, 0, h%8)
}

func TestWarpPerspectiveIdentityQuad(t *testing.T) {
	// Warping the full image rectangle reproduces the image.
	src := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 8), A: 255})
		}
	}
	quad := [4]Point{{0, 0}, {63, 0}, {63, 31}, {0, 31}}
	out := WarpPerspective(src, quad, 64, 32)
	require.NotNil(t, out)
	assert.Equal(t, 64, out.Bounds().Dx())
	assert.Equal(t, 32, out.Bounds().Dy())

	r1, g1, _, _ := src.At(20, 10).RGBA()
	r2, g2, _, _ := out.At(20, 10).RGBA()
	assert.InDelta(t, float64(r1), float64(r2), 300)
	assert.InDelta(t, float64(g1), float64(g2), 300)
}

func TestWarpPerspectiveInvalidSize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	quad := [4]Point{{0, 0}, {7, 0}, {7, 7}, {0, 7}}
	assert.Nil(t, WarpPerspective(src, quad, 0, 8))
}
