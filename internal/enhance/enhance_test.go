package enhance

import (
	"image"
	"sync"
	"testing"

	"github.com/cardfolio/cardscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhancePreservesDimensions(t *testing.T) {
	e := New(NewContext(Config{}, nil))
	img := testutil.CardScene(testutil.DefaultCardOptions())

	out := e.Enhance(img)
	require.NotNil(t, out)
	assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dy(), out.Bounds().Dy())
}

func TestEnhanceStretchesContrast(t *testing.T) {
	e := New(NewContext(Config{}, nil))
	img := testutil.CardScene(testutil.DefaultCardOptions())

	out := e.Enhance(img)
	lo1, hi1 := luminanceRange(img)
	lo2, hi2 := luminanceRange(out)
	assert.GreaterOrEqual(t, hi2-lo2, hi1-lo1)
}

func TestEnhanceDocumentGrayscales(t *testing.T) {
	e := New(NewContext(Config{}, nil))
	img := testutil.CardScene(testutil.DefaultCardOptions())

	out := e.EnhanceDocument(img)
	require.NotNil(t, out)
	assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx())

	// Every pixel has equal channels after grayscale conversion.
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 37 {
		for x := b.Min.X; x < b.Max.X; x += 41 {
			r, g, bl, _ := out.At(x, y).RGBA()
			assert.Equal(t, r, g)
			assert.Equal(t, g, bl)
		}
	}
}

func TestEnhanceDocumentColorToggle(t *testing.T) {
	e := New(NewContext(Config{DocumentColor: true}, nil))
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 80, 80, 255
	}

	out := e.EnhanceDocument(img)
	require.NotNil(t, out)
	r, g, _, _ := out.At(32, 32).RGBA()
	assert.NotEqual(t, r, g, "document color mode must not grayscale")
}

func TestEnhanceBoostsSaturation(t *testing.T) {
	e := New(NewContext(Config{}, nil))
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		if (i/4)%64 < 32 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 120, 100, 100
		} else {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 100, 100, 120
		}
		img.Pix[i+3] = 255
	}

	out := e.Enhance(img)
	require.NotNil(t, out)
	r, g, _, _ := out.At(8, 32).RGBA()
	assert.Greater(t, int(r>>8)-int(g>>8), 120-100, "channel spread should widen")
}

func TestUnsharpMaskPreservesHue(t *testing.T) {
	// A luminance edge between two colors: the same delta must land on
	// every channel, never a per-channel correction.
	img := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			o := img.PixOffset(x, y)
			if x < 16 {
				img.Pix[o], img.Pix[o+1], img.Pix[o+2] = 180, 90, 90
			} else {
				img.Pix[o], img.Pix[o+1], img.Pix[o+2] = 90, 90, 180
			}
			img.Pix[o+3] = 255
		}
	}

	out := unsharpMask(img, 1.0, 1.0).(*image.NRGBA)
	for y := 4; y < 12; y += 4 {
		for x := 12; x < 20; x++ {
			o := img.PixOffset(x, y)
			dr := int(out.Pix[o]) - int(img.Pix[o])
			dg := int(out.Pix[o+1]) - int(img.Pix[o+1])
			db := int(out.Pix[o+2]) - int(img.Pix[o+2])
			assert.InDelta(t, dr, dg, 1, "x=%d y=%d", x, y)
			assert.InDelta(t, dg, db, 1, "x=%d y=%d", x, y)
		}
	}
}

func TestEnhanceNilAndEmpty(t *testing.T) {
	e := New(NewContext(Config{}, nil))
	assert.Nil(t, e.Enhance(nil))
	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	assert.Equal(t, image.Image(empty), e.Enhance(empty))
	assert.Nil(t, e.EnhanceDocument(nil))
}

func TestEnhancerIsConcurrencySafe(t *testing.T) {
	e := New(NewContext(Config{}, nil))
	img := testutil.CardScene(testutil.DefaultCardOptions())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := e.Enhance(img)
			assert.NotNil(t, out)
		}()
	}
	wg.Wait()
}

func TestNewContextFillsZeroConfig(t *testing.T) {
	ctx := NewContext(Config{SharpenAmount: 1.5}, nil)
	cfg := ctx.Config()
	assert.InDelta(t, 1.5, cfg.SharpenAmount, 1e-9)
	assert.InDelta(t, DefaultConfig().ContrastCutoff, cfg.ContrastCutoff, 1e-9)
	assert.InDelta(t, DefaultConfig().DenoiseSigma, cfg.DenoiseSigma, 1e-9)
	assert.InDelta(t, DefaultConfig().SaturationBoost, cfg.SaturationBoost, 1e-9)
	assert.InDelta(t, DefaultConfig().LumaSharpenSigma, cfg.LumaSharpenSigma, 1e-9)
	assert.InDelta(t, DefaultConfig().LumaSharpenAmount, cfg.LumaSharpenAmount, 1e-9)
}

func TestNewContextClampsSaturation(t *testing.T) {
	ctx := NewContext(Config{SaturationBoost: 250}, nil)
	assert.InDelta(t, 100, ctx.Config().SaturationBoost, 1e-9)
	ctx = NewContext(Config{SaturationBoost: -250}, nil)
	assert.InDelta(t, -100, ctx.Config().SaturationBoost, 1e-9)
}

func luminanceRange(img image.Image) (int, int) {
	b := img.Bounds()
	lo, hi := 255, 0
	for y := b.Min.Y; y < b.Max.Y; y += 3 {
		for x := b.Min.X; x < b.Max.X; x += 3 {
			r, g, bl, _ := img.At(x, y).RGBA()
			l := int((299*r + 587*g + 114*bl) / 1000 >> 8)
			if l < lo {
				lo = l
			}
			if l > hi {
				hi = l
			}
		}
	}
	return lo, hi
}
