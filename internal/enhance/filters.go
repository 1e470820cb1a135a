package enhance

import (
	"image"

	"github.com/disintegration/imaging"
)

// stretchContrast linearly remaps pixel values so that the given percentile
// of the luminance histogram maps to black and its mirror to white. Flat
// images (no usable range) are returned unchanged.
func stretchContrast(img image.Image, cutoff float64) image.Image {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return img
	}

	var hist [256]int
	total := 0
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			l := (299*int(row[x]) + 587*int(row[x+1]) + 114*int(row[x+2])) / 1000
			hist[l]++
			total++
		}
	}

	lo, hi := percentileBounds(hist[:], total, cutoff)
	if hi <= lo {
		return img
	}

	var lut [256]uint8
	scale := 255.0 / float64(hi-lo)
	for i := range lut {
		v := float64(i-lo) * scale
		lut[i] = clamp8(v)
	}
	for i := 0; i+3 < len(src.Pix); i += 4 {
		src.Pix[i] = lut[src.Pix[i]]
		src.Pix[i+1] = lut[src.Pix[i+1]]
		src.Pix[i+2] = lut[src.Pix[i+2]]
	}
	return src
}

// percentileBounds returns the luminance values at cutoff and 1-cutoff.
func percentileBounds(hist []int, total int, cutoff float64) (int, int) {
	lowTarget := int(float64(total) * cutoff)
	highTarget := int(float64(total) * (1 - cutoff))

	lo, hi := 0, 255
	acc := 0
	for i, n := range hist {
		acc += n
		if acc > lowTarget {
			lo = i
			break
		}
	}
	acc = 0
	for i, n := range hist {
		acc += n
		if acc >= highTarget {
			hi = i
			break
		}
	}
	return lo, hi
}

// unsharpMask sharpens by adding back the luminance difference between the
// image and a Gaussian-blurred copy, scaled by amount. The same delta is
// applied to all three channels so hue is preserved.
func unsharpMask(img image.Image, sigma, amount float64) image.Image {
	src := imaging.Clone(img)
	blurred := imaging.Blur(src, sigma)
	if blurred == nil || len(blurred.Pix) != len(src.Pix) {
		return img
	}
	for i := 0; i+3 < len(src.Pix); i += 4 {
		d := amount * (luma8(src.Pix[i:i+3]) - luma8(blurred.Pix[i:i+3]))
		if d == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			src.Pix[i+c] = clamp8(float64(src.Pix[i+c]) + d)
		}
	}
	return src
}

func luma8(px []byte) float64 {
	return 0.299*float64(px[0]) + 0.587*float64(px[1]) + 0.114*float64(px[2])
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
