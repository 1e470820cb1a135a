package detector

import (
	"image"

	"github.com/cardfolio/cardscan/internal/mempool"
)

// luminancePlane extracts a pooled float32 luminance plane in [0,255].
func luminancePlane(img image.Image) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	lum := mempool.GetFloat32(w * h)
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			row := nrgba.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				o := row + x*4
				r := float32(nrgba.Pix[o])
				g := float32(nrgba.Pix[o+1])
				bl := float32(nrgba.Pix[o+2])
				lum[y*w+x] = 0.299*r + 0.587*g + 0.114*bl
			}
		}
		return lum
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum[y*w+x] = 0.299*float32(r>>8) + 0.587*float32(g>>8) + 0.114*float32(bl>>8)
		}
	}
	return lum
}

// gradientMagnitude computes a pooled Sobel gradient magnitude plane,
// scaled to [0,255], and reports the pre-scale peak magnitude so callers
// can tell a flat plane from one with real edges. Border pixels are zero.
func gradientMagnitude(lum []float32, w, h int) ([]float32, float32) {
	grad := mempool.GetFloat32(w * h)
	for i := range grad {
		grad[i] = 0
	}
	var maxV float32
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			gx := lum[i-w+1] + 2*lum[i+1] + lum[i+w+1] -
				lum[i-w-1] - 2*lum[i-1] - lum[i+w-1]
			gy := lum[i+w-1] + 2*lum[i+w] + lum[i+w+1] -
				lum[i-w-1] - 2*lum[i-w] - lum[i-w+1]
			m := abs32(gx) + abs32(gy)
			grad[i] = m
			if m > maxV {
				maxV = m
			}
		}
	}
	if maxV > 0 {
		scale := 255 / maxV
		for i := range grad {
			grad[i] *= scale
		}
	}
	return grad, maxV
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// otsuThreshold computes Otsu's threshold over a [0,255] plane and returns
// the lower bound of the bright class, one whole bin above the dark class's
// last bin. Comparing with >= (bright) or < (dark) then matches the
// histogram binning exactly, including values sitting on a bin boundary.
func otsuThreshold(plane []float32) float32 {
	var hist [256]int
	for _, v := range plane {
		idx := int(v)
		if idx < 0 {
			idx = 0
		}
		if idx > 255 {
			idx = 255
		}
		hist[idx]++
	}
	total := len(plane)
	if total == 0 {
		return 1
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}
	var sumB, wB float64
	var bestVar float64
	best := 0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return float32(best + 1)
}

// binarize builds a pooled 0/1 byte mask of the bright class, values at or
// above t.
func binarize(plane []float32, t float32) []byte {
	mask := mempool.GetByte(len(plane))
	for i, v := range plane {
		if v >= t {
			mask[i] = 1
		}
	}
	return mask
}

// closeMask applies morphological closing (dilate then erode) in place with
// a kw x kh rectangular kernel, bridging small gaps in edge chains.
func closeMask(mask []byte, w, h, kw, kh int) {
	dilateMask(mask, w, h, kw, kh)
	erodeMask(mask, w, h, kw, kh)
}

func dilateMask(mask []byte, w, h, kw, kh int) {
	src := mempool.GetByte(len(mask))
	copy(src, mask)
	defer mempool.PutByte(src)
	hx, hy := kw/2, kh/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src[y*w+x] != 0 {
				continue
			}
			set := false
			for dy := -hy; dy <= hy && !set; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -hx; dx <= hx; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					if src[ny*w+nx] != 0 {
						set = true
						break
					}
				}
			}
			if set {
				mask[y*w+x] = 1
			}
		}
	}
}

func erodeMask(mask []byte, w, h, kw, kh int) {
	src := mempool.GetByte(len(mask))
	copy(src, mask)
	defer mempool.PutByte(src)
	hx, hy := kw/2, kh/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src[y*w+x] == 0 {
				continue
			}
			keep := true
			for dy := -hy; dy <= hy && keep; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -hx; dx <= hx; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					if src[ny*w+nx] == 0 {
						keep = false
						break
					}
				}
			}
			if !keep {
				mask[y*w+x] = 0
			}
		}
	}
}
