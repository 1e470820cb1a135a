package geometry

import (
	"image"
	"image/color"
)

// OutputSize derives the rectified output dimensions for a pixel-space
// quadrilateral (warp order TL, TR, BR, BL) from the average lengths of its
// opposing edges, capped at maxDim on the longer side. Dimensions are
// rounded to multiples of 8. Returns (0, 0) for degenerate quads.
func OutputSize(c [4]Point, maxDim int) (int, int) {
	avgW := (Dist(c[0], c[1]) + Dist(c[3], c[2])) / 2
	avgH := (Dist(c[0], c[3]) + Dist(c[1], c[2])) / 2
	if avgW <= 1 || avgH <= 1 {
		return 0, 0
	}
	if maxDim > 0 {
		long := avgW
		if avgH > long {
			long = avgH
		}
		if long > float64(maxDim) {
			scale := float64(maxDim) / long
			avgW *= scale
			avgH *= scale
		}
	}
	w := (int(avgW) / 8) * 8
	h := (int(avgH) / 8) * 8
	if w < 8 {
		w = 8
	}
	if h < 8 {
		h = 8
	}
	return w, h
}

// WarpPerspective warps the quadrilateral region srcQuad (pixel-space warp
// order TL, TR, BR, BL) from src into an axis-aligned rectangle of size
// dstW x dstH using an inverse homography with bilinear sampling.
// Returns nil when the transform cannot be built.
func WarpPerspective(src image.Image, srcQuad [4]Point, dstW, dstH int) image.Image {
	if dstW <= 0 || dstH <= 0 {
		return nil
	}

	// Homography from destination rectangle corners to the source quad.
	d0 := Point{X: 0, Y: 0}
	d1 := Point{X: float64(dstW - 1), Y: 0}
	d2 := Point{X: float64(dstW - 1), Y: float64(dstH - 1)}
	d3 := Point{X: 0, Y: float64(dstH - 1)}
	h, ok := ComputeHomography([4]Point{d0, d1, d2, d3}, srcQuad)
	if !ok {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	sb := src.Bounds()
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			sx, sy := h.Apply(float64(x), float64(y))
			c := bilinearSample(src, sx+float64(sb.Min.X), sy+float64(sb.Min.Y))
			out.Set(x, y, c)
		}
	}
	return out
}

func bilinearSample(src image.Image, x, y float64) color.Color {
	// Samples outside the source bounds clamp to black.
	b := src.Bounds()
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return color.RGBA{0, 0, 0, 255}
	}
	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= b.Max.X {
		x1 = b.Max.X - 1
	}
	if y1 >= b.Max.Y {
		y1 = b.Max.Y - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)
	c00 := toRGBA(src.At(x0, y0))
	c10 := toRGBA(src.At(x1, y0))
	c01 := toRGBA(src.At(x0, y1))
	c11 := toRGBA(src.At(x1, y1))
	r := lerp(lerp(c00.r, c10.r, fx), lerp(c01.r, c11.r, fx), fy)
	g := lerp(lerp(c00.g, c10.g, fx), lerp(c01.g, c11.g, fx), fy)
	bl := lerp(lerp(c00.b, c10.b, fx), lerp(c01.b, c11.b, fx), fy)
	a := lerp(lerp(c00.a, c10.a, fx), lerp(c01.a, c11.a, fx), fy)
	return color.RGBA{uint8(r + 0.5), uint8(g + 0.5), uint8(bl + 0.5), uint8(a + 0.5)}
}

type rgbaf struct{ r, g, b, a float64 }

func toRGBA(c color.Color) rgbaf {
	r, g, b, a := c.RGBA()
	return rgbaf{r: float64(r >> 8), g: float64(g >> 8), b: float64(b >> 8), a: float64(a >> 8)}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
