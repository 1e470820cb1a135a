package detector

import (
	"image"
	"sort"

	"github.com/cardfolio/cardscan/internal/geometry"
	"github.com/cardfolio/cardscan/internal/mempool"
	"github.com/disintegration/imaging"
)

// textRegionMaxSize is the working thumbnail cap for text-region search.
// Region geometry only needs to be accurate enough for shape classification
// and crop rectangles, so this runs smaller and faster than card detection.
const textRegionMaxSize = 384

// FindTextRegions locates up to maxRegions likely printed-text regions and
// returns their bounding boxes in the source image's pixel coordinates,
// largest first. Dark-on-light text is assumed; glyphs are merged into line
// fragments with a horizontal dilation before component analysis.
func (d *Detector) FindTextRegions(img image.Image, maxRegions int) []geometry.Box {
	if img == nil || maxRegions <= 0 {
		return nil
	}
	b := img.Bounds()
	if b.Dx() < 8 || b.Dy() < 8 {
		return nil
	}

	thumb := imaging.Fit(img, textRegionMaxSize, textRegionMaxSize, imaging.Linear)
	w, h := thumb.Bounds().Dx(), thumb.Bounds().Dy()

	lum := luminancePlane(thumb)
	defer mempool.PutFloat32(lum)

	thr := otsuThreshold(lum)
	mask := mempool.GetByte(w * h)
	defer mempool.PutByte(mask)
	// The threshold is the bright class's lower bound, so < covers the
	// whole dark class including its last bin.
	for i, v := range lum {
		if v < thr {
			mask[i] = 1
		}
	}
	// Merge neighboring glyphs into word/line blobs.
	dilateMask(mask, w, h, 5, 1)

	comps := connectedComponents(mask, w, h)
	boxes := filterTextComponents(comps, w, h)

	sort.Slice(boxes, func(i, j int) bool { return boxes[i].Area() > boxes[j].Area() })
	if len(boxes) > maxRegions {
		boxes = boxes[:maxRegions]
	}

	// Scale back to source pixel space.
	sx := float64(b.Dx()) / float64(w)
	sy := float64(b.Dy()) / float64(h)
	out := make([]geometry.Box, len(boxes))
	for i, bx := range boxes {
		out[i] = geometry.Box{
			MinX: bx.MinX*sx + float64(b.Min.X),
			MinY: bx.MinY*sy + float64(b.Min.Y),
			MaxX: bx.MaxX*sx + float64(b.Min.X),
			MaxY: bx.MaxY*sy + float64(b.Min.Y),
		}
	}
	return out
}

// filterTextComponents keeps components whose boxes are plausibly text:
// not speckle, not the card outline, reasonably filled.
func filterTextComponents(comps []component, w, h int) []geometry.Box {
	frameArea := float64(w * h)
	var boxes []geometry.Box
	for i := range comps {
		c := &comps[i]
		bw := c.maxX - c.minX + 1
		bh := c.maxY - c.minY + 1
		if c.count < 8 || bw < 3 || bh < 3 {
			continue
		}
		boxArea := float64(bw * bh)
		frac := boxArea / frameArea
		if frac < 0.0003 || frac > 0.5 {
			continue
		}
		if float64(c.count)/boxArea < 0.15 {
			continue
		}
		boxes = append(boxes, geometry.Box{
			MinX: float64(c.minX), MinY: float64(c.minY),
			MaxX: float64(c.maxX + 1), MaxY: float64(c.maxY + 1),
		})
	}
	return boxes
}
