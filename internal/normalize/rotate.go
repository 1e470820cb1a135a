package normalize

import (
	"image"

	"github.com/disintegration/imaging"
)

// rotateQuarter turns the image 90 degrees counter-clockwise. The direction
// is fixed: without glyph-level analysis the reading direction of vertical
// text is unknowable, so one consistent choice keeps results deterministic.
func rotateQuarter(img image.Image) image.Image {
	return imaging.Rotate90(img)
}
