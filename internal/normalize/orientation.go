package normalize

import (
	"image"

	"github.com/cardfolio/cardscan/internal/framesource"
	"github.com/disintegration/imaging"
)

// ApplyOrientation rewrites the pixel storage so the image displays upright
// without metadata. Unknown orientation values leave the image untouched.
func ApplyOrientation(img image.Image, o framesource.Orientation) image.Image {
	switch o {
	case framesource.OrientationUpMirrored:
		return imaging.FlipH(img)
	case framesource.OrientationDown:
		return imaging.Rotate180(img)
	case framesource.OrientationDownMirrored:
		return imaging.FlipV(img)
	case framesource.OrientationLeftMirrored:
		return imaging.Transpose(img)
	case framesource.OrientationRight:
		return imaging.Rotate270(img)
	case framesource.OrientationRightMirrored:
		return imaging.Transverse(img)
	case framesource.OrientationLeft:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
