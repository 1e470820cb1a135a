// Package normalize turns a captured still into an upright, perspective
// corrected card image. Every stage is best effort: when a correction cannot
// be computed the stage logs and passes its input through unchanged, so a
// capture never fails inside normalization.
package normalize

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/cardfolio/cardscan/internal/framesource"
	"github.com/cardfolio/cardscan/internal/geometry"
)

// Detector finds a card quadrilateral in an image. Satisfied by
// detector.Detector.
type Detector interface {
	Detect(img image.Image) (*geometry.Quadrilateral, error)
}

// RegionFinder locates likely text regions. Satisfied by detector.Detector.
type RegionFinder interface {
	FindTextRegions(img image.Image, maxRegions int) []geometry.Box
}

// TextOrientationConfig tunes the upright-text vote.
type TextOrientationConfig struct {
	// MaxRegions caps how many text regions participate in the vote.
	MaxRegions int
	// Timeout bounds the whole vote; on expiry the image is kept as is.
	Timeout time.Duration
}

// Config holds normalization tuning.
type Config struct {
	// MaxOutputDimension caps the longer side of the rectified card.
	MaxOutputDimension int
	TextOrientation    TextOrientationConfig
}

// DefaultConfig returns the tuning used by the capture session.
func DefaultConfig() Config {
	return Config{
		MaxOutputDimension: 1600,
		TextOrientation: TextOrientationConfig{
			MaxRegions: 10,
			Timeout:    500 * time.Millisecond,
		},
	}
}

// Normalizer applies orientation, perspective and text-direction fixes.
type Normalizer struct {
	cfg      Config
	detector Detector
	regions  RegionFinder
	logger   *slog.Logger
}

// New builds a Normalizer. detector and regions may be the same value.
func New(cfg Config, det Detector, regions RegionFinder, logger *slog.Logger) *Normalizer {
	def := DefaultConfig()
	if cfg.MaxOutputDimension <= 0 {
		cfg.MaxOutputDimension = def.MaxOutputDimension
	}
	if cfg.TextOrientation.MaxRegions <= 0 {
		cfg.TextOrientation.MaxRegions = def.TextOrientation.MaxRegions
	}
	if cfg.TextOrientation.Timeout <= 0 {
		cfg.TextOrientation.Timeout = def.TextOrientation.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{cfg: cfg, detector: det, regions: regions, logger: logger}
}

// Normalize runs the full chain on a captured still: bring the pixels
// upright, re-detect the card at full resolution, rectify the perspective,
// then rotate so printed text reads horizontally. Stages that cannot improve
// the image leave it unchanged.
func (n *Normalizer) Normalize(ctx context.Context, still framesource.Still) image.Image {
	img := ApplyOrientation(still.Image, still.Orientation)

	var quad *geometry.Quadrilateral
	if n.detector != nil {
		q, err := n.detector.Detect(img)
		if err != nil {
			n.logger.Warn("still re-detection failed, keeping full frame", "error", err)
		} else {
			quad = q
		}
	}
	if quad != nil {
		img = n.CorrectPerspective(img, quad)
	} else {
		n.logger.Debug("no card found in still, skipping perspective correction")
	}

	return n.CorrectTextOrientation(ctx, img)
}

// CorrectPerspective warps the region inside quad to an axis-aligned
// rectangle. If the homography is degenerate the input is returned.
func (n *Normalizer) CorrectPerspective(img image.Image, quad *geometry.Quadrilateral) image.Image {
	if img == nil || quad == nil {
		return img
	}
	b := img.Bounds()
	corners := quad.PixelCorners(b.Dx(), b.Dy())
	w, h := geometry.OutputSize(corners, n.cfg.MaxOutputDimension)
	out := geometry.WarpPerspective(img, corners, w, h)
	if out == nil {
		n.logger.Warn("perspective warp failed, keeping uncorrected image",
			"width", w, "height", h)
		return img
	}
	return out
}

// CorrectTextOrientation rotates the image a quarter turn when the majority
// of detected text regions read vertically. The vote runs under its own
// timeout; on expiry or when no regions are found the image is unchanged.
func (n *Normalizer) CorrectTextOrientation(ctx context.Context, img image.Image) image.Image {
	if img == nil || n.regions == nil {
		return img
	}
	ctx, cancel := context.WithTimeout(ctx, n.cfg.TextOrientation.Timeout)
	defer cancel()

	type vote struct{ horizontal, vertical int }
	ch := make(chan vote, 1)
	go func() {
		boxes := n.regions.FindTextRegions(img, n.cfg.TextOrientation.MaxRegions)
		var v vote
		for _, b := range boxes {
			if b.Height() > b.Width() {
				v.vertical++
			} else {
				v.horizontal++
			}
		}
		ch <- v
	}()

	select {
	case <-ctx.Done():
		n.logger.Warn("text orientation vote timed out, keeping image as is",
			"timeout", n.cfg.TextOrientation.Timeout)
		return img
	case v := <-ch:
		if v.horizontal+v.vertical == 0 {
			n.logger.Debug("no text regions found, keeping image as is")
			return img
		}
		if v.vertical > v.horizontal {
			n.logger.Debug("rotating for upright text",
				"vertical", v.vertical, "horizontal", v.horizontal)
			return rotateQuarter(img)
		}
		return img
	}
}
