// Package detector locates the card boundary in camera frames and stills.
// Detection runs entirely on the CPU: frames are downscaled, edges are
// extracted from the luminance gradient, and boundary components are fitted
// with quadrilaterals that are gated by configurable acceptance bounds.
package detector

import (
	"errors"
	"image"

	"github.com/cardfolio/cardscan/internal/geometry"
	"github.com/cardfolio/cardscan/internal/mempool"
	"github.com/disintegration/imaging"
)

// Config holds the acceptance bounds for card candidates. All of these were
// tuned over time, so none are hard-coded.
type Config struct {
	// MinAspectRatio and MaxAspectRatio bound the long/short side ratio of
	// accepted quadrilaterals. ID-1 cards are ~1.586.
	MinAspectRatio float64
	MaxAspectRatio float64
	// MinSizeFraction is the minimum quadrilateral area as a fraction of
	// the frame, applied by the detector itself.
	MinSizeFraction float64
	// MinConfidence is the minimum rectangularity score for a candidate.
	MinConfidence float64
	// QuadratureTolerance is the maximum deviation of any corner angle
	// from 90 degrees, in degrees.
	QuadratureTolerance float64
	// MaxDetectSize caps the longer side of the working thumbnail to bound
	// per-frame CPU cost.
	MaxDetectSize int
}

// DefaultConfig returns the detection bounds used in production.
func DefaultConfig() Config {
	return Config{
		MinAspectRatio:      1.2,
		MaxAspectRatio:      2.1,
		MinSizeFraction:     0.10,
		MinConfidence:       0.55,
		QuadratureTolerance: 18.0,
		MaxDetectSize:       480,
	}
}

// minGradientPeak is the smallest pre-scale gradient magnitude a frame must
// contain to be worth searching. Below it the frame is uniform: there are
// no edges, and rescaling the plane would only amplify rounding noise.
const minGradientPeak = 1e-3

// Detector finds the single best card quadrilateral in an image.
type Detector struct {
	cfg Config
}

// New creates a detector with the given configuration, falling back to
// defaults for unset bounds.
func New(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.MinAspectRatio <= 0 {
		cfg.MinAspectRatio = def.MinAspectRatio
	}
	if cfg.MaxAspectRatio <= 0 {
		cfg.MaxAspectRatio = def.MaxAspectRatio
	}
	if cfg.MinSizeFraction <= 0 {
		cfg.MinSizeFraction = def.MinSizeFraction
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if cfg.QuadratureTolerance <= 0 {
		cfg.QuadratureTolerance = def.QuadratureTolerance
	}
	if cfg.MaxDetectSize <= 0 {
		cfg.MaxDetectSize = def.MaxDetectSize
	}
	return &Detector{cfg: cfg}
}

// Config returns a copy of the detector's configuration.
func (d *Detector) Config() Config { return d.cfg }

// Detect returns the highest-confidence quadrilateral satisfying the
// configured bounds, or nil when no candidate qualifies. It never fails for
// a valid image; internal soft failures also yield nil.
func (d *Detector) Detect(img image.Image) (*geometry.Quadrilateral, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	b := img.Bounds()
	if b.Dx() < 8 || b.Dy() < 8 {
		return nil, nil
	}

	thumb := imaging.Fit(img, d.cfg.MaxDetectSize, d.cfg.MaxDetectSize, imaging.Linear)
	w, h := thumb.Bounds().Dx(), thumb.Bounds().Dy()

	lum := luminancePlane(thumb)
	defer mempool.PutFloat32(lum)

	grad, gradPeak := gradientMagnitude(lum, w, h)
	defer mempool.PutFloat32(grad)
	if gradPeak < minGradientPeak {
		// Uniform frame: no edges, so nothing to fit.
		return nil, nil
	}

	thr := otsuThreshold(grad)
	mask := binarize(grad, thr)
	defer mempool.PutByte(mask)
	closeMask(mask, w, h, 3, 3)

	comps := connectedComponents(mask, w, h)

	best := d.bestCandidate(comps, w, h)
	if best == nil {
		return nil, nil
	}
	q := geometry.OrderCorners(best.corners)
	fw, fh := float64(w), float64(h)
	q.TopLeft = geometry.Point{X: q.TopLeft.X / fw, Y: q.TopLeft.Y / fh}
	q.TopRight = geometry.Point{X: q.TopRight.X / fw, Y: q.TopRight.Y / fh}
	q.BottomLeft = geometry.Point{X: q.BottomLeft.X / fw, Y: q.BottomLeft.Y / fh}
	q.BottomRight = geometry.Point{X: q.BottomRight.X / fw, Y: q.BottomRight.Y / fh}
	q.Confidence = best.confidence
	return &q, nil
}

// candidate is a fitted quadrilateral in thumbnail pixel space.
type candidate struct {
	corners    [4]geometry.Point
	area       float64
	confidence float64
}

// bestCandidate fits a quadrilateral to each sufficiently large component
// and returns the highest-confidence one that passes all bounds.
func (d *Detector) bestCandidate(comps []component, w, h int) *candidate {
	frameArea := float64(w * h)
	minPerimeter := w + h // boundary components shorter than this are noise
	var best *candidate
	for i := range comps {
		c := &comps[i]
		if c.count < minPerimeter {
			continue
		}
		cand, ok := fitQuad(c.boundary)
		if !ok {
			continue
		}
		if cand.area/frameArea < d.cfg.MinSizeFraction {
			continue
		}
		ar := geometry.AspectRatio(cand.corners)
		if ar < d.cfg.MinAspectRatio || ar > d.cfg.MaxAspectRatio {
			continue
		}
		if geometry.MaxAngleDeviation(cand.corners) > d.cfg.QuadratureTolerance {
			continue
		}
		if cand.confidence < d.cfg.MinConfidence {
			continue
		}
		if best == nil || cand.confidence > best.confidence ||
			(cand.confidence == best.confidence && cand.area > best.area) {
			cc := cand
			best = &cc
		}
	}
	return best
}

// fitQuad fits a quadrilateral to boundary points using the convex hull's
// corner extremes. Confidence is the rectangularity of the fit: quad area
// over minimum-area enclosing rectangle area.
func fitQuad(boundary []geometry.Point) (candidate, bool) {
	if len(boundary) < 4 {
		return candidate{}, false
	}
	hull := geometry.ConvexHull(boundary)
	if len(hull) < 4 {
		return candidate{}, false
	}
	corners := cornerExtremes(hull)
	quad := []geometry.Point{corners[0], corners[1], corners[2], corners[3]}
	area := geometry.PolygonArea(quad)
	if area <= 0 {
		return candidate{}, false
	}
	rect := geometry.MinimumAreaRectangle(hull)
	rectArea := geometry.PolygonArea(rect)
	conf := 1.0
	if rectArea > 0 {
		conf = area / rectArea
	}
	if conf > 1 {
		conf = 1
	}
	return candidate{corners: corners, area: area, confidence: conf}, true
}

// cornerExtremes picks the four corner points of a hull in warp order
// (TL, TR, BR, BL) by extremizing x+y and x-y.
func cornerExtremes(hull []geometry.Point) [4]geometry.Point {
	tl, tr, br, bl := hull[0], hull[0], hull[0], hull[0]
	for _, p := range hull[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.X-p.Y > tr.X-tr.Y {
			tr = p
		}
		if p.X-p.Y < bl.X-bl.Y {
			bl = p
		}
	}
	return [4]geometry.Point{tl, tr, br, bl}
}
