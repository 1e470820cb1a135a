// Package geometry provides the 2D primitives shared by the detection and
// normalization stages: points, boxes, card quadrilaterals and the
// projective math used for perspective correction.
package geometry

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from min/max coordinates ensuring ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Area returns the box area.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// ToRect converts a Box to an image.Rectangle, clamped to the given bounds.
func (b Box) ToRect(bounds image.Rectangle) image.Rectangle {
	x1 := clampInt(int(math.Floor(b.MinX)), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(math.Floor(b.MinY)), bounds.Min.Y, bounds.Max.Y)
	x2 := clampInt(int(math.Ceil(b.MaxX)), bounds.Min.X, bounds.Max.X)
	y2 := clampInt(int(math.Ceil(b.MaxY)), bounds.Min.Y, bounds.Max.Y)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return image.Rect(x1, y1, x2, y2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BoundingBox returns the axis-aligned bounding box for a set of points.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

// Quadrilateral is a four-corner polygon believed to bound the physical
// card in an image. Corners are stored in normalized [0,1] coordinates
// relative to the frame the detection ran against, so the same value is
// meaningful across preview frames and full-resolution stills.
type Quadrilateral struct {
	TopLeft     Point
	TopRight    Point
	BottomLeft  Point
	BottomRight Point
	Confidence  float64
}

// Corners returns the corners in warp order: TL, TR, BR, BL.
func (q Quadrilateral) Corners() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// PixelCorners scales the normalized corners to pixel space for an image
// of the given dimensions, in warp order TL, TR, BR, BL.
func (q Quadrilateral) PixelCorners(width, height int) [4]Point {
	c := q.Corners()
	w, h := float64(width), float64(height)
	for i := range c {
		c[i] = Point{X: c[i].X * w, Y: c[i].Y * h}
	}
	return c
}

// AreaFraction returns the quadrilateral's area as a fraction of the frame,
// computed with the shoelace formula over the normalized corners.
func (q Quadrilateral) AreaFraction() float64 {
	c := q.Corners()
	var sum float64
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(sum) / 2
}

// OrderCorners assigns four arbitrary points to TL/TR/BL/BR positions.
// The top-left corner minimizes x+y, the bottom-right maximizes it; the
// top-right maximizes x-y and the bottom-left minimizes it.
func OrderCorners(pts [4]Point) Quadrilateral {
	var q Quadrilateral
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		sum := p.X + p.Y
		diff := p.X - p.Y
		if sum < minSum {
			minSum = sum
			q.TopLeft = p
		}
		if sum > maxSum {
			maxSum = sum
			q.BottomRight = p
		}
		if diff > maxDiff {
			maxDiff = diff
			q.TopRight = p
		}
		if diff < minDiff {
			minDiff = diff
			q.BottomLeft = p
		}
	}
	return q
}

// AspectRatio computes the long-side over short-side ratio of a pixel-space
// quadrilateral (warp order TL, TR, BR, BL), averaging opposing edges.
// Returns 0 for degenerate quads.
func AspectRatio(c [4]Point) float64 {
	w := (Dist(c[0], c[1]) + Dist(c[3], c[2])) / 2
	h := (Dist(c[0], c[3]) + Dist(c[1], c[2])) / 2
	if w <= 0 || h <= 0 {
		return 0
	}
	if w < h {
		w, h = h, w
	}
	return w / h
}

// MaxAngleDeviation returns the largest deviation of any interior corner
// angle from 90 degrees, in degrees. Used to gate how far from a true
// rectangle a candidate may be ("quadrature tolerance").
func MaxAngleDeviation(c [4]Point) float64 {
	var worst float64
	for i := range c {
		prev := c[(i+3)%4]
		next := c[(i+1)%4]
		ang := angleAt(c[i], prev, next)
		dev := math.Abs(ang - 90)
		if dev > worst {
			worst = dev
		}
	}
	return worst
}

// angleAt returns the interior angle at vertex v formed by points a and b,
// in degrees.
func angleAt(v, a, b Point) float64 {
	ax, ay := a.X-v.X, a.Y-v.Y
	bx, by := b.X-v.X, b.Y-v.Y
	la := math.Hypot(ax, ay)
	lb := math.Hypot(bx, by)
	if la == 0 || lb == 0 {
		return 0
	}
	cos := (ax*bx + ay*by) / (la * lb)
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}
