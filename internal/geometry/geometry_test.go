package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderCorners(t *testing.T) {
	// Shuffled corners of a 100x60 rectangle at (10,20).
	in := [4]Point{
		{X: 110, Y: 80}, // bottom-right
		{X: 10, Y: 20},  // top-left
		{X: 110, Y: 20}, // top-right
		{X: 10, Y: 80},  // bottom-left
	}
	got := OrderCorners(in)
	assert.Equal(t, Point{X: 10, Y: 20}, got.TopLeft)
	assert.Equal(t, Point{X: 110, Y: 20}, got.TopRight)
	assert.Equal(t, Point{X: 110, Y: 80}, got.BottomRight)
	assert.Equal(t, Point{X: 10, Y: 80}, got.BottomLeft)
}

func TestAspectRatio(t *testing.T) {
	rect := [4]Point{{0, 0}, {140, 0}, {140, 100}, {0, 100}}
	assert.InDelta(t, 1.4, AspectRatio(rect), 1e-9)

	// Portrait card gives the same long/short ratio.
	portrait := [4]Point{{0, 0}, {100, 0}, {100, 140}, {0, 140}}
	assert.InDelta(t, 1.4, AspectRatio(portrait), 1e-9)
}

func TestMaxAngleDeviation(t *testing.T) {
	rect := [4]Point{{0, 0}, {100, 0}, {100, 60}, {0, 60}}
	assert.InDelta(t, 0, MaxAngleDeviation(rect), 1e-6)

	// Shear one corner; the deviation grows well past zero.
	skewed := [4]Point{{0, 0}, {100, 0}, {130, 60}, {0, 60}}
	assert.Greater(t, MaxAngleDeviation(skewed), 10.0)
}

func TestQuadrilateralAreaFraction(t *testing.T) {
	full := Quadrilateral{
		TopLeft:     Point{0, 0},
		TopRight:    Point{1, 0},
		BottomRight: Point{1, 1},
		BottomLeft:  Point{0, 1},
	}
	assert.InDelta(t, 1.0, full.AreaFraction(), 1e-9)

	half := Quadrilateral{
		TopLeft:     Point{0, 0},
		TopRight:    Point{1, 0},
		BottomRight: Point{1, 0.5},
		BottomLeft:  Point{0, 0.5},
	}
	assert.InDelta(t, 0.5, half.AreaFraction(), 1e-9)
}

func TestQuadrilateralPixelCorners(t *testing.T) {
	q := Quadrilateral{
		TopLeft:     Point{0.1, 0.2},
		TopRight:    Point{0.9, 0.2},
		BottomRight: Point{0.9, 0.8},
		BottomLeft:  Point{0.1, 0.8},
	}
	c := q.PixelCorners(1000, 500)
	assert.InDelta(t, 100, c[0].X, 1e-9)
	assert.InDelta(t, 100, c[0].Y, 1e-9)
	assert.InDelta(t, 900, c[2].X, 1e-9)
	assert.InDelta(t, 400, c[2].Y, 1e-9)
}

func TestBoundingBox(t *testing.T) {
	pts := []Point{{3, 7}, {-1, 2}, {5, 4}}
	b := BoundingBox(pts)
	assert.Equal(t, Box{MinX: -1, MinY: 2, MaxX: 5, MaxY: 7}, b)
	assert.InDelta(t, 30, b.Area(), 1e-9)
}
