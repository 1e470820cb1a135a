package normalize

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/cardfolio/cardscan/internal/framesource"
	"github.com/cardfolio/cardscan/internal/geometry"
	"github.com/cardfolio/cardscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRegions returns preset boxes and records invocations.
type fixedRegions struct {
	boxes []geometry.Box
	delay time.Duration
	calls int
}

func (f *fixedRegions) FindTextRegions(image.Image, int) []geometry.Box {
	f.calls++
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.boxes
}

// fixedDetector returns a preset quadrilateral.
type fixedDetector struct {
	quad *geometry.Quadrilateral
	err  error
}

func (f *fixedDetector) Detect(image.Image) (*geometry.Quadrilateral, error) {
	return f.quad, f.err
}

func horizontalBox() geometry.Box { return geometry.NewBox(0, 0, 100, 20) }
func verticalBox() geometry.Box   { return geometry.NewBox(0, 0, 20, 100) }

func TestApplyOrientationDimensions(t *testing.T) {
	img := testutil.EmptyScene(60, 40)

	sameDims := []framesource.Orientation{
		framesource.OrientationUp,
		framesource.OrientationUpMirrored,
		framesource.OrientationDown,
		framesource.OrientationDownMirrored,
	}
	for _, o := range sameDims {
		out := ApplyOrientation(img, o)
		assert.Equal(t, 60, out.Bounds().Dx(), "orientation %d", o)
		assert.Equal(t, 40, out.Bounds().Dy(), "orientation %d", o)
	}

	swappedDims := []framesource.Orientation{
		framesource.OrientationLeftMirrored,
		framesource.OrientationRight,
		framesource.OrientationRightMirrored,
		framesource.OrientationLeft,
	}
	for _, o := range swappedDims {
		out := ApplyOrientation(img, o)
		assert.Equal(t, 40, out.Bounds().Dx(), "orientation %d", o)
		assert.Equal(t, 60, out.Bounds().Dy(), "orientation %d", o)
	}
}

func TestApplyOrientationUnknownKeepsImage(t *testing.T) {
	img := testutil.EmptyScene(60, 40)
	assert.Equal(t, img, ApplyOrientation(img, framesource.Orientation(0)))
}

func TestCorrectPerspectiveFullFrame(t *testing.T) {
	n := New(Config{}, nil, nil, nil)
	img := testutil.CardScene(testutil.DefaultCardOptions())
	quad := &geometry.Quadrilateral{
		TopLeft:     geometry.Point{X: 0, Y: 0},
		TopRight:    geometry.Point{X: 1, Y: 0},
		BottomRight: geometry.Point{X: 1, Y: 1},
		BottomLeft:  geometry.Point{X: 0, Y: 1},
	}
	out := n.CorrectPerspective(img, quad)
	require.NotNil(t, out)
	// Full-frame quad keeps roughly the source proportions.
	ratio := float64(out.Bounds().Dx()) / float64(out.Bounds().Dy())
	want := float64(img.Bounds().Dx()) / float64(img.Bounds().Dy())
	assert.InDelta(t, want, ratio, 0.1)
}

func TestCorrectPerspectiveNilQuadKeepsImage(t *testing.T) {
	n := New(Config{}, nil, nil, nil)
	img := testutil.EmptyScene(64, 48)
	assert.Equal(t, img, n.CorrectPerspective(img, nil))
}

func TestCorrectTextOrientationRotatesVerticalText(t *testing.T) {
	regions := &fixedRegions{boxes: []geometry.Box{verticalBox(), verticalBox(), horizontalBox()}}
	n := New(Config{}, nil, regions, nil)
	img := testutil.EmptyScene(60, 40)

	out := n.CorrectTextOrientation(context.Background(), img)
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 60, out.Bounds().Dy())
}

func TestCorrectTextOrientationKeepsHorizontalText(t *testing.T) {
	regions := &fixedRegions{boxes: []geometry.Box{horizontalBox(), horizontalBox(), verticalBox()}}
	n := New(Config{}, nil, regions, nil)
	img := testutil.EmptyScene(60, 40)

	out := n.CorrectTextOrientation(context.Background(), img)
	assert.Equal(t, 60, out.Bounds().Dx())
	assert.Equal(t, 40, out.Bounds().Dy())
}

func TestCorrectTextOrientationIdempotentOnUprightImage(t *testing.T) {
	regions := &fixedRegions{boxes: []geometry.Box{horizontalBox(), horizontalBox()}}
	n := New(Config{}, nil, regions, nil)
	img := testutil.EmptyScene(60, 40)

	once := n.CorrectTextOrientation(context.Background(), img)
	twice := n.CorrectTextOrientation(context.Background(), once)
	assert.Equal(t, img, once)
	assert.Equal(t, once, twice)
	assert.Equal(t, 2, regions.calls)
}

func TestCorrectTextOrientationNoRegionsKeepsImage(t *testing.T) {
	regions := &fixedRegions{}
	n := New(Config{}, nil, regions, nil)
	img := testutil.EmptyScene(60, 40)
	assert.Equal(t, img, n.CorrectTextOrientation(context.Background(), img))
	assert.Equal(t, 1, regions.calls)
}

func TestCorrectTextOrientationTimeout(t *testing.T) {
	regions := &fixedRegions{
		boxes: []geometry.Box{verticalBox()},
		delay: 200 * time.Millisecond,
	}
	cfg := Config{TextOrientation: TextOrientationConfig{Timeout: 10 * time.Millisecond}}
	n := New(cfg, nil, regions, nil)
	img := testutil.EmptyScene(60, 40)

	start := time.Now()
	out := n.CorrectTextOrientation(context.Background(), img)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	// On expiry the image is unchanged even though the vote said rotate.
	assert.Equal(t, img, out)
}

func TestNormalizeEndToEnd(t *testing.T) {
	quad := &geometry.Quadrilateral{
		TopLeft:     geometry.Point{X: 0.2, Y: 0.1},
		TopRight:    geometry.Point{X: 0.8, Y: 0.1},
		BottomRight: geometry.Point{X: 0.8, Y: 0.9},
		BottomLeft:  geometry.Point{X: 0.2, Y: 0.9},
	}
	det := &fixedDetector{quad: quad}
	regions := &fixedRegions{boxes: []geometry.Box{horizontalBox()}}
	n := New(Config{}, det, regions, nil)

	still := framesource.Still{
		Image:       testutil.CardScene(testutil.DefaultCardOptions()),
		Orientation: framesource.OrientationUp,
	}
	out := n.Normalize(context.Background(), still)
	require.NotNil(t, out)
	// Cropped to the card region, so smaller than the frame.
	assert.Less(t, out.Bounds().Dx(), still.Image.Bounds().Dx())
}

func TestNormalizeDetectorFailureKeepsFrame(t *testing.T) {
	det := &fixedDetector{err: assert.AnError}
	regions := &fixedRegions{}
	n := New(Config{}, det, regions, nil)

	img := testutil.EmptyScene(64, 48)
	out := n.Normalize(context.Background(), framesource.Still{
		Image:       img,
		Orientation: framesource.OrientationUp,
	})
	assert.Equal(t, img, out)
}
