package textextract

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/cardfolio/cardscan/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegions returns preset boxes.
type fakeRegions struct {
	boxes []geometry.Box
}

func (f *fakeRegions) FindTextRegions(image.Image, int) []geometry.Box {
	return f.boxes
}

// fakeEngine returns preset fragments, optionally after a delay.
type fakeEngine struct {
	fragments []Fragment
	err       error
	delay     time.Duration
	gotBoxes  []geometry.Box
}

func (f *fakeEngine) Recognize(ctx context.Context, _ image.Image, boxes []geometry.Box) ([]Fragment, error) {
	f.gotBoxes = boxes
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.fragments, f.err
}

func testImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 320, 240))
}

func oneBox() []geometry.Box {
	return []geometry.Box{geometry.NewBox(10, 10, 100, 30)}
}

func TestExtractTextReturnsLines(t *testing.T) {
	engine := &fakeEngine{fragments: []Fragment{
		{Text: "AURORA DRAKE", Confidence: 0.95},
		{Text: "HP 120", Confidence: 0.9},
	}}
	e := New(Config{}, &fakeRegions{boxes: oneBox()}, engine, nil)

	lines := e.ExtractText(context.Background(), testImage())
	assert.Equal(t, []string{"AURORA DRAKE", "HP 120"}, lines)
}

func TestExtractTextFiltersLowConfidence(t *testing.T) {
	engine := &fakeEngine{fragments: []Fragment{
		{Text: "sure", Confidence: 0.9},
		{Text: "guess", Confidence: 0.1},
		{Text: "   ", Confidence: 0.9},
	}}
	e := New(Config{MinConfidence: 0.5}, &fakeRegions{boxes: oneBox()}, engine, nil)

	lines := e.ExtractText(context.Background(), testImage())
	assert.Equal(t, []string{"sure"}, lines)
}

func TestExtractTextNormalizesUnicode(t *testing.T) {
	// Decomposed e + combining acute composes to a single code point.
	engine := &fakeEngine{fragments: []Fragment{{Text: "Pokémon", Confidence: 0.9}}}
	e := New(Config{}, &fakeRegions{boxes: oneBox()}, engine, nil)

	lines := e.ExtractText(context.Background(), testImage())
	require.Len(t, lines, 1)
	assert.Equal(t, "Pokémon", lines[0])
}

func TestExtractTextTimeout(t *testing.T) {
	engine := &fakeEngine{
		fragments: []Fragment{{Text: "late", Confidence: 0.9}},
		delay:     500 * time.Millisecond,
	}
	e := New(Config{Timeout: 20 * time.Millisecond}, &fakeRegions{boxes: oneBox()}, engine, nil)

	start := time.Now()
	lines := e.ExtractText(context.Background(), testImage())
	assert.Empty(t, lines)
	assert.Less(t, time.Since(start), 300*time.Millisecond)
}

func TestExtractTextNoRegions(t *testing.T) {
	engine := &fakeEngine{fragments: []Fragment{{Text: "never", Confidence: 0.9}}}
	e := New(Config{}, &fakeRegions{}, engine, nil)

	assert.Empty(t, e.ExtractText(context.Background(), testImage()))
	assert.Nil(t, engine.gotBoxes)
}

func TestExtractTextEngineError(t *testing.T) {
	engine := &fakeEngine{err: assert.AnError}
	e := New(Config{}, &fakeRegions{boxes: oneBox()}, engine, nil)
	assert.Empty(t, e.ExtractText(context.Background(), testImage()))
}

func TestExtractTextNilImage(t *testing.T) {
	e := New(Config{}, &fakeRegions{boxes: oneBox()}, &fakeEngine{}, nil)
	assert.Empty(t, e.ExtractText(context.Background(), nil))
}

func TestRegionsArriveInReadingOrder(t *testing.T) {
	boxes := []geometry.Box{
		geometry.NewBox(50, 100, 150, 120), // second row
		geometry.NewBox(120, 10, 200, 30),  // first row, right
		geometry.NewBox(10, 12, 100, 32),   // first row, left
	}
	engine := &fakeEngine{}
	e := New(Config{}, &fakeRegions{boxes: boxes}, engine, nil)
	e.ExtractText(context.Background(), testImage())

	require.Len(t, engine.gotBoxes, 3)
	assert.InDelta(t, 10, engine.gotBoxes[0].MinX, 1e-9)
	assert.InDelta(t, 120, engine.gotBoxes[1].MinX, 1e-9)
	assert.InDelta(t, 50, engine.gotBoxes[2].MinX, 1e-9)
}

func TestReadingOrderStableForChainedOverlaps(t *testing.T) {
	// A overlaps B and B overlaps C, but A and C do not overlap. The whole
	// chain forms one band and reads left to right, from any input order.
	a := geometry.NewBox(200, 0, 280, 20)
	b := geometry.NewBox(10, 15, 90, 35)
	c := geometry.NewBox(100, 30, 180, 50)

	for _, boxes := range [][]geometry.Box{
		{a, b, c},
		{c, a, b},
		{b, c, a},
	} {
		sortReadingOrder(boxes)
		require.Len(t, boxes, 3)
		assert.InDelta(t, 10, boxes[0].MinX, 1e-9)
		assert.InDelta(t, 100, boxes[1].MinX, 1e-9)
		assert.InDelta(t, 200, boxes[2].MinX, 1e-9)
	}
}
