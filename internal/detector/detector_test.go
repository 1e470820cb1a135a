package detector

import (
	"image"
	"testing"

	"github.com/cardfolio/cardscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFindsCenteredCard(t *testing.T) {
	d := New(DefaultConfig())
	scene := testutil.CardScene(testutil.DefaultCardOptions())

	quad, err := d.Detect(scene)
	require.NoError(t, err)
	require.NotNil(t, quad)

	// Normalized coordinates.
	for _, p := range quad.Corners() {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 1.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 1.0)
	}

	// The card is centered, so the quad straddles the frame center.
	assert.Less(t, quad.TopLeft.X, 0.5)
	assert.Greater(t, quad.BottomRight.X, 0.5)
	assert.Less(t, quad.TopLeft.Y, 0.5)
	assert.Greater(t, quad.BottomRight.Y, 0.5)

	assert.GreaterOrEqual(t, quad.Confidence, d.Config().MinConfidence)
	assert.Greater(t, quad.AreaFraction(), 0.1)
}

func TestDetectEmptyScene(t *testing.T) {
	d := New(DefaultConfig())
	quad, err := d.Detect(testutil.EmptyScene(640, 480))
	require.NoError(t, err)
	assert.Nil(t, quad)
}

func TestDetectUniformBrightFrame(t *testing.T) {
	// A gradient-free frame must never be mistaken for a frame-filling card.
	img := image.NewNRGBA(image.Rect(0, 0, 640, 480))
	for i := range img.Pix {
		img.Pix[i] = 230
	}
	d := New(DefaultConfig())
	quad, err := d.Detect(img)
	require.NoError(t, err)
	assert.Nil(t, quad)
}

func TestDetectNilImage(t *testing.T) {
	d := New(DefaultConfig())
	quad, err := d.Detect(nil)
	assert.Error(t, err)
	assert.Nil(t, quad)
}

func TestDetectTinyImage(t *testing.T) {
	d := New(DefaultConfig())
	quad, err := d.Detect(testutil.EmptyScene(4, 4))
	require.NoError(t, err)
	assert.Nil(t, quad)
}

func TestDetectRejectsSmallCard(t *testing.T) {
	opts := testutil.DefaultCardOptions()
	opts.CardFraction = 0.1 // below the size floor
	d := New(DefaultConfig())

	quad, err := d.Detect(testutil.CardScene(opts))
	require.NoError(t, err)
	assert.Nil(t, quad)
}

func TestConfigDefaultsFillZeroFields(t *testing.T) {
	d := New(Config{MinConfidence: 0.9})
	cfg := d.Config()
	assert.InDelta(t, 0.9, cfg.MinConfidence, 1e-9)
	assert.Equal(t, DefaultConfig().MaxDetectSize, cfg.MaxDetectSize)
	assert.InDelta(t, DefaultConfig().MinAspectRatio, cfg.MinAspectRatio, 1e-9)
}
