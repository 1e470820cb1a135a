// Package testutil builds the synthetic images the pipeline tests run on.
package testutil

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CardOptions controls the synthetic card scene.
type CardOptions struct {
	// Width and Height of the whole frame.
	Width, Height int
	// CardFraction is the share of the frame width the card occupies.
	CardFraction float64
	// Lines of text drawn on the card, top to bottom.
	Lines []string
	// Rotation tilts the whole scene, in degrees counter-clockwise.
	Rotation float64
}

// DefaultCardOptions returns a frame with a large centered card.
func DefaultCardOptions() CardOptions {
	return CardOptions{
		Width:        640,
		Height:       480,
		CardFraction: 0.7,
		Lines:        []string{"AURORA DRAKE", "HP 120", "2021 First Edition"},
	}
}

// CardScene draws a light card on a dark background with optional printed
// lines, mimicking a card held up to a camera.
func CardScene(opts CardOptions) image.Image {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 640, 480
	}
	if opts.CardFraction <= 0 || opts.CardFraction > 1 {
		opts.CardFraction = 0.7
	}

	frame := imaging.New(opts.Width, opts.Height, color.NRGBA{R: 28, G: 30, B: 34, A: 255})

	cardW := int(float64(opts.Width) * opts.CardFraction)
	cardH := cardW * 7 / 5 // portrait trading card proportions
	if cardH > opts.Height*9/10 {
		cardH = opts.Height * 9 / 10
		cardW = cardH * 5 / 7
	}
	x0 := (opts.Width - cardW) / 2
	y0 := (opts.Height - cardH) / 2

	card := imaging.New(cardW, cardH, color.NRGBA{R: 236, G: 232, B: 220, A: 255})
	drawLines(card, opts.Lines)
	frame = imaging.Paste(frame, card, image.Pt(x0, y0))

	if opts.Rotation != 0 {
		return imaging.Rotate(frame, opts.Rotation, color.NRGBA{R: 28, G: 30, B: 34, A: 255})
	}
	return frame
}

// EmptyScene returns a frame with no card in it.
func EmptyScene(width, height int) image.Image {
	return imaging.New(width, height, color.NRGBA{R: 28, G: 30, B: 34, A: 255})
}

// TextPatch returns a small light patch with one printed line, sized like a
// cropped text region.
func TextPatch(text string) image.Image {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil() + 16
	h := face.Metrics().Height.Ceil() + 12
	patch := imaging.New(w, h, color.NRGBA{R: 240, G: 240, B: 235, A: 255})
	d := font.Drawer{
		Dst:  patch,
		Src:  image.NewUniform(color.NRGBA{R: 20, G: 20, B: 20, A: 255}),
		Face: face,
		Dot:  fixed.P(8, h-8),
	}
	d.DrawString(text)
	return patch
}

func drawLines(dst *image.NRGBA, lines []string) {
	face := basicfont.Face7x13
	lineH := face.Metrics().Height.Ceil() + 10
	y := dst.Bounds().Dy() / 5
	for _, line := range lines {
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(color.NRGBA{R: 25, G: 25, B: 30, A: 255}),
			Face: face,
			Dot:  fixed.P(dst.Bounds().Dx()/8, y),
		}
		d.DrawString(line)
		y += lineH
	}
}
