// Package enhance applies the post-capture filter chain that makes card
// images legible: contrast stretch, light denoising and an unsharp mask.
// Filters share one immutable Context so concurrent captures reuse the same
// tuning without coordination, and every stage falls back to its input when
// it cannot produce a usable result.
package enhance

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Config holds the filter chain tuning.
type Config struct {
	// ContrastCutoff is the histogram percentile clipped at each end
	// during the contrast stretch, in [0, 0.2).
	ContrastCutoff float64
	// SaturationBoost is the saturation adjustment applied with the
	// contrast stretch, in [-100, 100].
	SaturationBoost float64
	// LumaSharpenSigma and LumaSharpenAmount tune the fine luminance
	// sharpening pass that runs before denoising.
	LumaSharpenSigma  float64
	LumaSharpenAmount float64
	// DenoiseSigma is the Gaussian sigma for the noise reduction pass.
	DenoiseSigma float64
	// SharpenSigma is the Gaussian sigma of the local-contrast unsharp
	// mask that closes the chain.
	SharpenSigma float64
	// SharpenAmount scales the unsharp mask contribution.
	SharpenAmount float64
	// DocumentColor keeps document-mode output in color instead of
	// converting to grayscale.
	DocumentColor bool
}

// DefaultConfig returns the tuning used by the capture session.
func DefaultConfig() Config {
	return Config{
		ContrastCutoff:    0.01,
		SaturationBoost:   8,
		LumaSharpenSigma:  0.8,
		LumaSharpenAmount: 0.5,
		DenoiseSigma:      0.6,
		SharpenSigma:      1.2,
		SharpenAmount:     0.7,
	}
}

// Context is the immutable state shared by all enhancers. Construct it once
// and pass it explicitly to every consumer.
type Context struct {
	cfg    Config
	logger *slog.Logger
}

// NewContext validates cfg, fills zero fields from DefaultConfig and builds
// the shared context.
func NewContext(cfg Config, logger *slog.Logger) *Context {
	def := DefaultConfig()
	if cfg.ContrastCutoff <= 0 || cfg.ContrastCutoff >= 0.2 {
		cfg.ContrastCutoff = def.ContrastCutoff
	}
	if cfg.SaturationBoost == 0 {
		cfg.SaturationBoost = def.SaturationBoost
	}
	if cfg.SaturationBoost < -100 {
		cfg.SaturationBoost = -100
	}
	if cfg.SaturationBoost > 100 {
		cfg.SaturationBoost = 100
	}
	if cfg.LumaSharpenSigma <= 0 {
		cfg.LumaSharpenSigma = def.LumaSharpenSigma
	}
	if cfg.LumaSharpenAmount <= 0 {
		cfg.LumaSharpenAmount = def.LumaSharpenAmount
	}
	if cfg.DenoiseSigma <= 0 {
		cfg.DenoiseSigma = def.DenoiseSigma
	}
	if cfg.SharpenSigma <= 0 {
		cfg.SharpenSigma = def.SharpenSigma
	}
	if cfg.SharpenAmount <= 0 {
		cfg.SharpenAmount = def.SharpenAmount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{cfg: cfg, logger: logger}
}

// Config returns the tuning the context was built with.
func (c *Context) Config() Config { return c.cfg }

// Enhancer runs the filter chain. It holds no mutable state and is safe for
// concurrent use.
type Enhancer struct {
	ctx *Context
}

// New builds an Enhancer over the shared context.
func New(ctx *Context) *Enhancer {
	if ctx == nil {
		ctx = NewContext(Config{}, nil)
	}
	return &Enhancer{ctx: ctx}
}

// Enhance runs the card filter chain: tone adjustment (percentile contrast
// stretch plus a saturation boost), fine luminance sharpening, light
// Gaussian denoise, then a wider luminance unsharp mask for local contrast.
// A stage that fails leaves the image as the previous stage produced it.
func (e *Enhancer) Enhance(img image.Image) image.Image {
	if img == nil || img.Bounds().Empty() {
		return img
	}
	cfg := e.ctx.cfg

	out := e.stage(img, "tone", func(in image.Image) image.Image {
		return imaging.AdjustSaturation(stretchContrast(in, cfg.ContrastCutoff), cfg.SaturationBoost)
	})
	out = e.stage(out, "sharpen_luma", func(in image.Image) image.Image {
		return unsharpMask(in, cfg.LumaSharpenSigma, cfg.LumaSharpenAmount)
	})
	out = e.stage(out, "denoise", func(in image.Image) image.Image {
		return imaging.Blur(in, cfg.DenoiseSigma)
	})
	out = e.stage(out, "local_contrast", func(in image.Image) image.Image {
		return unsharpMask(in, cfg.SharpenSigma, cfg.SharpenAmount)
	})
	return out
}

// EnhanceDocument runs a stronger chain tuned for dense printed text: the
// image is converted to grayscale (unless DocumentColor is set), stretched
// harder and sharpened twice as aggressively. Intended for card backs and
// paperwork rather than artwork.
func (e *Enhancer) EnhanceDocument(img image.Image) image.Image {
	if img == nil || img.Bounds().Empty() {
		return img
	}
	cfg := e.ctx.cfg

	out := img
	if !cfg.DocumentColor {
		out = e.stage(out, "grayscale", func(in image.Image) image.Image {
			return imaging.Grayscale(in)
		})
	}
	out = e.stage(out, "contrast", func(in image.Image) image.Image {
		return stretchContrast(in, 2*cfg.ContrastCutoff)
	})
	out = e.stage(out, "sharpen", func(in image.Image) image.Image {
		return unsharpMask(in, cfg.SharpenSigma, 2*cfg.SharpenAmount)
	})
	return out
}

// stage runs one filter and falls back to the input when the filter yields
// nothing usable.
func (e *Enhancer) stage(in image.Image, name string, fn func(image.Image) image.Image) image.Image {
	out := fn(in)
	if out == nil || out.Bounds().Empty() {
		e.ctx.logger.Warn("enhancement stage produced no output, keeping input", "stage", name)
		return in
	}
	return out
}
