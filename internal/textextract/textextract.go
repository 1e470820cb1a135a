// Package textextract reads printed text off a normalized card image. The
// extractor locates text regions, hands them to a recognition engine and
// returns the recognized lines in reading order. Extraction is best effort:
// it runs under a hard timeout and an empty result is always acceptable.
package textextract

import (
	"context"
	"image"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cardfolio/cardscan/internal/geometry"
	"golang.org/x/text/unicode/norm"
)

// Fragment is one recognized run of text.
type Fragment struct {
	Text       string
	Confidence float64
}

// Engine recognizes text inside the given regions of an image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, regions []geometry.Box) ([]Fragment, error)
}

// RegionFinder locates likely text regions. Satisfied by detector.Detector.
type RegionFinder interface {
	FindTextRegions(img image.Image, maxRegions int) []geometry.Box
}

// Config holds extraction tuning.
type Config struct {
	// Timeout bounds the whole extraction. On expiry the result is empty.
	Timeout time.Duration
	// MaxRegions caps how many regions are recognized per image.
	MaxRegions int
	// MinConfidence drops fragments the engine was not sure about.
	MinConfidence float64
}

// DefaultConfig returns the tuning used by the capture session.
func DefaultConfig() Config {
	return Config{
		Timeout:       2 * time.Second,
		MaxRegions:    24,
		MinConfidence: 0.3,
	}
}

// Extractor runs region detection and recognition under a deadline.
type Extractor struct {
	cfg     Config
	regions RegionFinder
	engine  Engine
	logger  *slog.Logger
}

// New builds an Extractor, filling zero config fields from DefaultConfig.
func New(cfg Config, regions RegionFinder, engine Engine, logger *slog.Logger) *Extractor {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRegions <= 0 {
		cfg.MaxRegions = def.MaxRegions
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, regions: regions, engine: engine, logger: logger}
}

// ExtractText returns the recognized lines of text in reading order. It
// never fails: recognition errors and deadline expiry both yield an empty
// slice and a log entry.
func (e *Extractor) ExtractText(ctx context.Context, img image.Image) []string {
	if img == nil || e.engine == nil || e.regions == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	type outcome struct {
		fragments []Fragment
		err       error
	}
	// Buffered so an abandoned recognition goroutine can still finish.
	ch := make(chan outcome, 1)
	go func() {
		boxes := e.regions.FindTextRegions(img, e.cfg.MaxRegions)
		if len(boxes) == 0 {
			ch <- outcome{}
			return
		}
		sortReadingOrder(boxes)
		frags, err := e.engine.Recognize(ctx, img, boxes)
		ch <- outcome{fragments: frags, err: err}
	}()

	select {
	case <-ctx.Done():
		e.logger.Warn("text extraction timed out", "timeout", e.cfg.Timeout)
		return nil
	case out := <-ch:
		if out.err != nil {
			e.logger.Warn("text recognition failed", "error", out.err)
			return nil
		}
		return e.collect(out.fragments)
	}
}

func (e *Extractor) collect(frags []Fragment) []string {
	var lines []string
	for _, f := range frags {
		if f.Confidence < e.cfg.MinConfidence {
			continue
		}
		text := strings.TrimSpace(norm.NFC.String(f.Text))
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
	return lines
}

// sortReadingOrder orders boxes top to bottom, left to right. Boxes are
// first grouped into horizontal bands, where a box joins the current band
// when it vertically overlaps the band's extent, then each band is sorted
// by its left edge. Banding keeps the ordering consistent when overlaps
// chain through several boxes.
func sortReadingOrder(boxes []geometry.Box) {
	if len(boxes) < 2 {
		return
	}
	sort.Slice(boxes, func(i, j int) bool {
		if boxes[i].MinY == boxes[j].MinY {
			return boxes[i].MinX < boxes[j].MinX
		}
		return boxes[i].MinY < boxes[j].MinY
	})

	start := 0
	bandMaxY := boxes[0].MaxY
	for i := 1; i <= len(boxes); i++ {
		if i < len(boxes) && boxes[i].MinY < bandMaxY {
			if boxes[i].MaxY > bandMaxY {
				bandMaxY = boxes[i].MaxY
			}
			continue
		}
		band := boxes[start:i]
		sort.Slice(band, func(a, b int) bool { return band[a].MinX < band[b].MinX })
		if i < len(boxes) {
			start = i
			bandMaxY = boxes[i].MaxY
		}
	}
}
