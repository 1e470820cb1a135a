// Package scanner coordinates the live capture loop: preview frames flow
// through card detection into the stability tracker, a steady card triggers
// a capture, and the captured still runs through normalization, enhancement
// and text extraction to produce a scan result.
package scanner

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/cardfolio/cardscan/internal/framesource"
	"github.com/cardfolio/cardscan/internal/geometry"
	"github.com/cardfolio/cardscan/internal/stability"
)

var (
	// ErrPermissionDenied means camera access was refused but the user can
	// grant it in settings.
	ErrPermissionDenied = errors.New("scanner: camera permission denied")
	// ErrPermissionRestricted means camera access is blocked by policy and
	// cannot be granted by the user.
	ErrPermissionRestricted = errors.New("scanner: camera access restricted")
	// ErrNotRunning is returned when an operation needs a started session.
	ErrNotRunning = errors.New("scanner: session not running")
)

// Trigger identifies what started a capture.
type Trigger string

const (
	TriggerAuto   Trigger = "auto"
	TriggerManual Trigger = "manual"
)

// Timings records how long each capture stage took.
type Timings struct {
	Photo     time.Duration
	Normalize time.Duration
	Enhance   time.Duration
	Extract   time.Duration
	Total     time.Duration
}

// Result is the outcome of one completed capture.
type Result struct {
	// FinalImage is the normalized, enhanced card image.
	FinalImage image.Image
	// Text holds the extracted lines in reading order; empty when nothing
	// was recognized.
	Text []string
	// Trigger reports what started the capture.
	Trigger Trigger
	Timings Timings
}

// Progress is a snapshot of the stability tracker published after every
// observed frame, for driving capture UI.
type Progress struct {
	State stability.State
	// Value grows from 0 to 1 as the card holds steady.
	Value float64
	// Quadrilateral is the current stable detection in normalized
	// coordinates. It rides out short detection gaps and is nil only
	// when the tracker has fully decayed.
	Quadrilateral *geometry.Quadrilateral
}

// Detector finds a card quadrilateral in a preview frame. Satisfied by
// detector.Detector.
type Detector interface {
	Detect(img image.Image) (*geometry.Quadrilateral, error)
}

// Normalizer straightens a captured still. Satisfied by
// normalize.Normalizer.
type Normalizer interface {
	Normalize(ctx context.Context, still framesource.Still) image.Image
}

// Enhancer runs the post-capture filter chain. Satisfied by
// enhance.Enhancer.
type Enhancer interface {
	Enhance(img image.Image) image.Image
	EnhanceDocument(img image.Image) image.Image
}

// TextExtractor reads text off the final image. Satisfied by
// textextract.Extractor.
type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image) []string
}
