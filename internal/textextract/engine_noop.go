package textextract

import (
	"context"
	"image"
	"log/slog"

	"github.com/cardfolio/cardscan/internal/geometry"
)

// NoopEngine recognizes nothing. It stands in when the recognition model is
// unavailable so captures still complete with empty text.
type NoopEngine struct{}

// Recognize returns no fragments.
func (NoopEngine) Recognize(context.Context, image.Image, []geometry.Box) ([]Fragment, error) {
	return nil, nil
}

// DefaultEngine opens the model-backed engine, falling back to NoopEngine
// with a warning when the runtime or model files cannot be loaded.
func DefaultEngine(cfg ONNXEngineConfig, logger *slog.Logger) Engine {
	if logger == nil {
		logger = slog.Default()
	}
	engine, err := NewONNXEngine(cfg, logger)
	if err != nil {
		logger.Warn("recognition model unavailable, text extraction disabled", "error", err)
		return NoopEngine{}
	}
	return engine
}
