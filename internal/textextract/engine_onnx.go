package textextract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"github.com/cardfolio/cardscan/internal/geometry"
	"github.com/cardfolio/cardscan/internal/mempool"
	"github.com/cardfolio/cardscan/internal/models"
	"github.com/cardfolio/cardscan/internal/onnx"
	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEngineConfig tunes the model-backed recognition engine.
type ONNXEngineConfig struct {
	// ModelsDir overrides the models directory resolution.
	ModelsDir string
	// Height is the recognition input height. Zero adopts the model's
	// fixed height when it declares one, else 48.
	Height int
	// MaxWidth clamps the resized region width.
	MaxWidth int
	// NumThreads limits intra-op parallelism. Zero keeps the default.
	NumThreads int
}

// ONNXEngine recognizes text with a CTC recognition model through ONNX
// Runtime. Construction fails when the runtime or model files are missing;
// callers fall back to a silent engine in that case.
type ONNXEngine struct {
	cfg     ONNXEngineConfig
	charset *charset
	logger  *slog.Logger

	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

// NewONNXEngine loads the recognition model and dictionary and opens an
// inference session.
func NewONNXEngine(cfg ONNXEngineConfig, logger *slog.Logger) (*ONNXEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 1280
	}

	if err := onnx.InitRuntime(); err != nil {
		return nil, fmt.Errorf("init onnx runtime: %w", err)
	}

	modelPath, err := models.RecognitionModelPath(cfg.ModelsDir)
	if err != nil {
		return nil, err
	}
	dictPath, err := models.DictionaryPath(cfg.ModelsDir)
	if err != nil {
		return nil, err
	}
	cs, err := loadCharset(dictPath)
	if err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("model has %d inputs and %d outputs, want 1 and 1", len(inputs), len(outputs))
	}
	if len(inputs[0].Dimensions) != 4 {
		return nil, fmt.Errorf("model input rank %d, want 4", len(inputs[0].Dimensions))
	}
	if cfg.Height <= 0 {
		if h := inputs[0].Dimensions[2]; h > 0 {
			cfg.Height = int(h)
		} else {
			cfg.Height = 48
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()
	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("set thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.Debug("recognition engine ready",
		"model", modelPath, "height", cfg.Height, "charset", len(cs.tokens))
	return &ONNXEngine{cfg: cfg, charset: cs, logger: logger, session: session}, nil
}

// Recognize runs the model over each region and returns one fragment per
// region that decoded to text. Region order is preserved.
func (e *ONNXEngine) Recognize(ctx context.Context, img image.Image, regions []geometry.Box) ([]Fragment, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	var frags []Fragment
	for _, box := range regions {
		if err := ctx.Err(); err != nil {
			return frags, err
		}
		text, conf, err := e.recognizeRegion(img, box)
		if err != nil {
			e.logger.Debug("region recognition failed", "error", err)
			continue
		}
		if text != "" {
			frags = append(frags, Fragment{Text: text, Confidence: conf})
		}
	}
	return frags, nil
}

func (e *ONNXEngine) recognizeRegion(img image.Image, box geometry.Box) (string, float64, error) {
	rect := box.ToRect(img.Bounds())
	if rect.Dx() < 2 || rect.Dy() < 2 {
		return "", 0, nil
	}
	patch := imaging.Crop(img, rect)
	if patch.Bounds().Dy() > patch.Bounds().Dx() {
		patch = imaging.Rotate90(patch)
	}

	tensor, buf, err := e.prepare(patch)
	if err != nil {
		return "", 0, err
	}
	defer mempool.PutFloat32(buf)

	logits, shape, err := e.run(tensor)
	if err != nil {
		return "", 0, err
	}
	text, conf := decodeGreedy(logits, shape, e.charset)
	return text, conf, nil
}

// prepare resizes a region patch to the recognition height, pads the width
// to a multiple of 8 and produces a [0,1] NCHW tensor from a pooled buffer.
func (e *ONNXEngine) prepare(patch image.Image) (onnx.ImageTensor, []float32, error) {
	b := patch.Bounds()
	scale := float64(e.cfg.Height) / float64(b.Dy())
	w := int(float64(b.Dx()) * scale)
	if w < 1 {
		w = 1
	}
	if w > e.cfg.MaxWidth {
		w = e.cfg.MaxWidth
	}
	resized := imaging.Resize(patch, w, e.cfg.Height, imaging.Lanczos)
	if rem := w % 8; rem != 0 {
		padded := imaging.New(w+8-rem, e.cfg.Height, color.Black)
		resized = imaging.Paste(padded, resized, image.Pt(0, 0))
		w += 8 - rem
	}

	h := e.cfg.Height
	buf := mempool.GetFloat32(3 * h * w)
	data := buf[:3*h*w]
	plane := h * w
	for y := 0; y < h; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+w*4]
		for x := 0; x < w; x++ {
			data[y*w+x] = float32(row[x*4]) / 255
			data[plane+y*w+x] = float32(row[x*4+1]) / 255
			data[2*plane+y*w+x] = float32(row[x*4+2]) / 255
		}
	}
	tensor, err := onnx.NewImageTensor(data, 3, h, w)
	if err != nil {
		mempool.PutFloat32(buf)
		return onnx.ImageTensor{}, nil, err
	}
	return tensor, buf, nil
}

func (e *ONNXEngine) run(tensor onnx.ImageTensor) ([]float32, []int64, error) {
	input, err := ort.NewTensor(ort.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, nil, errors.New("engine closed")
	}
	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
		return nil, nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer func() { _ = out.Destroy() }()

	shape := out.GetShape()
	data := make([]float32, len(out.GetData()))
	copy(data, out.GetData())
	return data, shape, nil
}

// Close releases the inference session.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}
