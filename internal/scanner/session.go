package scanner

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cardfolio/cardscan/internal/common"
	"github.com/cardfolio/cardscan/internal/framesource"
	"github.com/cardfolio/cardscan/internal/geometry"
	"github.com/cardfolio/cardscan/internal/stability"
)

// Config holds session behavior switches.
type Config struct {
	// Stability tunes the auto-capture tracker.
	Stability stability.Config
	// DocumentMode selects the document enhancement chain.
	DocumentMode bool
	// TorchPulse lights the torch for the duration of each capture.
	TorchPulse bool
}

// Options wires a session's collaborators. Source, Detector, Normalizer,
// Enhancer and Extractor are required.
type Options struct {
	Source     framesource.Source
	Permission framesource.PermissionFunc
	Detector   Detector
	Normalizer Normalizer
	Enhancer   Enhancer
	Extractor  TextExtractor
	// OnProgress, when set, receives a tracker snapshot after every
	// observed frame. Called from the session goroutine; keep it fast.
	OnProgress func(Progress)
	Logger     *slog.Logger
	Config     Config
}

// Session runs one scanning episode over a frame source. Frames are
// observed on a single coordination goroutine; captures run on their own
// goroutine with at most one in flight.
type Session struct {
	opts    Options
	tracker *stability.Tracker
	logger  *slog.Logger

	frames chan *geometry.Quadrilateral
	resets chan struct{}

	capturing atomic.Bool

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	waiters []*waiter
}

// waiter is a single-use result subscription. The done latch guarantees a
// cancelled Scan call never receives a later result.
type waiter struct {
	ch   chan Result
	done atomic.Bool
}

// NewSession builds a session over the given collaborators.
func NewSession(opts Options) (*Session, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("scanner: nil frame source")
	}
	if opts.Detector == nil || opts.Normalizer == nil || opts.Enhancer == nil || opts.Extractor == nil {
		return nil, fmt.Errorf("scanner: missing pipeline component")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		opts:    opts,
		tracker: stability.New(opts.Config.Stability),
		logger:  opts.Logger,
		frames:  make(chan *geometry.Quadrilateral, 1),
		resets:  make(chan struct{}, 1),
	}, nil
}

// Start checks camera permission, starts the frame source and launches the
// coordination loop. Starting a running session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	if s.opts.Permission != nil {
		switch s.opts.Permission() {
		case framesource.PermissionDenied:
			return ErrPermissionDenied
		case framesource.PermissionRestricted:
			return ErrPermissionRestricted
		}
	}

	if err := s.opts.Source.Start(); err != nil {
		return fmt.Errorf("start frame source: %w", err)
	}

	s.tracker.Reset()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	go s.run(s.ctx)
	s.logger.Info("scan session started")
	return nil
}

// Stop halts the coordination loop and the frame source. Stopping a stopped
// session is a no-op. An in-flight capture is allowed to finish.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.opts.Source.Stop()
	s.logger.Info("scan session stopped")
}

// HandleFrame feeds one preview frame through detection. Wire it as the
// frame source's handler. Frames arriving while the coordination loop is
// busy are dropped; detection always sees the freshest frame.
func (s *Session) HandleFrame(frame image.Image) {
	if frame == nil || !s.isRunning() {
		return
	}
	framesObserved.Inc()

	quad, err := s.opts.Detector.Detect(frame)
	if err != nil {
		s.logger.Debug("preview detection failed", "error", err)
		quad = nil
	}
	select {
	case s.frames <- quad:
	default:
	}
}

// ManualCapture starts a capture immediately, regardless of tracker state.
// It is a silent no-op while another capture is in flight or the session is
// stopped.
func (s *Session) ManualCapture() {
	s.mu.Lock()
	ctx := s.ctx
	running := s.running
	s.mu.Unlock()
	if !running {
		return
	}
	s.startCapture(ctx, TriggerManual)
}

// Scan blocks until the next capture completes or ctx is done. A cancelled
// call never receives a result, even if a capture completes immediately
// after cancellation.
func (s *Session) Scan(ctx context.Context) (Result, error) {
	if !s.isRunning() {
		return Result{}, ErrNotRunning
	}
	w := &waiter{ch: make(chan Result, 1)}
	s.mu.Lock()
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		w.done.Store(true)
		return Result{}, ctx.Err()
	case r := <-w.ch:
		return r, nil
	}
}

func (s *Session) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run is the coordination loop. It is the only goroutine that touches the
// stability tracker.
func (s *Session) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.resets:
			s.tracker.Reset()
			s.publish(Progress{State: stability.StateIdle})
		case quad := <-s.frames:
			d := s.tracker.Observe(quad)
			s.publish(Progress{State: d.State, Value: d.Progress, Quadrilateral: d.Quadrilateral})
			if d.Trigger {
				s.startCapture(ctx, TriggerAuto)
			}
		}
	}
}

func (s *Session) publish(p Progress) {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(p)
	}
}

// startCapture begins a capture episode unless one is already in flight.
func (s *Session) startCapture(ctx context.Context, trigger Trigger) {
	if !s.capturing.CompareAndSwap(false, true) {
		return
	}
	capturesStarted.WithLabelValues(string(trigger)).Inc()
	go s.capture(ctx, trigger)
}

// capture runs one episode: photo, normalize, then enhancement and text
// extraction in parallel. A failed photo ends the episode but not the
// session. The tracker is re-armed afterwards either way.
func (s *Session) capture(ctx context.Context, trigger Trigger) {
	start := time.Now()
	defer func() {
		s.requestReset()
		s.capturing.Store(false)
	}()

	if s.opts.Config.TorchPulse {
		s.opts.Source.SetTorch(true)
		defer s.opts.Source.SetTorch(false)
	}

	photoTimer := common.StartTimer("photo")
	still, err := s.opts.Source.CapturePhoto(ctx)
	photoDur := photoTimer.Stop()
	stageDuration.WithLabelValues(photoTimer.Name()).Observe(photoDur.Seconds())
	if err != nil {
		capturesFailed.Inc()
		s.logger.Error("photo capture failed", "trigger", trigger, "error", err)
		return
	}

	normTimer := common.StartTimer("normalize")
	normalized := s.opts.Normalizer.Normalize(ctx, still)
	normDur := normTimer.Stop()
	stageDuration.WithLabelValues(normTimer.Name()).Observe(normDur.Seconds())

	var (
		wg         sync.WaitGroup
		final      image.Image
		text       []string
		enhanceDur time.Duration
		extractDur time.Duration
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		tm := common.StartTimer("enhance")
		if s.opts.Config.DocumentMode {
			final = s.opts.Enhancer.EnhanceDocument(normalized)
		} else {
			final = s.opts.Enhancer.Enhance(normalized)
		}
		enhanceDur = tm.Stop()
		stageDuration.WithLabelValues(tm.Name()).Observe(enhanceDur.Seconds())
	}()
	go func() {
		defer wg.Done()
		tm := common.StartTimer("extract")
		text = s.opts.Extractor.ExtractText(ctx, normalized)
		extractDur = tm.Stop()
		stageDuration.WithLabelValues(tm.Name()).Observe(extractDur.Seconds())
	}()
	wg.Wait()

	total := time.Since(start)
	captureDuration.Observe(total.Seconds())
	s.logger.Info("capture complete",
		"trigger", trigger, "lines", len(text), "duration", total)

	s.deliver(Result{
		FinalImage: final,
		Text:       text,
		Trigger:    trigger,
		Timings: Timings{
			Photo:     photoDur,
			Normalize: normDur,
			Enhance:   enhanceDur,
			Extract:   extractDur,
			Total:     total,
		},
	})
}

// deliver hands the result to every live waiter exactly once.
func (s *Session) deliver(r Result) {
	s.mu.Lock()
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, w := range waiters {
		if w.done.CompareAndSwap(false, true) {
			w.ch <- r
		}
	}
}

func (s *Session) requestReset() {
	select {
	case s.resets <- struct{}{}:
	default:
	}
}
