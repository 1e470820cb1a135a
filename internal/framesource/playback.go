package framesource

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"
)

// PlaybackConfig controls a recorded-frame source.
type PlaybackConfig struct {
	// Interval between preview frame deliveries. Defaults to 33ms.
	Interval time.Duration
	// Loop restarts delivery from the first frame after the last.
	Loop bool
	// Orientation is attached to every captured still.
	Orientation Orientation
}

// Playback replays a fixed frame sequence as if it were a live camera.
// Preview frames are delivered to the handler on a ticker; CapturePhoto
// returns the most recently delivered frame at full resolution. It stands
// in for platform camera sources in tests and the replay CLI.
type Playback struct {
	cfg     PlaybackConfig
	frames  []image.Image
	handler FrameHandler
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	pos     int
	last    image.Image
	torch   bool
}

// NewPlayback builds a playback source over frames. The handler may be nil
// when only CapturePhoto is exercised.
func NewPlayback(frames []image.Image, handler FrameHandler, cfg PlaybackConfig, logger *slog.Logger) *Playback {
	if cfg.Interval <= 0 {
		cfg.Interval = 33 * time.Millisecond
	}
	if cfg.Orientation == 0 {
		cfg.Orientation = OrientationUp
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Playback{cfg: cfg, frames: frames, handler: handler, logger: logger}
}

// Start begins frame delivery. Calling Start on a running source is a no-op.
func (p *Playback) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.deliver(p.stop, p.done)
	p.logger.Debug("playback source started", "frames", len(p.frames), "interval", p.cfg.Interval)
	return nil
}

// Stop halts frame delivery and waits for the delivery goroutine to exit.
// Calling Stop on a stopped source is a no-op.
func (p *Playback) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
	p.logger.Debug("playback source stopped")
}

func (p *Playback) deliver(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		frame, ok := p.nextFrame()
		if !ok {
			return
		}
		if p.handler != nil {
			p.handler(frame)
		}
	}
}

func (p *Playback) nextFrame() (image.Image, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return nil, false
	}
	if p.pos >= len(p.frames) {
		if !p.cfg.Loop {
			return nil, false
		}
		p.pos = 0
	}
	frame := p.frames[p.pos]
	p.pos++
	p.last = frame
	return frame, true
}

// CapturePhoto returns the most recently delivered frame as a still. It
// fails when the source is not running, and with ErrExhausted when no frame
// has been delivered yet and none remain.
func (p *Playback) CapturePhoto(ctx context.Context) (Still, error) {
	if err := ctx.Err(); err != nil {
		return Still{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return Still{}, ErrNotRunning
	}
	img := p.last
	if img == nil {
		if len(p.frames) == 0 {
			return Still{}, ErrExhausted
		}
		img = p.frames[0]
	}
	return Still{Image: img, Orientation: p.cfg.Orientation}, nil
}

// SetTorch records the requested torch state. Playback has no light to
// drive; the state is kept so tests can assert the pulse sequencing.
func (p *Playback) SetTorch(on bool) {
	p.mu.Lock()
	p.torch = on
	p.mu.Unlock()
}

// Torch reports the last requested torch state.
func (p *Playback) Torch() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.torch
}
