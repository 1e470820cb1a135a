// Package stability tracks how long a detected card has been held steady in
// the preview and decides when an automatic capture should fire. Misses
// decay the accumulated count gradually instead of resetting it, so a single
// dropped detection does not throw away previous progress.
package stability

import "github.com/cardfolio/cardscan/internal/geometry"

// Config holds the tracker tuning knobs.
type Config struct {
	// Threshold is the consecutive-detection count at which capture fires.
	Threshold int
	// DecayRate is subtracted from the count on every missed detection.
	DecayRate int
	// MinAreaFraction is the minimum frame area a quadrilateral must cover
	// to count as a hit.
	MinAreaFraction float64
}

// DefaultConfig returns the tuning used by the capture session.
func DefaultConfig() Config {
	return Config{
		Threshold:       10,
		DecayRate:       2,
		MinAreaFraction: 0.15,
	}
}

// State describes where the tracker is in its accumulation cycle.
type State int

const (
	// StateIdle means nothing useful has been seen yet.
	StateIdle State = iota
	// StateAccumulating means detections are building toward the threshold.
	StateAccumulating
	// StateReady means the threshold has been reached.
	StateReady
)

// Decision is the outcome of observing one preview detection.
type Decision struct {
	State    State
	Progress float64
	// Trigger is true exactly once per cycle, on the observation that first
	// reaches the threshold. It stays false until Reset.
	Trigger bool
	// Quadrilateral is the current stable detection. It survives misses
	// while the count decays and clears only when the count reaches zero.
	Quadrilateral *geometry.Quadrilateral
}

// Tracker accumulates detection stability. It is single-writer: the capture
// session observes from one goroutine, so the tracker does not lock.
type Tracker struct {
	cfg     Config
	count   int
	fired   bool
	current *geometry.Quadrilateral
}

// New builds a tracker, filling zero config fields from DefaultConfig.
func New(cfg Config) *Tracker {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.DecayRate <= 0 {
		cfg.DecayRate = def.DecayRate
	}
	if cfg.MinAreaFraction <= 0 {
		cfg.MinAreaFraction = def.MinAreaFraction
	}
	return &Tracker{cfg: cfg}
}

// Observe folds one detection result into the tracker. A nil quadrilateral,
// or one covering too little of the frame, counts as a miss and decays the
// count; anything else increments it. The returned decision carries the
// trigger edge.
func (t *Tracker) Observe(q *geometry.Quadrilateral) Decision {
	if t.isHit(q) {
		t.count++
		t.current = q
	} else {
		t.count -= t.cfg.DecayRate
		if t.count <= 0 {
			t.count = 0
			t.current = nil
		}
	}

	d := Decision{
		Progress:      t.Progress(),
		Quadrilateral: t.current,
	}
	switch {
	case t.count >= t.cfg.Threshold:
		d.State = StateReady
		if !t.fired {
			t.fired = true
			d.Trigger = true
		}
	case t.count > 0:
		d.State = StateAccumulating
	default:
		d.State = StateIdle
	}
	return d
}

func (t *Tracker) isHit(q *geometry.Quadrilateral) bool {
	return q != nil && q.AreaFraction() >= t.cfg.MinAreaFraction
}

// Current returns the accumulated count.
func (t *Tracker) Current() int { return t.count }

// Progress returns the count as a fraction of the threshold, capped at 1.
func (t *Tracker) Progress() float64 {
	p := float64(t.count) / float64(t.cfg.Threshold)
	if p > 1 {
		return 1
	}
	return p
}

// Reset clears the count and the stable quadrilateral and re-arms the
// trigger for the next cycle.
func (t *Tracker) Reset() {
	t.count = 0
	t.fired = false
	t.current = nil
}
