package novelty

import (
	"github.com/crimson-sun/novelty/internal/engine"
)

// Detector scores log lines for novelty against a decayed statistical
// model. Create once, reuse across a stream — construction is cheap, but
// the model accumulates state across calls. Not safe for unsynchronized
// concurrent use; wrap in a mutex if multiple goroutines produce lines
// (see internal/httpserver for a reference wrapper).
type Detector struct {
	engine *engine.Engine
}

// New creates a Detector. With no options, uses the spec-default
// configuration: decay 0.9999, Laplace k=1.0, 30000-token/10000-template
// vocabulary caps, P² quantile estimation, a 2048-entry neighbor buffer.
func New(opts ...Option) (*Detector, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	eng, err := engine.New(o.cfg, o.engineOpts...)
	if err != nil {
		return nil, err
	}
	return &Detector{engine: eng}, nil
}

// Score computes the novelty payload for line against the current model
// state without mutating it. Safe to call repeatedly; results are
// identical absent an intervening Observe or ScoreAndObserve.
func (d *Detector) Score(line string) (Result, error) {
	r, err := d.engine.Score(line)
	if err != nil {
		return Result{}, err
	}
	return resultFromScore(r), nil
}

// Observe updates the model with line without scoring it.
func (d *Detector) Observe(line string) error {
	return d.engine.Observe(line)
}

// ScoreAndObserve scores line against the current state, then applies the
// observation.
func (d *Detector) ScoreAndObserve(line string) (Result, error) {
	r, err := d.engine.ScoreAndObserve(line)
	if err != nil {
		return Result{}, err
	}
	return resultFromScore(r), nil
}

// RegisterQuantile adds a quantile to track, q in (0,1). The highest
// registered quantile becomes the alert threshold.
func (d *Detector) RegisterQuantile(q float64) error {
	return d.engine.RegisterQuantile(q)
}

// Quantile returns the current estimate for a previously registered
// quantile.
func (d *Detector) Quantile(q float64) (float64, error) {
	return d.engine.Quantile(q)
}

// Threshold returns the alert threshold (the estimate for the highest
// registered quantile) and that quantile itself. ok is false if no
// quantile has been registered.
func (d *Detector) Threshold() (value, quantile float64, ok bool) {
	return d.engine.Threshold()
}

// QuantileEstimates returns every registered quantile's current estimate.
func (d *Detector) QuantileEstimates() map[float64]float64 {
	return d.engine.QuantileEstimates()
}

// AlertEligible reports whether the burn-in period has elapsed.
func (d *Detector) AlertEligible() bool {
	return d.engine.AlertEligible()
}

// Neighbors returns up to k cosine-similar recent lines for tokens. k <= 0
// uses the configured default (see WithNeighborBuffer).
func (d *Detector) Neighbors(tokens []string, k int) []Neighbor {
	return neighborsFromInternal(d.engine.Neighbors(tokens, k))
}

// SeenLines returns the number of lines observed so far.
func (d *Detector) SeenLines() int64 { return d.engine.SeenLines() }

// TruncatedLines returns how many observed lines exceeded the per-line
// rune cap.
func (d *Detector) TruncatedLines() int64 { return d.engine.TruncatedLines() }

// TruncatedTokens returns how many observed lines exceeded the per-line
// token cap.
func (d *Detector) TruncatedTokens() int64 { return d.engine.TruncatedTokens() }

// Renormalizations returns how many times the decay scale has underflowed
// and been folded back into stored counts.
func (d *Detector) Renormalizations() int { return d.engine.Renormalizations() }

// SnapshotSave serializes the current model state to path.
func (d *Detector) SnapshotSave(path string) error {
	return d.engine.SnapshotSave(path)
}

// SnapshotLoad replaces the model state with the contents of path. The
// Detector's own configuration (decay, caps, weights) is left unchanged.
func (d *Detector) SnapshotLoad(path string) error {
	return d.engine.SnapshotLoad(path)
}
