package quantile

import (
	"sort"

	"github.com/crimson-sun/novelty/internal/model"
)

// Estimator is satisfied by P2 and RollingWindow.
type Estimator interface {
	Add(x float64)
	Estimate() float64
	Count() int64
}

// Mode selects which estimator implementation new quantiles use.
type Mode int

const (
	// ModeP2 is the default constant-memory estimator.
	ModeP2 Mode = iota
	// ModeRolling is the bounded rolling-window alternative.
	ModeRolling
)

// Manager maintains one estimator per registered quantile and tracks the
// highest quantile as the alert threshold, per spec §4.5's multi-quantile
// mode.
type Manager struct {
	mode         Mode
	windowSize   int
	estimators   map[float64]Estimator
	quantiles    []float64 // kept sorted ascending
	samplesCount int64
}

// NewManager builds an empty Manager. windowSize is only used when mode
// is ModeRolling.
func NewManager(mode Mode, windowSize int) *Manager {
	return &Manager{
		mode:       mode,
		windowSize: windowSize,
		estimators: make(map[float64]Estimator),
	}
}

// Register adds a new quantile to track, q in (0,1). Re-registering an
// existing quantile is a no-op.
func (m *Manager) Register(q float64) error {
	if q <= 0 || q >= 1 {
		return &model.Error{Kind: model.ConfigError, Field: "quantile", Message: "quantile must be in (0,1)"}
	}
	if _, ok := m.estimators[q]; ok {
		return nil
	}
	var e Estimator
	switch m.mode {
	case ModeRolling:
		e = NewRollingWindow(q, m.windowSize)
	default:
		e = NewP2(q)
	}
	m.estimators[q] = e
	m.quantiles = insertSorted(m.quantiles, q)
	return nil
}

func insertSorted(qs []float64, q float64) []float64 {
	i := sort.SearchFloat64s(qs, q)
	qs = append(qs, 0)
	copy(qs[i+1:], qs[i:])
	qs[i] = q
	return qs
}

// Observe feeds a novelty score into every registered estimator. Returns
// the total number of samples fed so far.
func (m *Manager) Observe(novelty float64) int64 {
	for _, e := range m.estimators {
		e.Add(novelty)
	}
	m.samplesCount++
	return m.samplesCount
}

// Quantile returns the current estimate for q, or a CONFIG_ERROR if q was
// never registered.
func (m *Manager) Quantile(q float64) (float64, error) {
	e, ok := m.estimators[q]
	if !ok {
		return 0, &model.Error{Kind: model.ConfigError, Field: "quantile", Message: "quantile not registered"}
	}
	return e.Estimate(), nil
}

// Threshold returns the estimate for the highest registered quantile,
// which serves as the alert threshold, and that quantile's value. Returns
// false if no quantile is registered.
func (m *Manager) Threshold() (value, quantile float64, ok bool) {
	if len(m.quantiles) == 0 {
		return 0, 0, false
	}
	top := m.quantiles[len(m.quantiles)-1]
	return m.estimators[top].Estimate(), top, true
}

// Estimates returns every registered quantile's current estimate, for
// emission alongside an alert.
func (m *Manager) Estimates() map[float64]float64 {
	out := make(map[float64]float64, len(m.estimators))
	for q, e := range m.estimators {
		out[q] = e.Estimate()
	}
	return out
}

// SamplesFed returns how many novelty scores have been fed to the
// estimators so far.
func (m *Manager) SamplesFed() int64 {
	return m.samplesCount
}

// Quantiles returns the registered quantiles in ascending order.
func (m *Manager) Quantiles() []float64 {
	return append([]float64{}, m.quantiles...)
}
