package infomodel

import "sort"

// renormThreshold is the point at which the lazy global decay scale is
// folded back into the per-key values, per spec §4.3, to keep g from
// underflowing toward zero over a long-running stream.
const renormThreshold = 1e-12

// entry is one key's decayed count together with its last-touch sequence
// number, which drives LRU eviction.
type entry struct {
	value     float64 // stored value; effective count = value * g
	lastTouch int64
}

// counter is a decayed frequency table shared by the token and template
// vocabularies. Every key's effective count decays by the same factor each
// line even if the key isn't observed that line; this is implemented with
// a single lazy global scale g rather than touching every key per line.
type counter struct {
	decay   float64
	maxSize int

	g       float64
	values  map[string]entry
	mass    float64 // sum(value) ; total effective mass = mass * g
	clock   int64
	renorms int
}

func newCounter(decay float64, maxSize int) *counter {
	return &counter{
		decay:  decay,
		maxSize: maxSize,
		g:      1,
		values: make(map[string]entry),
	}
}

// tick applies one line's worth of decay to every key, lazily.
func (c *counter) tick() {
	c.g *= c.decay
	if c.g < renormThreshold {
		for k, e := range c.values {
			e.value *= c.g
			c.values[k] = e
		}
		c.mass *= c.g
		c.g = 1
		c.renorms++
	}
}

// increment adds weight to a key's effective count and marks it as just
// touched, evicting the lowest-ranked unprotected key if this insertion
// would exceed maxSize. protected keys (the tokens of the line currently
// being processed) are never evicted.
func (c *counter) increment(key string, weight float64, protected map[string]bool) {
	if weight <= 0 {
		return
	}
	c.clock++
	e, existed := c.values[key]
	delta := weight / c.g
	e.value += delta
	e.lastTouch = c.clock
	c.values[key] = e
	c.mass += delta

	if !existed {
		for len(c.values) > c.maxSize && c.evictOne(protected) {
		}
	}
}

// evictOne removes the unprotected key least recently touched, breaking
// ties by lowest effective count then lexicographic order, per spec §9.
// It reports whether it found a candidate to evict; false means every
// remaining key is protected by the line currently being processed.
func (c *counter) evictOne(protected map[string]bool) bool {
	var victim string
	var victimTouch int64
	var victimEff float64
	found := false
	for k, e := range c.values {
		if protected[k] {
			continue
		}
		eff := e.value * c.g
		switch {
		case !found:
			victim, victimTouch, victimEff, found = k, e.lastTouch, eff, true
		case e.lastTouch < victimTouch:
			victim, victimTouch, victimEff = k, e.lastTouch, eff
		case e.lastTouch == victimTouch && (eff < victimEff || (eff == victimEff && k < victim)):
			victim, victimTouch, victimEff = k, e.lastTouch, eff
		}
	}
	if !found {
		return false
	}
	c.mass -= c.values[victim].value
	delete(c.values, victim)
	return true
}

// effectiveCount returns the current decayed count for key, 0 if absent.
func (c *counter) effectiveCount(key string) float64 {
	e, ok := c.values[key]
	if !ok {
		return 0
	}
	return e.value * c.g
}

// totalMass returns the sum of all keys' effective counts.
func (c *counter) totalMass() float64 {
	return c.mass * c.g
}

// vocabSize returns the number of distinct keys currently tracked.
func (c *counter) vocabSize() int {
	return len(c.values)
}

// order returns every key sorted oldest-touched first, the shape the
// snapshot format persists as vocab_order.
func (c *counter) order() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.values[keys[i]].lastTouch < c.values[keys[j]].lastTouch
	})
	return keys
}

// topByEffectiveCount returns up to n keys ranked by effective count
// descending, ties broken lexicographically.
func (c *counter) topByEffectiveCount(n int) []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ei, ej := c.effectiveCount(keys[i]), c.effectiveCount(keys[j])
		if ei != ej {
			return ei > ej
		}
		return keys[i] < keys[j]
	})
	if n < len(keys) {
		keys = keys[:n]
	}
	return keys
}

// export returns every key's effective count, for snapshotting. The
// returned counts already have g folded in, so a restored counter can
// start from g=1.
func (c *counter) export() map[string]float64 {
	out := make(map[string]float64, len(c.values))
	for k, e := range c.values {
		out[k] = e.value * c.g
	}
	return out
}

// restore replaces the table's contents with pre-decayed effective counts
// and resets g to 1, preserving the decay-before-increment ordering for
// the lines that follow. Restored keys are touch-ordered by the iteration
// order supplied, which callers should make deterministic (e.g. sorted).
func (c *counter) restore(order []string, counts map[string]float64) {
	c.g = 1
	c.values = make(map[string]entry, len(counts))
	c.mass = 0
	c.clock = 0
	for _, k := range order {
		v, ok := counts[k]
		if !ok {
			continue
		}
		c.clock++
		c.values[k] = entry{value: v, lastTouch: c.clock}
		c.mass += v
	}
}
