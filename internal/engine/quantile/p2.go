// Package quantile implements streaming quantile estimators: the P²
// constant-memory estimator and a bounded rolling-window alternative,
// per spec §4.5.
package quantile

import "sort"

// P2 is Jain & Chlamtac's five-marker constant-memory quantile estimator.
type P2 struct {
	q float64

	initialized bool
	bootstrap   []float64

	h  [5]float64
	n  [5]float64
	d  [5]float64
	dn [5]float64

	count int64
}

// NewP2 creates a P2 estimator for quantile q, q in (0,1).
func NewP2(q float64) *P2 {
	return &P2{q: q}
}

// Add feeds one sample into the estimator.
func (p *P2) Add(x float64) {
	p.count++
	if !p.initialized {
		p.bootstrap = append(p.bootstrap, x)
		if len(p.bootstrap) < 5 {
			return
		}
		sorted := append([]float64{}, p.bootstrap...)
		sort.Float64s(sorted)
		for i := 0; i < 5; i++ {
			p.h[i] = sorted[i]
			p.n[i] = float64(i)
		}
		q := p.q
		p.d = [5]float64{0, 2 * q, 4 * q, 2 + 2*q, 4}
		p.dn = [5]float64{0, q / 2, q, (1 + q) / 2, 1}
		p.initialized = true
		return
	}

	k := p.cell(x)

	for i := k + 1; i < 5; i++ {
		p.n[i]++
	}
	for i := 0; i < 5; i++ {
		p.d[i] += p.dn[i]
	}

	for i := 1; i <= 3; i++ {
		delta := p.d[i] - p.n[i]
		if (delta >= 1 && p.n[i+1]-p.n[i] > 1) || (delta <= -1 && p.n[i-1]-p.n[i] < -1) {
			s := 1.0
			if delta < 0 {
				s = -1
			}
			hNew := p.parabolic(i, s)
			if hNew > p.h[i-1] && hNew < p.h[i+1] {
				p.h[i] = hNew
			} else {
				p.h[i] = p.linear(i, s)
			}
			p.n[i] += s
		}
	}
}

// cell finds the marker index k such that h[k] <= x < h[k+1], extending
// the extremes when x falls outside the current range.
func (p *P2) cell(x float64) int {
	if x < p.h[0] {
		p.h[0] = x
		return 0
	}
	if x > p.h[4] {
		p.h[4] = x
		return 3
	}
	for k := 0; k < 3; k++ {
		if p.h[k] <= x && x < p.h[k+1] {
			return k
		}
	}
	return 3
}

func (p *P2) parabolic(i int, s float64) float64 {
	return p.h[i] + s/(p.n[i+1]-p.n[i-1])*(
		(p.n[i]-p.n[i-1]+s)*(p.h[i+1]-p.h[i])/(p.n[i+1]-p.n[i])+
			(p.n[i+1]-p.n[i]-s)*(p.h[i]-p.h[i-1])/(p.n[i]-p.n[i-1]))
}

func (p *P2) linear(i int, s float64) float64 {
	j := i + int(s)
	return p.h[i] + s*(p.h[j]-p.h[i])/(p.n[j]-p.n[i])
}

// Estimate returns the current quantile estimate. During bootstrap
// (fewer than 5 samples) it returns the exact interpolated quantile of
// the samples collected so far.
func (p *P2) Estimate() float64 {
	if !p.initialized {
		if len(p.bootstrap) == 0 {
			return 0
		}
		sorted := append([]float64{}, p.bootstrap...)
		sort.Float64s(sorted)
		return interpolate(sorted, p.q)
	}
	return p.h[2]
}

// Count returns the number of samples fed so far.
func (p *P2) Count() int64 {
	return p.count
}

func interpolate(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
