package histogram

import (
	"sort"
)

// psquare estimates a single quantile of the observed latency stream in
// O(1) space, without storing observations, via the P² algorithm (Jain &
// Chlamtac, "The P² Algorithm for Dynamic Calculation of Quantiles and
// Histograms Without Storing Observations", CACM 28(10), 1985).
//
// The estimator maintains five markers: the minimum, the maximum, the
// target quantile, and the two midpoints flanking it. Each observation
// shifts marker positions by one and, when a marker drifts from its ideal
// position, nudges its height by a parabolic (or, failing that, linear)
// interpolation between its neighbors.
type psquare struct {
	p float64 // target quantile in [0,1]

	height  [5]float64 // marker heights (estimated values)
	pos     [5]int     // actual marker positions
	desired [5]float64 // ideal marker positions
	rate    [5]float64 // per-observation increments for desired

	seen int        // observations so far
	warm [5]float64 // the first five observations, before markers exist
}

func newPSquare(p float64) *psquare {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return &psquare{
		p:    p,
		rate: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

// Update folds one latency observation into the estimate.
func (ps *psquare) Update(x float64) {
	ps.seen++

	if ps.seen <= 5 {
		ps.warm[ps.seen-1] = x
		if ps.seen == 5 {
			ps.warmUp()
		}
		return
	}

	// Locate the cell x falls into, extending the extremes if needed.
	var k int
	switch {
	case x < ps.height[0]:
		ps.height[0] = x
		k = 0
	case x >= ps.height[4]:
		ps.height[4] = x
		k = 3
	default:
		for k = 0; k < 4; k++ {
			if ps.height[k] <= x && x < ps.height[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		ps.pos[i]++
	}
	for i := range ps.desired {
		ps.desired[i] += ps.rate[i]
	}

	for i := 1; i < 4; i++ {
		d := ps.desired[i] - float64(ps.pos[i])
		if (d >= 1 && ps.pos[i+1]-ps.pos[i] > 1) || (d <= -1 && ps.pos[i-1]-ps.pos[i] < -1) {
			step := 1
			if d < 0 {
				step = -1
			}
			if h := ps.parabolic(i, step); ps.height[i-1] < h && h < ps.height[i+1] {
				ps.height[i] = h
			} else {
				ps.height[i] = ps.linear(i, step)
			}
			ps.pos[i] += step
		}
	}
}

// warmUp seeds the five markers from the first five observations.
func (ps *psquare) warmUp() {
	sort.Float64s(ps.warm[:])
	for i := range ps.height {
		ps.height[i] = ps.warm[i]
		ps.pos[i] = i
	}
	ps.desired = [5]float64{0, 2 * ps.p, 4 * ps.p, 2 + 2*ps.p, 4}
}

func (ps *psquare) parabolic(i, step int) float64 {
	s := float64(step)
	n0, n1, n2 := float64(ps.pos[i-1]), float64(ps.pos[i]), float64(ps.pos[i+1])
	a := (n1 - n0 + s) * (ps.height[i+1] - ps.height[i]) / (n2 - n1)
	b := (n2 - n1 - s) * (ps.height[i] - ps.height[i-1]) / (n1 - n0)
	return ps.height[i] + s/(n2-n0)*(a+b)
}

func (ps *psquare) linear(i, step int) float64 {
	return ps.height[i] + float64(step)*(ps.height[i+step]-ps.height[i])/float64(ps.pos[i+step]-ps.pos[i])
}

// Quantile returns the current estimate. Before the markers exist (fewer
// than five observations) it falls back to picking from the sorted warm-up
// buffer, so early reads are exact rather than zero.
func (ps *psquare) Quantile() float64 {
	if ps.seen == 0 {
		return 0
	}
	if ps.seen < 5 {
		sorted := append([]float64(nil), ps.warm[:ps.seen]...)
		sort.Float64s(sorted)
		idx := int(float64(ps.seen-1) * ps.p)
		return sorted[idx]
	}
	return ps.height[2]
}

// pSquareMultiQuantile bundles one psquare estimator per tracked quantile.
type pSquareMultiQuantile struct {
	estimators []*psquare
}

func newPSquareMultiQuantile(quantiles ...float64) *pSquareMultiQuantile {
	m := &pSquareMultiQuantile{estimators: make([]*psquare, len(quantiles))}
	for i, p := range quantiles {
		m.estimators[i] = newPSquare(p)
	}
	return m
}

// Update folds one observation into every tracked quantile.
func (m *pSquareMultiQuantile) Update(x float64) {
	for _, est := range m.estimators {
		est.Update(x)
	}
}

// Quantile returns the estimate for the i-th tracked quantile, or 0 if i
// is out of range.
func (m *pSquareMultiQuantile) Quantile(i int) float64 {
	if i < 0 || i >= len(m.estimators) {
		return 0
	}
	return m.estimators[i].Quantile()
}

// Reset clears all estimator state for the next benchmark pass.
func (m *pSquareMultiQuantile) Reset() {
	for i, est := range m.estimators {
		m.estimators[i] = newPSquare(est.p)
	}
}
