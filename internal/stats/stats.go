// Package stats holds the empirical-distribution primitives shared by the
// QDM and QPLAD engines: evenly spaced quantile estimation over sorted
// samples, piecewise-linear quantile ranking, and pooled seasonal-window
// index groups over the noleap calendar.
package stats

import (
	"sort"

	"github.com/emileten/dodola/internal/domain"
)

// Probabilities returns n evenly spaced probabilities from 0 to 1 inclusive.
// Including both endpoints means the trained distributions record their
// minimum and maximum sample, so out-of-range inputs clamp to observed
// extremes instead of extrapolating.
func Probabilities(n int) []float64 {
	probs := make([]float64, n)
	for i := range probs {
		probs[i] = float64(i) / float64(n-1)
	}
	return probs
}

// Empirical evaluates the empirical quantile function of ascending-sorted
// samples at probability p, with linear interpolation between order
// statistics.
func Empirical(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(h)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Quantiles sorts samples in place and evaluates them at each probability.
func Quantiles(samples, probs []float64) []float64 {
	sort.Float64s(samples)
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = Empirical(samples, p)
	}
	return out
}

// Rank inverts a distribution given as values at ascending probabilities:
// it returns the probability at which x falls, clamped to [probs[0],
// probs[last]]. Flat segments (tied values) resolve to the segment's lower
// probability.
func Rank(probs, values []float64, x float64) float64 {
	n := len(values)
	if x <= values[0] {
		return probs[0]
	}
	if x >= values[n-1] {
		return probs[n-1]
	}
	// Binary search for the bracketing segment.
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if values[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	if values[hi] == values[lo] {
		return probs[lo]
	}
	frac := (x - values[lo]) / (values[hi] - values[lo])
	return probs[lo] + frac*(probs[hi]-probs[lo])
}

// WindowIndices groups time-step indices by day-of-year window: entry d-1
// lists every index whose day-of-year is within tol days of d, wrapping the
// year boundary, pooled across all years on the axis.
func WindowIndices(timeCoord domain.Coordinate, tol int) ([][]int, error) {
	doys := make([]int, timeCoord.Len())
	for i, label := range timeCoord.Labels {
		d, err := domain.DayOfYear(label)
		if err != nil {
			return nil, err
		}
		doys[i] = d
	}
	windows := make([][]int, domain.DaysPerYear)
	for i, doy := range doys {
		for off := -tol; off <= tol; off++ {
			d := doy + off
			switch {
			case d < 1:
				d += domain.DaysPerYear
			case d > domain.DaysPerYear:
				d -= domain.DaysPerYear
			}
			windows[d-1] = append(windows[d-1], i)
		}
	}
	return windows, nil
}
