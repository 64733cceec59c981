package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emileten/dodola/internal/domain"
)

func TestProbabilities(t *testing.T) {
	probs := Probabilities(5)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, probs)
}

func TestEmpirical(t *testing.T) {
	sorted := []float64{1, 2, 4, 8}

	assert.Equal(t, 1.0, Empirical(sorted, 0))
	assert.Equal(t, 8.0, Empirical(sorted, 1))
	// Halfway between the 2nd and 3rd order statistic.
	assert.InDelta(t, 3.0, Empirical(sorted, 0.5), 1e-12)

	assert.Equal(t, 7.0, Empirical([]float64{7}, 0.3))
}

func TestQuantiles(t *testing.T) {
	samples := []float64{4, 1, 3, 2}
	q := Quantiles(samples, []float64{0, 0.5, 1})
	assert.Equal(t, []float64{1, 2.5, 4}, q)
	// Samples are sorted in place.
	assert.Equal(t, []float64{1, 2, 3, 4}, samples)
}

func TestRank(t *testing.T) {
	probs := []float64{0, 0.25, 0.5, 0.75, 1}
	values := []float64{10, 20, 30, 40, 50}

	t.Run("interpolates between order statistics", func(t *testing.T) {
		assert.InDelta(t, 0.375, Rank(probs, values, 25), 1e-12)
	})

	t.Run("exact order statistic", func(t *testing.T) {
		assert.InDelta(t, 0.5, Rank(probs, values, 30), 1e-12)
	})

	t.Run("clamps below minimum", func(t *testing.T) {
		assert.Equal(t, 0.0, Rank(probs, values, -100))
	})

	t.Run("clamps above maximum", func(t *testing.T) {
		assert.Equal(t, 1.0, Rank(probs, values, 999))
	})

	t.Run("ties resolve to lower probability", func(t *testing.T) {
		tied := []float64{10, 20, 20, 20, 50}
		assert.Equal(t, 0.25, Rank(probs, tied, 20))
	})
}

func TestRankEmpiricalRoundTrip(t *testing.T) {
	// For in-range values, Empirical at the rank of x recovers x.
	probs := Probabilities(11)
	values := []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144}
	for _, x := range []float64{1, 4.5, 21, 100, 144} {
		q := Rank(probs, values, x)
		assert.InDelta(t, x, Empirical(values, q), 1e-9, "x=%g", x)
	}
}

func TestWindowIndices(t *testing.T) {
	t.Run("pools across years with wraparound", func(t *testing.T) {
		tc := domain.TimeCoordinate(2000, 2001)
		windows, err := WindowIndices(tc, 15)
		require.NoError(t, err)
		require.Len(t, windows, domain.DaysPerYear)
		// Each window holds 31 days from each of the two years.
		for doy := 1; doy <= domain.DaysPerYear; doy++ {
			assert.Len(t, windows[doy-1], 2*31, "doy %d", doy)
		}
	})

	t.Run("january window reaches into december", func(t *testing.T) {
		tc := domain.TimeCoordinate(2000, 2000)
		windows, err := WindowIndices(tc, 2)
		require.NoError(t, err)
		// Day 1's window is {364, 365, 1, 2, 3}, so indices 363 and 364
		// (Dec 30, Dec 31) appear alongside the first three days.
		assert.ElementsMatch(t, []int{363, 364, 0, 1, 2}, windows[0])
	})

	t.Run("invalid labels", func(t *testing.T) {
		tc := domain.Coordinate{Name: "time", Labels: []string{"not-a-date"}}
		_, err := WindowIndices(tc, 1)
		assert.Error(t, err)
	})
}
