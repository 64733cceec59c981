package qplad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/store"
)

// refArray builds a (time, lat, lon) reference over one year with values
// from fn(t, iy, ix).
func refArray(t *testing.T, nlat, nlon int, fn func(t, iy, ix int) float64) *domain.Array {
	t.Helper()
	lats := make([]float64, nlat)
	lons := make([]float64, nlon)
	for i := range lats {
		lats[i] = float64(i)
	}
	for i := range lons {
		lons[i] = float64(i)
	}
	arr, err := domain.NewArray("pr", []string{"time", "lat", "lon"}, map[string]domain.Coordinate{
		"time": domain.TimeCoordinate(1995, 1995),
		"lat":  domain.FloatCoordinate("lat", lats),
		"lon":  domain.FloatCoordinate("lon", lons),
	})
	require.NoError(t, err)
	for ti := 0; ti < arr.Shape[0]; ti++ {
		for iy := 0; iy < nlat; iy++ {
			for ix := 0; ix < nlon; ix++ {
				arr.Set(fn(ti, iy, ix), ti, iy, ix)
			}
		}
	}
	return arr
}

func cycle(ti int) float64 {
	doy := ti%domain.DaysPerYear + 1
	return 5 + 2*math.Sin(2*math.Pi*float64(doy)/365)
}

func TestTrainRequiresIntegerRefinement(t *testing.T) {
	coarse := refArray(t, 3, 3, func(ti, iy, ix int) float64 { return cycle(ti) })
	fine := refArray(t, 4, 4, func(ti, iy, ix int) float64 { return cycle(ti) })

	_, err := Train(coarse, fine, domain.Additive, TrainOptions{Workers: 1})
	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
}

func TestTrainInsufficientData(t *testing.T) {
	coarse := refArray(t, 1, 1, func(ti, iy, ix int) float64 { return cycle(ti) })
	fine := refArray(t, 2, 2, func(ti, iy, ix int) float64 { return cycle(ti) })

	_, err := Train(coarse, fine, domain.Additive, TrainOptions{MinSamples: 40, Workers: 1})
	var ierr *domain.InsufficientDataError
	require.ErrorAs(t, err, &ierr)
}

func TestApplyIdentityWhenCoarseEqualsFine(t *testing.T) {
	// With coarse and fine references identical, every adjustment factor
	// is neutral and the simulation passes through unchanged.
	for _, kind := range []domain.Kind{domain.Additive, domain.Multiplicative} {
		t.Run(string(kind), func(t *testing.T) {
			ref := refArray(t, 2, 2, func(ti, iy, ix int) float64 {
				return cycle(ti) + float64(iy*2+ix)
			})
			m, err := Train(ref, ref.Copy(), kind, TrainOptions{Workers: 1})
			require.NoError(t, err)

			out, err := Apply(ref, m, ApplyOptions{Workers: 1})
			require.NoError(t, err)
			for i := range ref.Values {
				assert.InDelta(t, ref.Values[i], out.Values[i], 1e-9, "index %d", i)
			}
		})
	}
}

func TestApplyBroadcastsCoarseInput(t *testing.T) {
	// A 1x1 simulation drives a 2x2 fine grid; each fine cell gets its own
	// adjustment derived from the fine reference offsets.
	coarse := refArray(t, 1, 1, func(ti, iy, ix int) float64 { return cycle(ti) })
	fine := refArray(t, 2, 2, func(ti, iy, ix int) float64 {
		return cycle(ti) + float64(iy*2+ix)
	})
	m, err := Train(coarse, fine, domain.Additive, TrainOptions{Workers: 1})
	require.NoError(t, err)

	out, err := Apply(coarse, m, ApplyOptions{Workers: 1})
	require.NoError(t, err)
	require.Equal(t, []int{domain.DaysPerYear, 2, 2}, out.Shape)

	// Each fine cell reproduces the fine reference's offset from the
	// coarse series.
	for ti := 0; ti < 10; ti++ {
		for iy := 0; iy < 2; iy++ {
			for ix := 0; ix < 2; ix++ {
				assert.InDelta(t, cycle(ti)+float64(iy*2+ix), out.At(ti, iy, ix), 1e-9)
			}
		}
	}
}

func TestApplyRejectsNonDividingGrid(t *testing.T) {
	ref := refArray(t, 2, 2, func(ti, iy, ix int) float64 { return cycle(ti) })
	m, err := Train(ref, ref.Copy(), domain.Additive, TrainOptions{Workers: 1})
	require.NoError(t, err)

	sim := refArray(t, 3, 3, func(ti, iy, ix int) float64 { return cycle(ti) })
	_, err = Apply(sim, m, ApplyOptions{Workers: 1})
	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
}

func TestApplyWetDayPostCorrection(t *testing.T) {
	// The fine reference is dry 40% of the time; the simulation is always
	// wet. Post-correction zeroes the smallest values back toward the
	// reference's dry fraction.
	fine := refArray(t, 1, 1, func(ti, iy, ix int) float64 {
		if ti%5 < 2 {
			return 0
		}
		return cycle(ti)
	})
	coarse := fine.Copy()
	m, err := Train(coarse, fine, domain.Multiplicative, TrainOptions{Workers: 1})
	require.NoError(t, err)

	sim := refArray(t, 1, 1, func(ti, iy, ix int) float64 { return cycle(ti) })

	plain, err := Apply(sim, m, ApplyOptions{Workers: 1})
	require.NoError(t, err)
	corrected, err := Apply(sim, m, ApplyOptions{Workers: 1, WetDayPostCorrection: true})
	require.NoError(t, err)

	dry := func(arr *domain.Array) int {
		n := 0
		for _, v := range arr.Values {
			if v < 0.05 {
				n++
			}
		}
		return n
	}
	assert.Greater(t, dry(corrected), dry(plain))
	assert.InDelta(t, 0.4, float64(dry(corrected))/float64(domain.DaysPerYear), 0.02)
}

func TestApplyAttrs(t *testing.T) {
	ref := refArray(t, 1, 1, func(ti, iy, ix int) float64 { return cycle(ti) })
	m, err := Train(ref, ref.Copy(), domain.Multiplicative, TrainOptions{Workers: 1})
	require.NoError(t, err)

	sim := ref.Copy()
	sim.Attrs["units"] = "mm"
	out, err := Apply(sim, m, ApplyOptions{Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, "QPLAD", out.Attrs["downscaling_method"])
	assert.Equal(t, "multiplicative", out.Attrs["downscaling_kind"])
	assert.Equal(t, "mm", out.Attrs["units"])
}

func TestSaveLoadRoundTrip(t *testing.T) {
	coarse := refArray(t, 1, 1, func(ti, iy, ix int) float64 { return cycle(ti) })
	fine := refArray(t, 2, 2, func(ti, iy, ix int) float64 {
		return cycle(ti) + float64(iy*2+ix)
	})
	m, err := Train(coarse, fine, domain.Additive, TrainOptions{Quantiles: 11, Workers: 1})
	require.NoError(t, err)

	backend := store.NewMemoryBackend()
	require.NoError(t, m.Save(backend))

	loaded, err := Load(backend)
	require.NoError(t, err)
	assert.Equal(t, m.Kind, loaded.Kind)
	assert.Equal(t, m.Lat.Labels, loaded.Lat.Labels)
	assert.Equal(t, m.CoarseQ, loaded.CoarseQ)
	assert.Equal(t, m.AF, loaded.AF)
	assert.Equal(t, m.DryFraction, loaded.DryFraction)

	sim := coarse.Copy()
	want, err := Apply(sim, m, ApplyOptions{Workers: 1})
	require.NoError(t, err)
	got, err := Apply(sim, loaded, ApplyOptions{Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, want.Values, got.Values)
}
