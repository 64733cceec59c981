// Package qdm implements Quantile Delta Mapping bias correction: per grid
// cell and per pooled day-of-year window, the empirical distributions of a
// historical simulation and of a reference series are estimated at training
// time; at apply time each simulated value is ranked under the historical
// distribution and mapped through the reference distribution at that rank.
package qdm

import (
	"fmt"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/stats"
	"github.com/emileten/dodola/internal/worker"
)

const (
	// DefaultQuantiles is the number of quantile samples stored per window.
	DefaultQuantiles = 100
	// DefaultWindowTolerance is the half-width, in days, of a day-of-year
	// pooling window.
	DefaultWindowTolerance = 15
)

// Model holds, per grid cell and day-of-year window, the sorted quantile
// samples of the historical simulation and of the reference series.
// Immutable once trained.
type Model struct {
	Kind     domain.Kind
	Probs    []float64
	Lat, Lon domain.Coordinate

	// HistQ and RefQ are laid out [lat][lon][dayofyear][quantile] so one
	// cell-window distribution is a contiguous slice.
	HistQ []float64
	RefQ  []float64
}

// dist returns the contiguous quantile values for one cell and window.
func (m *Model) dist(table []float64, iy, ix, doy int) []float64 {
	nq := len(m.Probs)
	off := (((iy*m.Lon.Len() + ix) * domain.DaysPerYear) + doy - 1) * nq
	return table[off : off+nq]
}

// TrainOptions tunes a training run. Zero values select defaults.
type TrainOptions struct {
	Quantiles       int
	WindowTolerance int
	// MinSamples is the smallest acceptable window sample count. A window
	// below it aborts the whole run with InsufficientDataError; a model
	// with silently degenerate windows would corrupt every later apply.
	MinSamples int
	Workers    int
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.Quantiles == 0 {
		o.Quantiles = DefaultQuantiles
	}
	if o.WindowTolerance == 0 {
		o.WindowTolerance = DefaultWindowTolerance
	}
	if o.MinSamples == 0 {
		o.MinSamples = 2*o.WindowTolerance + 1
	}
	return o
}

// Train estimates the paired empirical distributions from a historical
// simulation and a reference series on the same grid.
func Train(historical, reference *domain.Array, kind domain.Kind, opts TrainOptions) (*Model, error) {
	opts = opts.withDefaults()
	if err := requireTimeLatLon(historical); err != nil {
		return nil, fmt.Errorf("historical: %w", err)
	}
	if err := requireTimeLatLon(reference); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	if !sameSpatialGrid(historical, reference) {
		return nil, fmt.Errorf("historical and reference are not on the same spatial grid")
	}

	histWin, err := stats.WindowIndices(historical.Coords["time"], opts.WindowTolerance)
	if err != nil {
		return nil, err
	}
	refWin, err := stats.WindowIndices(reference.Coords["time"], opts.WindowTolerance)
	if err != nil {
		return nil, err
	}
	for doy := 1; doy <= domain.DaysPerYear; doy++ {
		for _, win := range [][][]int{histWin, refWin} {
			if n := len(win[doy-1]); n < opts.MinSamples {
				return nil, &domain.InsufficientDataError{
					DayOfYear: doy, Samples: n, Required: opts.MinSamples,
				}
			}
		}
	}

	lat := historical.Coords["lat"]
	lon := historical.Coords["lon"]
	nq := opts.Quantiles
	m := &Model{
		Kind:  kind,
		Probs: stats.Probabilities(nq),
		Lat:   lat,
		Lon:   lon,
		HistQ: make([]float64, lat.Len()*lon.Len()*domain.DaysPerYear*nq),
		RefQ:  make([]float64, lat.Len()*lon.Len()*domain.DaysPerYear*nq),
	}

	worker.Cells(lat.Len(), lon.Len(), opts.Workers, func(iy, ix int) {
		samples := make([]float64, 0, 64)
		for doy := 1; doy <= domain.DaysPerYear; doy++ {
			samples = gatherCell(samples[:0], historical, histWin[doy-1], iy, ix)
			copy(m.dist(m.HistQ, iy, ix, doy), stats.Quantiles(samples, m.Probs))
			samples = gatherCell(samples[:0], reference, refWin[doy-1], iy, ix)
			copy(m.dist(m.RefQ, iy, ix, doy), stats.Quantiles(samples, m.Probs))
		}
	})
	return m, nil
}

// ApplyOptions tunes an apply run. FirstYear/LastYear of zero apply to the
// simulation's full time axis.
type ApplyOptions struct {
	FirstYear, LastYear int
	Workers             int
}

// Apply bias-corrects a simulation slice against a trained model. Each value
// is ranked under the historical distribution of its cell and window, the
// rank clamped to the recorded quantile range, and the delta between the
// reference and historical values at that rank applied to the (clamped)
// simulated value.
func Apply(sim *domain.Array, m *Model, opts ApplyOptions) (*domain.Array, error) {
	if err := requireTimeLatLon(sim); err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	if sim.Coords["lat"].Len() != m.Lat.Len() || sim.Coords["lon"].Len() != m.Lon.Len() {
		return nil, fmt.Errorf("simulation grid %dx%d does not match model grid %dx%d",
			sim.Coords["lat"].Len(), sim.Coords["lon"].Len(), m.Lat.Len(), m.Lon.Len())
	}

	sim, err := sliceYears(sim, opts.FirstYear, opts.LastYear)
	if err != nil {
		return nil, err
	}

	timeCoord := sim.Coords["time"]
	doys := make([]int, timeCoord.Len())
	for i, label := range timeCoord.Labels {
		d, err := domain.DayOfYear(label)
		if err != nil {
			return nil, err
		}
		doys[i] = d
	}

	out := sim.Copy()
	nt := timeCoord.Len()
	nlon := m.Lon.Len()
	worker.Cells(m.Lat.Len(), nlon, opts.Workers, func(iy, ix int) {
		cell := iy*nlon + ix
		for t := 0; t < nt; t++ {
			x := sim.Values[t*m.Lat.Len()*nlon+cell]
			hist := m.dist(m.HistQ, iy, ix, doys[t])
			ref := m.dist(m.RefQ, iy, ix, doys[t])
			out.Values[t*m.Lat.Len()*nlon+cell] = adjust(x, hist, ref, m.Probs, m.Kind)
		}
	})

	out.Attrs["bias_correction_method"] = "QDM"
	out.Attrs["bias_correction_kind"] = string(m.Kind)
	out.Attrs["history"] = domain.Now().UTC().Format("2006-01-02T15:04:05Z") +
		": quantile delta mapping adjustment; " + out.Attrs["history"]
	return out, nil
}

// adjust maps one value through the trained distribution pair. Values outside
// the historical range clamp to the boundary quantile rather than
// extrapolating.
func adjust(x float64, hist, ref, probs []float64, kind domain.Kind) float64 {
	q := stats.Rank(probs, hist, x)
	histv := stats.Empirical(hist, q)
	refv := stats.Empirical(ref, q)
	xc := x
	if xc < hist[0] {
		xc = hist[0]
	} else if xc > hist[len(hist)-1] {
		xc = hist[len(hist)-1]
	}
	switch kind {
	case domain.Multiplicative:
		if histv == 0 {
			// Zeros are expected to be jittered away upstream; fall back
			// to the reference value instead of dividing by zero.
			return refv
		}
		return xc * refv / histv
	default:
		return xc + (refv - histv)
	}
}

func gatherCell(buf []float64, arr *domain.Array, timeIdx []int, iy, ix int) []float64 {
	nlon := arr.Shape[2]
	stride := arr.Shape[1] * nlon
	cell := iy*nlon + ix
	for _, t := range timeIdx {
		buf = append(buf, arr.Values[t*stride+cell])
	}
	return buf
}

func requireTimeLatLon(arr *domain.Array) error {
	if len(arr.Dims) != 3 || arr.Dims[0] != "time" || arr.Dims[1] != "lat" || arr.Dims[2] != "lon" {
		return fmt.Errorf("want dimensions (time, lat, lon), have %v", arr.Dims)
	}
	return nil
}

func sameSpatialGrid(a, b *domain.Array) bool {
	for _, dim := range []string{"lat", "lon"} {
		ca, cb := a.Coords[dim], b.Coords[dim]
		if ca.Len() != cb.Len() {
			return false
		}
		for i := range ca.Labels {
			if ca.Labels[i] != cb.Labels[i] {
				return false
			}
		}
	}
	return true
}

// sliceYears restricts a (time, lat, lon) array to an inclusive year range.
func sliceYears(arr *domain.Array, first, last int) (*domain.Array, error) {
	if first == 0 && last == 0 {
		return arr, nil
	}
	timeCoord := arr.Coords["time"]
	startIx, stopIx := -1, -1
	for i, label := range timeCoord.Labels {
		y, err := domain.Year(label)
		if err != nil {
			return nil, err
		}
		if y >= first && startIx < 0 {
			startIx = i
		}
		if y <= last {
			stopIx = i + 1
		}
	}
	if startIx < 0 || stopIx <= startIx {
		return nil, fmt.Errorf("years %d-%d not present on time axis", first, last)
	}
	return arr.ISel(domain.IndexSlice{Dim: "time", Start: startIx, Stop: stopIx})
}
