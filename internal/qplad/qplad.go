// Package qplad implements Quantile-Preserving Localized Analog Downscaling:
// training derives, for every fine grid cell and pooled day-of-year window, a
// table of per-quantile adjustment factors between a coarse and a fine
// reference climatology; applying maps a bias-corrected coarse field onto the
// fine grid by ranking each value under the coarse reference distribution and
// applying the factor of its quantile bin.
package qplad

import (
	"fmt"
	"math"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/postprocess"
	"github.com/emileten/dodola/internal/stats"
	"github.com/emileten/dodola/internal/worker"
)

const (
	DefaultQuantiles       = 100
	DefaultWindowTolerance = 15
)

// Model holds per-fine-cell adjustment factors and the coarse reference
// distributions used to bin inputs, both broadcast onto the fine grid, plus
// the fine reference's dry-day fraction per cell for wet-day post-correction.
// Immutable once trained.
type Model struct {
	Kind     domain.Kind
	Probs    []float64
	Lat, Lon domain.Coordinate // fine grid

	// CoarseQ and AF are laid out [lat][lon][dayofyear][quantile].
	CoarseQ []float64
	AF      []float64

	// DryFraction is the fine reference's per-cell fraction of days below
	// the wet-day threshold, laid out [lat][lon].
	DryFraction []float64
}

func (m *Model) dist(table []float64, iy, ix, doy int) []float64 {
	nq := len(m.Probs)
	off := (((iy*m.Lon.Len() + ix) * domain.DaysPerYear) + doy - 1) * nq
	return table[off : off+nq]
}

// TrainOptions tunes a training run. Zero values select defaults.
type TrainOptions struct {
	Quantiles       int
	WindowTolerance int
	MinSamples      int
	Workers         int
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

// Train derives adjustment factors from paired coarse and fine reference
// series over the same period. Each fine-grid dimension length must be an
// integer multiple of the coarse one; co-location follows that integer
// factor.
func Train(coarseRef, fineRef *domain.Array, kind domain.Kind, opts TrainOptions) (*Model, error) {
	opts = opts.withDefaults()
	if err := requireTimeLatLon(coarseRef); err != nil {
		return nil, fmt.Errorf("coarse reference: %w", err)
	}
	if err := requireTimeLatLon(fineRef); err != nil {
		return nil, fmt.Errorf("fine reference: %w", err)
	}
	fy, fx, err := spatialFactor(coarseRef, fineRef)
	if err != nil {
		return nil, err
	}

	coarseWin, err := stats.WindowIndices(coarseRef.Coords["time"], opts.WindowTolerance)
	if err != nil {
		return nil, err
	}
	fineWin, err := stats.WindowIndices(fineRef.Coords["time"], opts.WindowTolerance)
	if err != nil {
		return nil, err
	}
	for doy := 1; doy <= domain.DaysPerYear; doy++ {
		for _, win := range [][][]int{coarseWin, fineWin} {
			if n := len(win[doy-1]); n < opts.MinSamples {
				return nil, &domain.InsufficientDataError{
					DayOfYear: doy, Samples: n, Required: opts.MinSamples,
				}
			}
		}
	}

	lat := fineRef.Coords["lat"]
	lon := fineRef.Coords["lon"]
	nq := opts.Quantiles
	probs := stats.Probabilities(nq)

	// Coarse distributions are estimated once per coarse cell, then
	// broadcast to every co-located fine cell.
	ncLat := coarseRef.Shape[1]
	ncLon := coarseRef.Shape[2]
	coarseQ := make([]float64, ncLat*ncLon*domain.DaysPerYear*nq)
	worker.Cells(ncLat, ncLon, opts.Workers, func(cy, cx int) {
		samples := make([]float64, 0, 64)
		for doy := 1; doy <= domain.DaysPerYear; doy++ {
			samples = gatherCell(samples[:0], coarseRef, coarseWin[doy-1], cy, cx)
			off := (((cy*ncLon + cx) * domain.DaysPerYear) + doy - 1) * nq
			copy(coarseQ[off:off+nq], stats.Quantiles(samples, probs))
		}
	})

	m := &Model{
		Kind:        kind,
		Probs:       probs,
		Lat:         lat,
		Lon:         lon,
		CoarseQ:     make([]float64, lat.Len()*lon.Len()*domain.DaysPerYear*nq),
		AF:          make([]float64, lat.Len()*lon.Len()*domain.DaysPerYear*nq),
		DryFraction: make([]float64, lat.Len()*lon.Len()),
	}
	worker.Cells(lat.Len(), lon.Len(), opts.Workers, func(iy, ix int) {
		cy, cx := iy/fy, ix/fx
		samples := make([]float64, 0, 64)
		for doy := 1; doy <= domain.DaysPerYear; doy++ {
			samples = gatherCell(samples[:0], fineRef, fineWin[doy-1], iy, ix)
			fineQ := stats.Quantiles(samples, probs)
			coff := (((cy*ncLon + cx) * domain.DaysPerYear) + doy - 1) * nq
			cq := coarseQ[coff : coff+nq]
			dst := m.dist(m.CoarseQ, iy, ix, doy)
			af := m.dist(m.AF, iy, ix, doy)
			copy(dst, cq)
			for k := 0; k < nq; k++ {
				switch kind {
				case domain.Multiplicative:
					if cq[k] == 0 {
						af[k] = 1
					} else {
						af[k] = fineQ[k] / cq[k]
					}
				default:
					af[k] = fineQ[k] - cq[k]
				}
			}
		}
		m.DryFraction[iy*lon.Len()+ix] = dryFraction(fineRef, iy, ix)
	})
	return m, nil
}

// ApplyOptions tunes an apply run.
type ApplyOptions struct {
	Workers int
	// WetDayPostCorrection restores each fine cell's dry-day fraction to
	// the fine reference's after the analog adjustment. Only meaningful
	// for precipitation-like (multiplicative) variables.
	WetDayPostCorrection bool
}

// Apply downscales a bias-corrected simulation onto the model's fine grid.
// The simulation may already be on the fine grid or on any coarser grid
// whose dimension lengths divide the fine ones.
func Apply(sim *domain.Array, m *Model, opts ApplyOptions) (*domain.Array, error) {
	if err := requireTimeLatLon(sim); err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	nLat, nLon := m.Lat.Len(), m.Lon.Len()
	if nLat%sim.Shape[1] != 0 || nLon%sim.Shape[2] != 0 {
		return nil, &domain.ConfigurationError{
			Msg: fmt.Sprintf("simulation grid %dx%d does not divide fine grid %dx%d",
				sim.Shape[1], sim.Shape[2], nLat, nLon),
		}
	}
	fy := nLat / sim.Shape[1]
	fx := nLon / sim.Shape[2]

	timeCoord := sim.Coords["time"]
	doys := make([]int, timeCoord.Len())
	for i, label := range timeCoord.Labels {
		d, err := domain.DayOfYear(label)
		if err != nil {
			return nil, err
		}
		doys[i] = d
	}

	out, err := domain.NewArray(sim.Variable, []string{"time", "lat", "lon"}, map[string]domain.Coordinate{
		"time": timeCoord,
		"lat":  m.Lat,
		"lon":  m.Lon,
	})
	if err != nil {
		return nil, err
	}
	for k, v := range sim.Attrs {
		out.Attrs[k] = v
	}

	nt := timeCoord.Len()
	nq := len(m.Probs)
	simLatStride := sim.Shape[1] * sim.Shape[2]
	worker.Cells(nLat, nLon, opts.Workers, func(iy, ix int) {
		series := make([]float64, nt)
		for t := 0; t < nt; t++ {
			x := sim.Values[t*simLatStride+(iy/fy)*sim.Shape[2]+ix/fx]
			cq := m.dist(m.CoarseQ, iy, ix, doys[t])
			af := m.dist(m.AF, iy, ix, doys[t])
			q := stats.Rank(m.Probs, cq, x)
			bin := int(math.Round(q * float64(nq-1)))
			if m.Kind == domain.Multiplicative {
				series[t] = x * af[bin]
			} else {
				series[t] = x + af[bin]
			}
		}
		if opts.WetDayPostCorrection {
			postprocess.CorrectDryDayFraction(series,
				m.DryFraction[iy*nLon+ix], postprocess.WetDayThreshold)
		}
		for t := 0; t < nt; t++ {
			out.Values[t*nLat*nLon+iy*nLon+ix] = series[t]
		}
	})

	out.Attrs["downscaling_method"] = "QPLAD"
	out.Attrs["downscaling_kind"] = string(m.Kind)
	out.Attrs["history"] = domain.Now().UTC().Format("2006-01-02T15:04:05Z") +
		": quantile-preserving localized analog downscaling; " + out.Attrs["history"]
	return out, nil
}

func dryFraction(arr *domain.Array, iy, ix int) float64 {
	nt := arr.Shape[0]
	stride := arr.Shape[1] * arr.Shape[2]
	cell := iy*arr.Shape[2] + ix
	dry := 0
	for t := 0; t < nt; t++ {
		if arr.Values[t*stride+cell] < postprocess.WetDayThreshold {
			dry++
		}
	}
	return float64(dry) / float64(nt)
}

func gatherCell(buf []float64, arr *domain.Array, timeIdx []int, iy, ix int) []float64 {
	stride := arr.Shape[1] * arr.Shape[2]
	cell := iy*arr.Shape[2] + ix
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

// spatialFactor returns fine-per-coarse cell counts, requiring exact
// divisibility so co-location is unambiguous.
func spatialFactor(coarse, fine *domain.Array) (fy, fx int, err error) {
	if fine.Shape[1]%coarse.Shape[1] != 0 || fine.Shape[2]%coarse.Shape[2] != 0 {
		return 0, 0, &domain.ConfigurationError{
			Msg: fmt.Sprintf("fine grid %dx%d is not an integer refinement of coarse grid %dx%d",
				fine.Shape[1], fine.Shape[2], coarse.Shape[1], coarse.Shape[2]),
		}
	}
	return fine.Shape[1] / coarse.Shape[1], fine.Shape[2] / coarse.Shape[2], nil
}
