// Package postprocess holds the independent, stateless per-array transforms
// applied around the adjustment engines: wet-day frequency handling for
// precipitation, physical-plausibility clipping for diurnal temperature
// range, and a maximum-precipitation guard. Every function returns a new
// array and leaves its input untouched.
package postprocess

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/emileten/dodola/internal/domain"
)

const (
	// WetDayThreshold is the precipitation rate, in mm/day, below which a
	// day counts as dry.
	WetDayThreshold = 0.05

	// DefaultDTRFloor and DefaultDTRCeiling bound diurnal temperature
	// range to physically plausible values, in K.
	DefaultDTRFloor   = 1.0
	DefaultDTRCeiling = 70.0

	// DefaultMaxPrecipitation is the physical upper bound for daily
	// precipitation, in mm/day.
	DefaultMaxPrecipitation = 3000.0

	// nonPolarLatitude bounds the band within which the DTR ceiling
	// applies; polar cells keep their values.
	nonPolarLatitude = 60.0
)

// JitterUnderThreshold replaces values below the wet-day threshold with
// uniform draws in (0, threshold). Applied before training or adjusting
// multiplicative variables so that zeros do not collapse ratio statistics.
// The caller supplies the random source to keep runs reproducible.
func JitterUnderThreshold(arr *domain.Array, threshold float64, rng *rand.Rand) *domain.Array {
	out := arr.Copy()
	for i, v := range out.Values {
		if v < threshold && !math.IsNaN(v) {
			u := rng.Float64()
			for u == 0 {
				u = rng.Float64()
			}
			out.Values[i] = u * threshold
		}
	}
	return out
}

// ZeroUnderThreshold sets values below the wet-day threshold to zero,
// restoring as dry the days that jittering or adjustment left marginally
// wet.
func ZeroUnderThreshold(arr *domain.Array, threshold float64) *domain.Array {
	out := arr.Copy()
	for i, v := range out.Values {
		if v < threshold && !math.IsNaN(v) {
			out.Values[i] = 0
		}
	}
	return out
}

// CorrectWetDayFrequency dispatches the "pre" and "post" modes of the
// wet-day frequency service.
func CorrectWetDayFrequency(arr *domain.Array, process string, rng *rand.Rand) (*domain.Array, error) {
	switch process {
	case "pre":
		return JitterUnderThreshold(arr, WetDayThreshold, rng), nil
	case "post":
		return ZeroUnderThreshold(arr, WetDayThreshold), nil
	default:
		return nil, fmt.Errorf("unknown wet day process %q: want \"pre\" or \"post\"", process)
	}
}

// CorrectDryDayFraction zeroes the smallest wet values of a series, in
// place, until its dry-day fraction reaches target (within one sample's
// resolution). A series already at or above the target is left unchanged;
// dry days cannot be un-zeroed.
func CorrectDryDayFraction(series []float64, target, threshold float64) {
	n := len(series)
	if n == 0 {
		return
	}
	dry := 0
	for _, v := range series {
		if v < threshold {
			dry++
		}
	}
	want := int(math.Round(target * float64(n)))
	deficit := want - dry
	if deficit <= 0 {
		return
	}

	// Rank wet positions by value and zero the smallest.
	wet := make([]int, 0, n-dry)
	for i, v := range series {
		if v >= threshold {
			wet = append(wet, i)
		}
	}
	sort.Slice(wet, func(a, b int) bool { return series[wet[a]] < series[wet[b]] })
	if deficit > len(wet) {
		deficit = len(wet)
	}
	for _, i := range wet[:deficit] {
		series[i] = 0
	}
}

// ApplyDTRFloor clips diurnal temperature range below floor up to floor.
func ApplyDTRFloor(arr *domain.Array, floor float64) *domain.Array {
	out := arr.Copy()
	for i, v := range out.Values {
		if v < floor {
			out.Values[i] = floor
		}
	}
	return out
}

// ApplyNonPolarDTRCeiling clips diurnal temperature range above ceiling down
// to ceiling, but only within the non-polar band (|lat| <= 60): polar-night
// inversions legitimately produce extreme DTR, so polar cells pass through.
func ApplyNonPolarDTRCeiling(arr *domain.Array, ceiling float64) (*domain.Array, error) {
	latAx := arr.DimIndex("lat")
	if latAx < 0 {
		return nil, fmt.Errorf("array has no lat dimension")
	}
	latCoord := arr.Coords["lat"]
	nonPolar := make([]bool, latCoord.Len())
	for i := range nonPolar {
		lat, err := latCoord.Float(i)
		if err != nil {
			return nil, err
		}
		nonPolar[i] = math.Abs(lat) <= nonPolarLatitude
	}

	out := arr.Copy()
	strides := out.Strides()
	for i, v := range out.Values {
		if v <= ceiling {
			continue
		}
		if nonPolar[(i/strides[latAx])%out.Shape[latAx]] {
			out.Values[i] = ceiling
		}
	}
	return out, nil
}

// AdjustMaximumPrecipitation clips precipitation above the physical
// threshold.
func AdjustMaximumPrecipitation(arr *domain.Array, threshold float64) *domain.Array {
	out := arr.Copy()
	for i, v := range out.Values {
		if v > threshold {
			out.Values[i] = threshold
		}
	}
	return out
}
