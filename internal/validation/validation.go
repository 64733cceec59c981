// Package validation checks produced datasets against the rule set for their
// classification. Rules only report; nothing is repaired. All violations from
// one run are collected into a single ValidationError so operators see the
// full picture at once.
package validation

import (
	"fmt"
	"math"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/store"
)

// DataType classifies where a dataset sits in the pipeline.
type DataType string

const (
	CMIP6         DataType = "cmip6"
	BiasCorrected DataType = "bias_corrected"
	Downscaled    DataType = "downscaled"
)

// ParseDataType validates a user-supplied data type.
func ParseDataType(s string) (DataType, error) {
	switch DataType(s) {
	case CMIP6, BiasCorrected, Downscaled:
		return DataType(s), nil
	default:
		return "", fmt.Errorf("unknown data type %q", s)
	}
}

// TimePeriod classifies the simulated period of a dataset.
type TimePeriod string

const (
	Historical TimePeriod = "historical"
	Future     TimePeriod = "future"
)

// ParseTimePeriod validates a user-supplied time period.
func ParseTimePeriod(s string) (TimePeriod, error) {
	switch TimePeriod(s) {
	case Historical, Future:
		return TimePeriod(s), nil
	default:
		return "", fmt.Errorf("unknown time period %q", s)
	}
}

// Period year bounds follow the CMIP6 experiment design: historical runs end
// in 2014, scenario runs start in 2015.
var periodYears = map[TimePeriod][2]int{
	Historical: {1950, 2014},
	Future:     {2015, 2100},
}

// bounds holds plausible physical ranges per variable. Temperatures in K,
// dtr in K, pr in mm/day.
var bounds = map[string][2]float64{
	"tasmax": {150, 400},
	"tasmin": {150, 400},
	"dtr":    {0, 100},
	"pr":     {0, DefaultMaxPr},
}

// DefaultMaxPr mirrors the precipitation clipping threshold.
const DefaultMaxPr = 3000.0

// Validate runs the rule set for the classification against one variable of
// a dataset. On failure it returns a *domain.ValidationError listing every
// violated rule.
func Validate(ds *store.Dataset, variable string, dt DataType, tp TimePeriod) error {
	var violations []string
	fail := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	arr, err := ds.Read(variable)
	if err != nil {
		return fmt.Errorf("read %q for validation: %w", variable, err)
	}

	if arr.Attrs["units"] == "" {
		fail("missing required attribute %q", "units")
	}
	if cal := arr.Attrs["calendar"]; cal != "noleap" {
		fail("attribute %q is %q, want %q", "calendar", cal, "noleap")
	}

	checkTimeAxis(arr, tp, fail)
	checkValues(arr, variable, dt, fail)

	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}

func checkTimeAxis(arr *domain.Array, tp TimePeriod, fail func(string, ...any)) {
	timeCoord, ok := arr.Coords["time"]
	if !ok {
		fail("dataset has no time coordinate")
		return
	}
	if timeCoord.Len()%domain.DaysPerYear != 0 {
		fail("time axis length %d is not a whole number of noleap years", timeCoord.Len())
	}
	lo, hi := periodYears[tp][0], periodYears[tp][1]
	for _, label := range timeCoord.Labels {
		y, err := domain.Year(label)
		if err != nil {
			fail("time label %q is not a valid noleap date", label)
			return
		}
		if y < lo || y > hi {
			fail("year %d outside %s period [%d, %d]", y, tp, lo, hi)
			return
		}
	}
}

func checkValues(arr *domain.Array, variable string, dt DataType, fail func(string, ...any)) {
	nan := 0
	for _, v := range arr.Values {
		if math.IsNaN(v) {
			nan++
		}
	}
	if nan > 0 {
		fail("%d of %d values are NaN", nan, len(arr.Values))
	}

	b, ok := bounds[variable]
	if !ok {
		return
	}
	out := 0
	for _, v := range arr.Values {
		if !math.IsNaN(v) && (v < b[0] || v > b[1]) {
			out++
		}
	}
	if out > 0 {
		fail("%d values of %q outside physical range [%g, %g] (%s data)",
			out, variable, b[0], b[1], dt)
	}
}
