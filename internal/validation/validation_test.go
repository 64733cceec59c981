package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/store"
)

func TestParseDataType(t *testing.T) {
	for _, s := range []string{"cmip6", "bias_corrected", "downscaled"} {
		dt, err := ParseDataType(s)
		require.NoError(t, err)
		assert.Equal(t, DataType(s), dt)
	}
	_, err := ParseDataType("raw")
	assert.Error(t, err)
}

func TestParseTimePeriod(t *testing.T) {
	for _, s := range []string{"historical", "future"} {
		tp, err := ParseTimePeriod(s)
		require.NoError(t, err)
		assert.Equal(t, TimePeriod(s), tp)
	}
	_, err := ParseTimePeriod("present")
	assert.Error(t, err)
}

// storeWithYear creates a single-variable store for one year, filled with a
// constant, carrying the given variable attrs.
func storeWithYear(t *testing.T, variable string, year int, value float64, attrs map[string]string) *store.Dataset {
	t.Helper()
	tc := domain.TimeCoordinate(year, year)
	meta := &store.Metadata{
		Dims: []string{"time", "lat", "lon"},
		Coords: map[string][]string{
			"time": tc.Labels,
			"lat":  {"10"},
			"lon":  {"100"},
		},
		Variables: map[string]store.VariableMeta{
			variable: {
				Dims:   []string{"time", "lat", "lon"},
				Shape:  []int{domain.DaysPerYear, 1, 1},
				Chunks: []int{domain.DaysPerYear, 1, 1},
				Attrs:  attrs,
			},
		},
	}
	ds, err := store.Create(store.NewMemoryBackend(), meta)
	require.NoError(t, err)

	arr, err := domain.NewArray(variable, meta.Dims, map[string]domain.Coordinate{
		"time": tc,
		"lat":  {Name: "lat", Labels: []string{"10"}},
		"lon":  {Name: "lon", Labels: []string{"100"}},
	})
	require.NoError(t, err)
	for i := range arr.Values {
		arr.Values[i] = value
	}
	require.NoError(t, ds.Write(variable, arr))
	return ds
}

func TestValidatePasses(t *testing.T) {
	ds := storeWithYear(t, "tasmax", 2000, 290, map[string]string{
		"units": "K", "calendar": "noleap",
	})
	assert.NoError(t, Validate(ds, "tasmax", BiasCorrected, Historical))
}

func TestValidateCollectsAllViolations(t *testing.T) {
	// Wrong attrs, wrong period, and implausible values all surface in
	// one error.
	ds := storeWithYear(t, "tasmax", 2000, 500, nil)

	err := Validate(ds, "tasmax", BiasCorrected, Future)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 4)
	assert.Contains(t, verr.Violations[0], "units")
	assert.Contains(t, verr.Violations[1], "calendar")
	assert.Contains(t, verr.Violations[2], "outside future period")
	assert.Contains(t, verr.Violations[3], "outside physical range")
}

func TestValidateNaN(t *testing.T) {
	ds := storeWithYear(t, "tasmax", 2020, math.NaN(), map[string]string{
		"units": "K", "calendar": "noleap",
	})
	err := Validate(ds, "tasmax", Downscaled, Future)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Contains(t, verr.Violations[0], "NaN")
}

func TestValidateUnknownVariableSkipsRangeCheck(t *testing.T) {
	ds := storeWithYear(t, "huss", 2020, 1e6, map[string]string{
		"units": "1", "calendar": "noleap",
	})
	assert.NoError(t, Validate(ds, "huss", CMIP6, Future))
}

func TestValidateMissingVariable(t *testing.T) {
	ds := storeWithYear(t, "tasmax", 2020, 290, map[string]string{
		"units": "K", "calendar": "noleap",
	})
	err := Validate(ds, "pr", CMIP6, Future)
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.False(t, errors.As(err, &verr), "a missing variable is a read failure, not a rule violation")
}
