package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeCoordinate(t *testing.T) {
	t.Run("single year has 365 days", func(t *testing.T) {
		c := TimeCoordinate(2000, 2000)
		assert.Equal(t, DaysPerYear, c.Len())
		assert.Equal(t, "2000-01-01", c.Labels[0])
		assert.Equal(t, "2000-12-31", c.Labels[364])
	})

	t.Run("never contains February 29", func(t *testing.T) {
		// 2000 is a Gregorian leap year; the noleap calendar skips it.
		c := TimeCoordinate(2000, 2000)
		assert.Equal(t, "2000-02-28", c.Labels[58])
		assert.Equal(t, "2000-03-01", c.Labels[59])
	})

	t.Run("multi year spans consecutively", func(t *testing.T) {
		c := TimeCoordinate(2020, 2022)
		assert.Equal(t, 3*DaysPerYear, c.Len())
		assert.Equal(t, "2020-01-01", c.Labels[0])
		assert.Equal(t, "2021-01-01", c.Labels[DaysPerYear])
		assert.Equal(t, "2022-12-31", c.Labels[3*DaysPerYear-1])
	})
}

func TestParseDate(t *testing.T) {
	y, m, d, err := ParseDate("1999-07-04")
	require.NoError(t, err)
	assert.Equal(t, 1999, y)
	assert.Equal(t, 7, m)
	assert.Equal(t, 4, d)

	for _, bad := range []string{"1999-7-4", "not a date", "1999-02-29", "1999-13-01", "1999-04-31", ""} {
		_, _, _, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDayOfYear(t *testing.T) {
	cases := map[string]int{
		"2000-01-01": 1,
		"2000-02-28": 59,
		"2000-03-01": 60,
		"2000-12-31": 365,
	}
	for label, want := range cases {
		doy, err := DayOfYear(label)
		require.NoError(t, err)
		assert.Equal(t, want, doy, label)
	}
}

func TestFloatCoordinate(t *testing.T) {
	c := FloatCoordinate("lat", []float64{-60.5, 0, 42.25})
	require.Equal(t, 3, c.Len())
	for i, want := range []float64{-60.5, 0, 42.25} {
		v, err := c.Float(i)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	_, err := Coordinate{Name: "lat", Labels: []string{"north"}}.Float(0)
	assert.Error(t, err)
}

func TestCoordinateIndexAndSlice(t *testing.T) {
	c := Coordinate{Name: "time", Labels: []string{"a", "b", "c", "d"}}
	assert.Equal(t, 2, c.Index("c"))
	assert.Equal(t, -1, c.Index("z"))

	s := c.Slice(1, 3)
	assert.Equal(t, []string{"b", "c"}, s.Labels)

	// The slice owns its labels.
	s.Labels[0] = "x"
	assert.Equal(t, "b", c.Labels[1])
}
