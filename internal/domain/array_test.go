package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArray(t *testing.T) *Array {
	t.Helper()
	arr, err := NewArray("tasmax", []string{"time", "lat", "lon"}, map[string]Coordinate{
		"time": {Name: "time", Labels: []string{"2000-01-01", "2000-01-02", "2000-01-03"}},
		"lat":  FloatCoordinate("lat", []float64{10, 20}),
		"lon":  FloatCoordinate("lon", []float64{100, 110}),
	})
	require.NoError(t, err)
	for i := range arr.Values {
		arr.Values[i] = float64(i)
	}
	return arr
}

func TestNewArray(t *testing.T) {
	arr, err := NewArray("pr", []string{"lat", "lon"}, map[string]Coordinate{
		"lat": FloatCoordinate("lat", []float64{0, 1}),
		"lon": FloatCoordinate("lon", []float64{0, 1, 2}),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, arr.Shape)
	assert.Equal(t, 6, arr.Size())
	for _, v := range arr.Values {
		assert.True(t, math.IsNaN(v))
	}

	_, err = NewArray("pr", []string{"lat"}, nil)
	assert.Error(t, err)
}

func TestArrayIndexing(t *testing.T) {
	arr := testArray(t)

	assert.Equal(t, []int{4, 2, 1}, arr.Strides())
	assert.Equal(t, 0.0, arr.At(0, 0, 0))
	assert.Equal(t, 7.0, arr.At(1, 1, 1))

	arr.Set(-1, 2, 0, 1)
	assert.Equal(t, -1.0, arr.At(2, 0, 1))
	assert.Equal(t, -1.0, arr.Values[9])
}

func TestArrayISel(t *testing.T) {
	arr := testArray(t)

	t.Run("subsets values and coordinates", func(t *testing.T) {
		sub, err := arr.ISel(IndexSlice{Dim: "time", Start: 1, Stop: 3}, IndexSlice{Dim: "lon", Start: 0, Stop: 1})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2, 1}, sub.Shape)
		assert.Equal(t, []string{"2000-01-02", "2000-01-03"}, sub.Coords["time"].Labels)
		assert.Equal(t, []float64{4, 6, 8, 10}, sub.Values)
	})

	t.Run("input untouched", func(t *testing.T) {
		sub, err := arr.ISel(IndexSlice{Dim: "lat", Start: 0, Stop: 1})
		require.NoError(t, err)
		sub.Values[0] = 99
		assert.Equal(t, 0.0, arr.Values[0])
	})

	t.Run("unknown dimension", func(t *testing.T) {
		_, err := arr.ISel(IndexSlice{Dim: "depth", Start: 0, Stop: 1})
		assert.Error(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := arr.ISel(IndexSlice{Dim: "time", Start: 0, Stop: 4})
		assert.Error(t, err)
	})
}

func TestArraySel(t *testing.T) {
	arr := testArray(t)

	sub, err := arr.Sel(LabelSlice{Dim: "time", Start: "2000-01-01", Stop: "2000-01-02"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, sub.Shape)

	_, err = arr.Sel(LabelSlice{Dim: "time", Start: "1999-01-01", Stop: "2000-01-02"})
	assert.Error(t, err)
}

func TestArrayCopy(t *testing.T) {
	arr := testArray(t)
	arr.Attrs["units"] = "K"

	cp := arr.Copy()
	cp.Values[0] = 42
	cp.Attrs["units"] = "degC"

	assert.Equal(t, 0.0, arr.Values[0])
	assert.Equal(t, "K", arr.Attrs["units"])
}

func TestSameGrid(t *testing.T) {
	a := testArray(t)
	b := testArray(t)
	assert.True(t, a.SameGrid(b))

	shifted, err := NewArray("tasmax", []string{"time", "lat", "lon"}, map[string]Coordinate{
		"time": a.Coords["time"],
		"lat":  FloatCoordinate("lat", []float64{10, 25}),
		"lon":  a.Coords["lon"],
	})
	require.NoError(t, err)
	assert.False(t, a.SameGrid(shifted))
}
