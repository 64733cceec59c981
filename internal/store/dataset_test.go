package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emileten/dodola/internal/domain"
)

// twoYearMeta shapes a (time, lat, lon) variable over 2020-2021 on a 2x2
// grid, chunked one year at a time.
func twoYearMeta() *Metadata {
	tc := domain.TimeCoordinate(2020, 2021)
	return &Metadata{
		Dims: []string{"time", "lat", "lon"},
		Coords: map[string][]string{
			"time": tc.Labels,
			"lat":  {"10", "20"},
			"lon":  {"100", "110"},
		},
		Attrs: map[string]string{"institution": "test"},
		Variables: map[string]VariableMeta{
			"tasmax": {
				Dims:   []string{"time", "lat", "lon"},
				Shape:  []int{2 * domain.DaysPerYear, 2, 2},
				Chunks: []int{domain.DaysPerYear, 2, 2},
				Attrs:  map[string]string{"units": "K"},
			},
		},
	}
}

// yearArray builds a one-year (time, lat, lon) array filled from a base
// value so chunks from different years are distinguishable.
func yearArray(t *testing.T, year int, base float64) *domain.Array {
	t.Helper()
	arr, err := domain.NewArray("tasmax", []string{"time", "lat", "lon"}, map[string]domain.Coordinate{
		"time": domain.TimeCoordinate(year, year),
		"lat":  {Name: "lat", Labels: []string{"10", "20"}},
		"lon":  {Name: "lon", Labels: []string{"100", "110"}},
	})
	require.NoError(t, err)
	for i := range arr.Values {
		arr.Values[i] = base + float64(i)
	}
	return arr
}

func TestCreateAndOpen(t *testing.T) {
	backend := NewMemoryBackend()

	_, err := Create(backend, twoYearMeta())
	require.NoError(t, err)

	ds, err := Open(backend)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"institution": "test"}, ds.Attrs())
	assert.Equal(t, []string{"tasmax"}, ds.Variables())

	v, err := ds.Variable("tasmax")
	require.NoError(t, err)
	assert.Equal(t, []int{2 * domain.DaysPerYear, 2, 2}, v.Shape)

	c, err := ds.Coordinate("time")
	require.NoError(t, err)
	assert.Equal(t, 2*domain.DaysPerYear, c.Len())

	_, err = ds.Variable("pr")
	assert.Error(t, err)
	_, err = ds.Coordinate("depth")
	assert.Error(t, err)
}

func TestCreateRejectsBadMetadata(t *testing.T) {
	backend := NewMemoryBackend()

	t.Run("no variables", func(t *testing.T) {
		_, err := Create(backend, &Metadata{Dims: []string{"time"}})
		var cerr *domain.ConfigurationError
		require.ErrorAs(t, err, &cerr)
	})

	t.Run("coordinate length mismatch", func(t *testing.T) {
		meta := twoYearMeta()
		meta.Coords["lat"] = []string{"10"}
		_, err := Create(backend, meta)
		var cerr *domain.ConfigurationError
		require.ErrorAs(t, err, &cerr)
	})

	t.Run("chunk larger than shape", func(t *testing.T) {
		meta := twoYearMeta()
		v := meta.Variables["tasmax"]
		v.Chunks = []int{3 * domain.DaysPerYear, 2, 2}
		meta.Variables["tasmax"] = v
		_, err := Create(backend, meta)
		var cerr *domain.ConfigurationError
		require.ErrorAs(t, err, &cerr)
	})
}

func TestUnwrittenReadsAsFill(t *testing.T) {
	backend := NewMemoryBackend()
	ds, err := Create(backend, twoYearMeta())
	require.NoError(t, err)

	arr, err := ds.Read("tasmax")
	require.NoError(t, err)
	for _, v := range arr.Values {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRegionWritesFromIndependentHandles(t *testing.T) {
	backend := NewMemoryBackend()
	_, err := Create(backend, twoYearMeta())
	require.NoError(t, err)

	// Two writers open the primed store independently, each filling one
	// year, the way separate worker processes would.
	y2020 := yearArray(t, 2020, 1000)
	y2021 := yearArray(t, 2021, 9000)

	w1, err := Open(backend)
	require.NoError(t, err)
	require.NoError(t, w1.WriteRegion("tasmax",
		[]domain.IndexSlice{{Dim: "time", Start: 0, Stop: domain.DaysPerYear}}, y2020))

	w2, err := Open(backend)
	require.NoError(t, err)
	require.NoError(t, w2.WriteRegion("tasmax",
		[]domain.IndexSlice{{Dim: "time", Start: domain.DaysPerYear, Stop: 2 * domain.DaysPerYear}}, y2021))

	reader, err := Open(backend)
	require.NoError(t, err)
	full, err := reader.Read("tasmax")
	require.NoError(t, err)

	half := domain.DaysPerYear * 4
	assert.Equal(t, y2020.Values, full.Values[:half])
	assert.Equal(t, y2021.Values, full.Values[half:])
}

func TestReadRegion(t *testing.T) {
	backend := NewMemoryBackend()
	ds, err := Create(backend, twoYearMeta())
	require.NoError(t, err)
	y2020 := yearArray(t, 2020, 0)
	require.NoError(t, ds.WriteRegion("tasmax",
		[]domain.IndexSlice{{Dim: "time", Start: 0, Stop: domain.DaysPerYear}}, y2020))

	t.Run("reads need not be chunk aligned", func(t *testing.T) {
		arr, err := ds.ReadRegion("tasmax", []domain.IndexSlice{
			{Dim: "time", Start: 3, Stop: 5},
			{Dim: "lat", Start: 0, Stop: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 1, 2}, arr.Shape)
		assert.Equal(t, []float64{12, 13, 16, 17}, arr.Values)
		assert.Equal(t, []string{"2020-01-04", "2020-01-05"}, arr.Coords["time"].Labels)
	})

	t.Run("straddling written and unwritten chunks", func(t *testing.T) {
		arr, err := ds.ReadRegion("tasmax", []domain.IndexSlice{
			{Dim: "time", Start: domain.DaysPerYear - 1, Stop: domain.DaysPerYear + 1},
		})
		require.NoError(t, err)
		require.Equal(t, []int{2, 2, 2}, arr.Shape)
		assert.False(t, math.IsNaN(arr.Values[0]))
		assert.True(t, math.IsNaN(arr.Values[4]))
	})

	t.Run("merges global and variable attrs", func(t *testing.T) {
		arr, err := ds.ReadRegion("tasmax", nil)
		require.NoError(t, err)
		assert.Equal(t, "test", arr.Attrs["institution"])
		assert.Equal(t, "K", arr.Attrs["units"])
	})

	t.Run("out of range region", func(t *testing.T) {
		_, err := ds.ReadRegion("tasmax", []domain.IndexSlice{
			{Dim: "time", Start: 0, Stop: 3 * domain.DaysPerYear},
		})
		assert.Error(t, err)
	})
}

func TestWriteRegionAlignment(t *testing.T) {
	backend := NewMemoryBackend()
	ds, err := Create(backend, twoYearMeta())
	require.NoError(t, err)

	t.Run("misaligned start fails before any chunk write", func(t *testing.T) {
		arr, err := domain.NewArray("tasmax", []string{"time", "lat", "lon"}, map[string]domain.Coordinate{
			"time": domain.TimeCoordinate(2020, 2020).Slice(1, domain.DaysPerYear),
			"lat":  {Name: "lat", Labels: []string{"10", "20"}},
			"lon":  {Name: "lon", Labels: []string{"100", "110"}},
		})
		require.NoError(t, err)

		err = ds.WriteRegion("tasmax",
			[]domain.IndexSlice{{Dim: "time", Start: 1, Stop: domain.DaysPerYear}}, arr)
		var aerr *domain.AlignmentError
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, "time", aerr.Dim)

		// Nothing was persisted.
		full, err := ds.Read("tasmax")
		require.NoError(t, err)
		for _, v := range full.Values {
			assert.True(t, math.IsNaN(v))
		}
	})

	t.Run("shape mismatch", func(t *testing.T) {
		short := yearArray(t, 2020, 0)
		err := ds.WriteRegion("tasmax",
			[]domain.IndexSlice{{Dim: "time", Start: 0, Stop: 2 * domain.DaysPerYear}}, short)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match region length")
	})

	t.Run("trailing partial chunk counts as aligned", func(t *testing.T) {
		meta := twoYearMeta()
		v := meta.Variables["tasmax"]
		v.Chunks = []int{200, 2, 2} // 730 = 3*200 + 130
		meta.Variables["tasmax"] = v
		ds2, err := Create(NewMemoryBackend(), meta)
		require.NoError(t, err)

		tail, err := domain.NewArray("tasmax", []string{"time", "lat", "lon"}, map[string]domain.Coordinate{
			"time": domain.TimeCoordinate(2020, 2021).Slice(600, 2*domain.DaysPerYear),
			"lat":  {Name: "lat", Labels: []string{"10", "20"}},
			"lon":  {Name: "lon", Labels: []string{"100", "110"}},
		})
		require.NoError(t, err)
		for i := range tail.Values {
			tail.Values[i] = 1
		}
		require.NoError(t, ds2.WriteRegion("tasmax",
			[]domain.IndexSlice{{Dim: "time", Start: 600, Stop: 2 * domain.DaysPerYear}}, tail))
	})
}

func TestLocalBackend(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	_, err = Create(backend, twoYearMeta())
	require.NoError(t, err)

	ds, err := Open(backend)
	require.NoError(t, err)
	y2020 := yearArray(t, 2020, 500)
	require.NoError(t, ds.WriteRegion("tasmax",
		[]domain.IndexSlice{{Dim: "time", Start: 0, Stop: domain.DaysPerYear}}, y2020))

	back, err := ds.ReadRegion("tasmax",
		[]domain.IndexSlice{{Dim: "time", Start: 0, Stop: domain.DaysPerYear}})
	require.NoError(t, err)
	assert.Equal(t, y2020.Values, back.Values)
}

func TestChunkCodecRoundTrip(t *testing.T) {
	values := []float64{0, 1.5, -2.25, math.Inf(1)}
	buf, err := encodeChunk(values)
	require.NoError(t, err)

	got, err := decodeChunk(buf, len(values))
	require.NoError(t, err)
	assert.Equal(t, values, got)

	_, err = decodeChunk(buf, len(values)+1)
	assert.Error(t, err)
}

func TestChunkKey(t *testing.T) {
	assert.Equal(t, "tasmax/0.1.2", chunkKey("tasmax", []int{0, 1, 2}))
	assert.Equal(t, "scalar/0", chunkKey("scalar", nil))
}
