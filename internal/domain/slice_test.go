package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelSliceResolve(t *testing.T) {
	c := Coordinate{Name: "time", Labels: []string{"a", "b", "c", "d"}}

	t.Run("inclusive stop", func(t *testing.T) {
		r, err := LabelSlice{Dim: "time", Start: "b", Stop: "c"}.Resolve(c)
		require.NoError(t, err)
		assert.Equal(t, IndexSlice{Dim: "time", Start: 1, Stop: 3}, r)
	})

	t.Run("missing label", func(t *testing.T) {
		_, err := LabelSlice{Dim: "time", Start: "z", Stop: "c"}.Resolve(c)
		assert.Error(t, err)
	})

	t.Run("reversed range", func(t *testing.T) {
		_, err := LabelSlice{Dim: "time", Start: "d", Stop: "a"}.Resolve(c)
		assert.Error(t, err)
	})
}

func TestParseLabelSlices(t *testing.T) {
	out, err := ParseLabelSlices([]string{"time=2000-01-01,2000-12-31", "lat=-10,10"})
	require.NoError(t, err)
	assert.Equal(t, []LabelSlice{
		{Dim: "time", Start: "2000-01-01", Stop: "2000-12-31"},
		{Dim: "lat", Start: "-10", Stop: "10"},
	}, out)

	for _, bad := range []string{"time", "=a,b", "time=a", "time=,b"} {
		_, err := ParseLabelSlices([]string{bad})
		assert.Error(t, err, bad)
	}

	_, err = ParseLabelSlices([]string{"time=a,b", "time=c,d"})
	assert.Error(t, err)
}

func TestParseIndexSlices(t *testing.T) {
	out, err := ParseIndexSlices([]string{"time=0,365"})
	require.NoError(t, err)
	assert.Equal(t, []IndexSlice{{Dim: "time", Start: 0, Stop: 365}}, out)

	for _, bad := range []string{"time=a,b", "time=-1,5", "time=5,5", "time=5,2"} {
		_, err := ParseIndexSlices([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseAttrPairs(t *testing.T) {
	attrs, err := ParseAttrPairs([]string{"units=K", "source=CMIP6"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"units": "K", "source": "CMIP6"}, attrs)

	empty, err := ParseAttrPairs(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseAttrPairs([]string{"nokey"})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("additive")
	require.NoError(t, err)
	assert.Equal(t, Additive, k)

	k, err = ParseKind("multiplicative")
	require.NoError(t, err)
	assert.Equal(t, Multiplicative, k)

	_, err = ParseKind("exponential")
	assert.Error(t, err)
}
