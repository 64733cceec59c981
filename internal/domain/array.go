package domain

import (
	"fmt"
	"math"
)

// Array is an N-dimensional labeled array of physical values. Values are laid
// out row-major (last dimension varies fastest). Transforms never mutate an
// Array in place; they return a new one.
type Array struct {
	Variable string
	Dims     []string
	Shape    []int
	Coords   map[string]Coordinate
	Attrs    map[string]string
	Values   []float64
}

// NewArray allocates an array over the given coordinates, filled with NaN.
// Dimension order follows dims; every dim must have a coordinate.
func NewArray(variable string, dims []string, coords map[string]Coordinate) (*Array, error) {
	shape := make([]int, len(dims))
	n := 1
	for i, d := range dims {
		c, ok := coords[d]
		if !ok {
			return nil, fmt.Errorf("dimension %q has no coordinate", d)
		}
		shape[i] = c.Len()
		n *= c.Len()
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = math.NaN()
	}
	return &Array{
		Variable: variable,
		Dims:     append([]string(nil), dims...),
		Shape:    shape,
		Coords:   copyCoords(coords),
		Attrs:    map[string]string{},
		Values:   values,
	}, nil
}

func copyCoords(coords map[string]Coordinate) map[string]Coordinate {
	out := make(map[string]Coordinate, len(coords))
	for k, v := range coords {
		out[k] = v
	}
	return out
}

// Size returns the total number of values.
func (a *Array) Size() int { return len(a.Values) }

// DimIndex returns the axis position of dim, or -1.
func (a *Array) DimIndex(dim string) int {
	for i, d := range a.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// Strides returns the row-major stride of each dimension.
func (a *Array) Strides() []int {
	strides := make([]int, len(a.Shape))
	s := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= a.Shape[i]
	}
	return strides
}

// Offset converts a multi-index into a flat position.
func (a *Array) Offset(idx ...int) int {
	off := 0
	s := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		off += idx[i] * s
		s *= a.Shape[i]
	}
	return off
}

// At reads the value at a multi-index.
func (a *Array) At(idx ...int) float64 { return a.Values[a.Offset(idx...)] }

// Set writes the value at a multi-index.
func (a *Array) Set(v float64, idx ...int) { a.Values[a.Offset(idx...)] = v }

// Copy returns a deep copy, including attrs and coordinates.
func (a *Array) Copy() *Array {
	values := make([]float64, len(a.Values))
	copy(values, a.Values)
	attrs := make(map[string]string, len(a.Attrs))
	for k, v := range a.Attrs {
		attrs[k] = v
	}
	return &Array{
		Variable: a.Variable,
		Dims:     append([]string(nil), a.Dims...),
		Shape:    append([]int(nil), a.Shape...),
		Coords:   copyCoords(a.Coords),
		Attrs:    attrs,
		Values:   values,
	}
}

// ISel subsets by half-open index ranges. Dimensions not named keep their
// full extent. The result is a new array with sliced coordinates.
func (a *Array) ISel(slices ...IndexSlice) (*Array, error) {
	start := make([]int, len(a.Dims))
	stop := append([]int(nil), a.Shape...)
	for _, s := range slices {
		ax := a.DimIndex(s.Dim)
		if ax < 0 {
			return nil, fmt.Errorf("array has no dimension %q", s.Dim)
		}
		if s.Start < 0 || s.Stop > a.Shape[ax] || s.Start >= s.Stop {
			return nil, fmt.Errorf("index slice [%d,%d) out of range for %q (length %d)",
				s.Start, s.Stop, s.Dim, a.Shape[ax])
		}
		start[ax], stop[ax] = s.Start, s.Stop
	}
	return a.subset(start, stop), nil
}

// Sel subsets by inclusive label ranges, resolving labels against the
// array's coordinates.
func (a *Array) Sel(slices ...LabelSlice) (*Array, error) {
	idx := make([]IndexSlice, 0, len(slices))
	for _, s := range slices {
		c, ok := a.Coords[s.Dim]
		if !ok {
			return nil, fmt.Errorf("array has no dimension %q", s.Dim)
		}
		r, err := s.Resolve(c)
		if err != nil {
			return nil, err
		}
		idx = append(idx, r)
	}
	return a.ISel(idx...)
}

func (a *Array) subset(start, stop []int) *Array {
	outShape := make([]int, len(a.Shape))
	n := 1
	for i := range a.Shape {
		outShape[i] = stop[i] - start[i]
		n *= outShape[i]
	}
	out := &Array{
		Variable: a.Variable,
		Dims:     append([]string(nil), a.Dims...),
		Shape:    outShape,
		Coords:   make(map[string]Coordinate, len(a.Coords)),
		Attrs:    make(map[string]string, len(a.Attrs)),
		Values:   make([]float64, n),
	}
	for k, v := range a.Attrs {
		out.Attrs[k] = v
	}
	for i, d := range a.Dims {
		out.Coords[d] = a.Coords[d].Slice(start[i], stop[i])
	}
	for d, c := range a.Coords {
		if a.DimIndex(d) < 0 {
			out.Coords[d] = c
		}
	}

	srcStrides := a.Strides()
	idx := append([]int(nil), start...)
	for pos := 0; pos < n; pos++ {
		off := 0
		for i := range idx {
			off += idx[i] * srcStrides[i]
		}
		out.Values[pos] = a.Values[off]
		for ax := len(idx) - 1; ax >= 0; ax-- {
			idx[ax]++
			if idx[ax] < stop[ax] {
				break
			}
			idx[ax] = start[ax]
		}
	}
	return out
}

// SameGrid reports whether two arrays share dimensions, shape, and labels.
func (a *Array) SameGrid(b *Array) bool {
	if len(a.Dims) != len(b.Dims) {
		return false
	}
	for i, d := range a.Dims {
		if b.Dims[i] != d || a.Shape[i] != b.Shape[i] {
			return false
		}
		ca, cb := a.Coords[d], b.Coords[d]
		for j := range ca.Labels {
			if ca.Labels[j] != cb.Labels[j] {
				return false
			}
		}
	}
	return true
}
