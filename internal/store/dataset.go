package store

import (
	"errors"
	"fmt"

	"github.com/emileten/dodola/internal/domain"
)

// Dataset is a chunked labeled-array collection bound to a Backend. Metadata
// is settled at Create time; after that only chunk payloads change, and only
// at whole-chunk granularity.
type Dataset struct {
	backend Backend
	meta    *Metadata
}

// Create writes the metadata document for a new dataset and returns a handle.
// No chunk data is written: every variable is structurally present but reads
// as fill values until a region write lands. The metadata put is the only
// store-wide write that ever happens, so it must complete before any writer
// process starts.
func Create(backend Backend, meta *Metadata) (*Dataset, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	meta.Format = formatVersion
	doc, err := meta.encode()
	if err != nil {
		return nil, fmt.Errorf("encode dataset metadata: %w", err)
	}
	if err := backend.Put(metadataKey, doc); err != nil {
		return nil, fmt.Errorf("write dataset metadata: %w", err)
	}
	return &Dataset{backend: backend, meta: meta}, nil
}

// Open reads an existing dataset's metadata.
func Open(backend Backend) (*Dataset, error) {
	doc, err := backend.Get(metadataKey)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	meta, err := decodeMetadata(doc)
	if err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &Dataset{backend: backend, meta: meta}, nil
}

// Attrs returns the dataset's global attributes.
func (d *Dataset) Attrs() map[string]string { return d.meta.Attrs }

// Variables lists the stored variable names.
func (d *Dataset) Variables() []string {
	names := make([]string, 0, len(d.meta.Variables))
	for name := range d.meta.Variables {
		names = append(names, name)
	}
	return names
}

// Variable returns the geometry of one variable.
func (d *Dataset) Variable(name string) (VariableMeta, error) {
	v, ok := d.meta.Variables[name]
	if !ok {
		return VariableMeta{}, fmt.Errorf("dataset has no variable %q", name)
	}
	return v, nil
}

// Coordinate returns the labels along one dimension.
func (d *Dataset) Coordinate(dim string) (domain.Coordinate, error) {
	labels, ok := d.meta.Coords[dim]
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("dataset has no coordinate %q", dim)
	}
	return domain.Coordinate{Name: dim, Labels: labels}, nil
}

// resolveRegion expands index slices into per-dimension [start, stop) bounds,
// defaulting unrestricted dimensions to their full extent.
func (d *Dataset) resolveRegion(v VariableMeta, region []domain.IndexSlice) (start, stop []int, err error) {
	start = make([]int, len(v.Dims))
	stop = append([]int(nil), v.Shape...)
	for _, s := range region {
		ax := -1
		for i, dim := range v.Dims {
			if dim == s.Dim {
				ax = i
				break
			}
		}
		if ax < 0 {
			return nil, nil, fmt.Errorf("variable has no dimension %q", s.Dim)
		}
		if s.Start < 0 || s.Stop > v.Shape[ax] || s.Start >= s.Stop {
			return nil, nil, fmt.Errorf("region [%d,%d) out of range for %q (length %d)",
				s.Start, s.Stop, s.Dim, v.Shape[ax])
		}
		start[ax], stop[ax] = s.Start, s.Stop
	}
	return start, stop, nil
}

// checkAligned verifies that a region's boundaries coincide with chunk
// boundaries on every dimension. The final partial chunk at the end of a
// dimension counts as a boundary.
func checkAligned(v VariableMeta, start, stop []int) error {
	for i, dim := range v.Dims {
		c := v.Chunks[i]
		if start[i]%c != 0 || (stop[i]%c != 0 && stop[i] != v.Shape[i]) {
			return &domain.AlignmentError{Dim: dim, Start: start[i], Stop: stop[i], Chunk: c}
		}
	}
	return nil
}

// WriteRegion persists arr into the chunk-aligned region of a variable.
// It fails with AlignmentError before touching any chunk if the region is
// misaligned, and never modifies dataset metadata.
func (d *Dataset) WriteRegion(variable string, region []domain.IndexSlice, arr *domain.Array) error {
	v, err := d.Variable(variable)
	if err != nil {
		return err
	}
	start, stop, err := d.resolveRegion(v, region)
	if err != nil {
		return err
	}
	if err := checkAligned(v, start, stop); err != nil {
		return err
	}
	if len(arr.Dims) != len(v.Dims) {
		return fmt.Errorf("array rank %d does not match variable rank %d", len(arr.Dims), len(v.Dims))
	}
	for i, dim := range v.Dims {
		if arr.Dims[i] != dim {
			return fmt.Errorf("array dimension %d is %q, variable wants %q", i, arr.Dims[i], dim)
		}
		if arr.Shape[i] != stop[i]-start[i] {
			return fmt.Errorf("array length %d on %q does not match region length %d",
				arr.Shape[i], dim, stop[i]-start[i])
		}
	}

	arrStrides := arr.Strides()
	for _, ci := range chunksInRange(v, start, stop) {
		lo, hi := chunkBounds(v, ci)
		chunkShape := make([]int, len(lo))
		n := 1
		for i := range lo {
			chunkShape[i] = hi[i] - lo[i]
			n *= chunkShape[i]
		}
		values := make([]float64, n)
		// Region alignment guarantees the chunk lies wholly inside the
		// region, so the chunk is filled entirely from arr.
		idx := append([]int(nil), lo...)
		for pos := 0; pos < n; pos++ {
			off := 0
			for i := range idx {
				off += (idx[i] - start[i]) * arrStrides[i]
			}
			values[pos] = arr.Values[off]
			advance(idx, lo, hi)
		}
		buf, err := encodeChunk(values)
		if err != nil {
			return fmt.Errorf("encode chunk %v: %w", ci, err)
		}
		if err := d.backend.Put(chunkKey(variable, ci), buf); err != nil {
			return fmt.Errorf("write chunk %v: %w", ci, err)
		}
	}
	return nil
}

// ReadRegion loads a region of a variable into a new labeled array. Reads
// need not be chunk-aligned; chunks never written read as NaN fill.
func (d *Dataset) ReadRegion(variable string, region []domain.IndexSlice) (*domain.Array, error) {
	v, err := d.Variable(variable)
	if err != nil {
		return nil, err
	}
	start, stop, err := d.resolveRegion(v, region)
	if err != nil {
		return nil, err
	}

	coords := make(map[string]domain.Coordinate, len(v.Dims))
	for i, dim := range v.Dims {
		c, err := d.Coordinate(dim)
		if err != nil {
			return nil, err
		}
		coords[dim] = c.Slice(start[i], stop[i])
	}
	out, err := domain.NewArray(variable, v.Dims, coords)
	if err != nil {
		return nil, err
	}
	for k, val := range d.meta.Attrs {
		out.Attrs[k] = val
	}
	for k, val := range v.Attrs {
		out.Attrs[k] = val
	}

	outStrides := out.Strides()
	for _, ci := range chunksInRange(v, start, stop) {
		lo, hi := chunkBounds(v, ci)
		chunkShape := make([]int, len(lo))
		n := 1
		for i := range lo {
			chunkShape[i] = hi[i] - lo[i]
			n *= chunkShape[i]
		}
		var values []float64
		buf, err := d.backend.Get(chunkKey(variable, ci))
		switch {
		case errors.Is(err, ErrNotFound):
			values = fillChunk(n)
		case err != nil:
			return nil, fmt.Errorf("read chunk %v: %w", ci, err)
		default:
			values, err = decodeChunk(buf, n)
			if err != nil {
				return nil, fmt.Errorf("read chunk %v: %w", ci, err)
			}
		}

		// Copy the chunk/region intersection into the output.
		ilo := make([]int, len(lo))
		ihi := make([]int, len(lo))
		for i := range lo {
			ilo[i] = max(lo[i], start[i])
			ihi[i] = min(hi[i], stop[i])
		}
		chunkStrides := strides(chunkShape)
		idx := append([]int(nil), ilo...)
		total := 1
		for i := range ilo {
			total *= ihi[i] - ilo[i]
		}
		for pos := 0; pos < total; pos++ {
			srcOff, dstOff := 0, 0
			for i := range idx {
				srcOff += (idx[i] - lo[i]) * chunkStrides[i]
				dstOff += (idx[i] - start[i]) * outStrides[i]
			}
			out.Values[dstOff] = values[srcOff]
			advance(idx, ilo, ihi)
		}
	}
	return out, nil
}

// Read loads a variable's full extent.
func (d *Dataset) Read(variable string) (*domain.Array, error) {
	return d.ReadRegion(variable, nil)
}

// Write persists a full-extent array. The full extent is trivially aligned.
func (d *Dataset) Write(variable string, arr *domain.Array) error {
	return d.WriteRegion(variable, nil, arr)
}

// chunksInRange lists chunk index vectors whose extent intersects
// [start, stop).
func chunksInRange(v VariableMeta, start, stop []int) [][]int {
	ndim := len(v.Dims)
	clo := make([]int, ndim)
	chi := make([]int, ndim)
	total := 1
	for i := range v.Dims {
		clo[i] = start[i] / v.Chunks[i]
		chi[i] = (stop[i] + v.Chunks[i] - 1) / v.Chunks[i]
		total *= chi[i] - clo[i]
	}
	out := make([][]int, 0, total)
	ci := append([]int(nil), clo...)
	for pos := 0; pos < total; pos++ {
		out = append(out, append([]int(nil), ci...))
		advance(ci, clo, chi)
	}
	return out
}

// chunkBounds returns the global [lo, hi) extent of a chunk, clipped to the
// variable's shape on the trailing edge.
func chunkBounds(v VariableMeta, ci []int) (lo, hi []int) {
	lo = make([]int, len(ci))
	hi = make([]int, len(ci))
	for i := range ci {
		lo[i] = ci[i] * v.Chunks[i]
		hi[i] = min(lo[i]+v.Chunks[i], v.Shape[i])
	}
	return lo, hi
}

// advance steps a multi-index through [lo, hi) in row-major order.
func advance(idx, lo, hi []int) {
	for ax := len(idx) - 1; ax >= 0; ax-- {
		idx[ax]++
		if idx[ax] < hi[ax] {
			return
		}
		idx[ax] = lo[ax]
	}
}

func strides(shape []int) []int {
	out := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = s
		s *= shape[i]
	}
	return out
}
