package service

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/store"
)

// PrimeRequest describes the output store to create ahead of any regional
// writes.
type PrimeRequest struct {
	// Template supplies the spatial grid, the variable's attributes, and,
	// when no year range is given, the time axis.
	Template *store.Dataset
	Variable string

	// FirstYear/LastYear, when nonzero, span a fresh noleap time axis for
	// the output. Zero keeps the template's time axis.
	FirstYear, LastYear int

	// RegionDims names the dimensions regions will be keyed on. Chunk
	// boundaries are aligned to the write granularity of these dimensions
	// so every future region write is automatically chunk-aligned.
	RegionDims []string

	// ChunkHints optionally overrides the chunk size per dimension.
	ChunkHints map[string]int

	// RegionSizes optionally overrides the write-region granularity per
	// region dimension. The default for time is one noleap year; other
	// dimensions default to their full extent.
	RegionSizes map[string]int

	// RootAttrsJSON is an optional JSON object merged into the output's
	// global attrs. NewAttrs entries take precedence over it, and it takes
	// precedence over the template's attrs.
	RootAttrsJSON []byte
	NewAttrs      map[string]string
}

// PrimeQDMOutput creates the empty, fully-shaped output store that
// independent QDM apply processes will fill region by region. Metadata
// (coordinates, merged attrs, chunk grid) is durably written before the call
// returns; no data payload is.
func (s *Service) PrimeQDMOutput(out store.Backend, req PrimeRequest) (*store.Dataset, error) {
	var ds *store.Dataset
	err := s.logged("prime_qdm_output", func() error {
		var err error
		ds, err = s.prime(out, req)
		return err
	})
	return ds, err
}

// PrimeQPLADOutput creates the fine-grid output store for regionally-written
// QPLAD output. The template is expected to already carry the fine grid.
func (s *Service) PrimeQPLADOutput(out store.Backend, req PrimeRequest) (*store.Dataset, error) {
	var ds *store.Dataset
	err := s.logged("prime_qplad_output", func() error {
		var err error
		ds, err = s.prime(out, req)
		return err
	})
	return ds, err
}

func (s *Service) prime(out store.Backend, req PrimeRequest) (*store.Dataset, error) {
	tv, err := req.Template.Variable(req.Variable)
	if err != nil {
		return nil, err
	}

	coords := make(map[string][]string, len(tv.Dims))
	shape := make([]int, len(tv.Dims))
	for i, dim := range tv.Dims {
		c, err := req.Template.Coordinate(dim)
		if err != nil {
			return nil, err
		}
		if dim == "time" && req.FirstYear != 0 {
			c = domain.TimeCoordinate(req.FirstYear, req.LastYear)
		}
		coords[dim] = c.Labels
		shape[i] = c.Len()
	}

	chunks, err := chunkGrid(tv.Dims, shape, req)
	if err != nil {
		return nil, err
	}

	attrs, err := mergeAttrs(req.Template.Attrs(), req.RootAttrsJSON, req.NewAttrs)
	if err != nil {
		return nil, err
	}
	attrs["tracking_id"] = uuid.NewString()
	attrs["history"] = domain.Now().UTC().Format("2006-01-02T15:04:05Z") +
		": output store primed for regional writing"

	meta := &store.Metadata{
		Dims:   tv.Dims,
		Coords: coords,
		Attrs:  attrs,
		Variables: map[string]store.VariableMeta{
			req.Variable: {
				Dims:   tv.Dims,
				Shape:  shape,
				Chunks: chunks,
				Attrs:  tv.Attrs,
			},
		},
	}
	ds, err := store.Create(out, meta)
	if err != nil {
		return nil, err
	}
	s.metrics.StoresPrimed.Inc()
	return ds, nil
}

// chunkGrid derives the chunk size per dimension, aligning region dimensions
// to their write granularity. A hint that neither divides nor is divided by
// the granularity is a configuration error caught here, at prime time, not
// discovered later as corrupt chunks.
func chunkGrid(dims []string, shape []int, req PrimeRequest) ([]int, error) {
	regioned := make(map[string]bool, len(req.RegionDims))
	for _, d := range req.RegionDims {
		regioned[d] = true
	}

	chunks := make([]int, len(dims))
	for i, dim := range dims {
		full := shape[i]
		if !regioned[dim] {
			if hint, ok := req.ChunkHints[dim]; ok {
				chunks[i] = hint
			} else {
				chunks[i] = full
			}
			continue
		}

		granularity, ok := req.RegionSizes[dim]
		if !ok {
			if dim == "time" {
				granularity = domain.DaysPerYear
			} else {
				granularity = full
			}
		}
		chunk := granularity
		if hint, ok := req.ChunkHints[dim]; ok {
			chunk = hint
		}
		if chunk < 1 || (granularity%chunk != 0 && chunk%granularity != 0) {
			return nil, &domain.ConfigurationError{
				Msg: fmt.Sprintf("chunk size %d on %q does not align with write-region granularity %d",
					chunk, dim, granularity),
			}
		}
		chunks[i] = chunk
	}
	return chunks, nil
}

// mergeAttrs layers attribute sources: overrides beat the root JSON blob,
// which beats attributes already implied by the template data.
func mergeAttrs(template map[string]string, rootJSON []byte, overrides map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(template)+len(overrides))
	for k, v := range template {
		out[k] = v
	}
	if len(rootJSON) > 0 {
		var root map[string]string
		if err := json.Unmarshal(rootJSON, &root); err != nil {
			return nil, fmt.Errorf("parse root attrs JSON: %w", err)
		}
		for k, v := range root {
			out[k] = v
		}
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out, nil
}
