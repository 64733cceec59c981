package service

import (
	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/store"
)

// WriteRegionRequest targets one region of an already-primed store.
type WriteRegionRequest struct {
	Variable string

	// LabelSelections and IndexSelections together define the region.
	// Labels resolve against the store's coordinates; dimensions named by
	// neither span their full extent.
	LabelSelections []domain.LabelSlice
	IndexSelections []domain.IndexSlice

	Data *domain.Array
}

// WriteRegion resolves the selection against the store's coordinates,
// verifies chunk alignment, and persists the data payload for that region
// only. Store metadata is never touched: it was settled at prime time, which
// is the property that lets unrelated processes write disjoint regions
// safely. A misaligned region fails with AlignmentError before any chunk is
// written and must not be retried.
func (s *Service) WriteRegion(ds *store.Dataset, req WriteRegionRequest) error {
	return s.logged("write_region", func() error {
		region := append([]domain.IndexSlice(nil), req.IndexSelections...)
		for _, sel := range req.LabelSelections {
			c, err := ds.Coordinate(sel.Dim)
			if err != nil {
				return err
			}
			r, err := sel.Resolve(c)
			if err != nil {
				return err
			}
			region = append(region, r)
		}
		if err := ds.WriteRegion(req.Variable, region, req.Data); err != nil {
			return err
		}
		s.metrics.RegionsWritten.Inc()
		return nil
	})
}
