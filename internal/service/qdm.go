package service

import (
	"fmt"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/qdm"
	"github.com/emileten/dodola/internal/store"
)

// TrainQDMRequest configures a QDM training run.
type TrainQDMRequest struct {
	Variable   string
	Kind       domain.Kind
	SelSlices  []domain.LabelSlice
	ISelSlices []domain.IndexSlice
}

// TrainQDM reads the historical simulation and reference series, fits the
// per-cell, per-window distribution pair, and persists the model to out.
func (s *Service) TrainQDM(historical, reference, out store.Backend, req TrainQDMRequest) error {
	return s.logged("train_qdm", func() error {
		hist, err := readSliced(historical, req.Variable, req.SelSlices, req.ISelSlices)
		if err != nil {
			return fmt.Errorf("historical: %w", err)
		}
		ref, err := readSliced(reference, req.Variable, req.SelSlices, req.ISelSlices)
		if err != nil {
			return fmt.Errorf("reference: %w", err)
		}
		model, err := qdm.Train(hist, ref, req.Kind, qdm.TrainOptions{Workers: s.workers})
		if err != nil {
			return err
		}
		s.metrics.TrainingWindows.Add(float64(domain.DaysPerYear))
		return model.Save(out)
	})
}

// ApplyQDMRequest configures a QDM apply run.
type ApplyQDMRequest struct {
	Variable            string
	FirstYear, LastYear int
	SelSlices           []domain.LabelSlice
	ISelSlices          []domain.IndexSlice

	// OutRegion, when set, targets a region of an already-primed store;
	// otherwise a fresh store is created with the result's full extent.
	OutRegion []domain.IndexSlice

	RootAttrsJSON []byte
	NewAttrs      map[string]string
}

// ApplyQDM bias-corrects a simulation slice against a trained model and
// persists the result, either into a region of a primed store or as a new
// store.
func (s *Service) ApplyQDM(simulation, model, out store.Backend, req ApplyQDMRequest) error {
	return s.logged("apply_qdm", func() error {
		sim, err := readSliced(simulation, req.Variable, req.SelSlices, req.ISelSlices)
		if err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		m, err := qdm.Load(model)
		if err != nil {
			return err
		}
		adjusted, err := qdm.Apply(sim, m, qdm.ApplyOptions{
			FirstYear: req.FirstYear,
			LastYear:  req.LastYear,
			Workers:   s.workers,
		})
		if err != nil {
			return err
		}
		s.metrics.CellsAdjusted.Add(float64(m.Lat.Len() * m.Lon.Len()))

		adjusted.Attrs, err = mergeAttrs(adjusted.Attrs, req.RootAttrsJSON, req.NewAttrs)
		if err != nil {
			return err
		}
		return s.persistResult(out, req.Variable, req.OutRegion, adjusted)
	})
}

// persistResult writes an engine result either into a region of an existing
// primed store or as a new single-variable store.
func (s *Service) persistResult(out store.Backend, variable string, region []domain.IndexSlice, arr *domain.Array) error {
	if region != nil {
		ds, err := store.Open(out)
		if err != nil {
			return err
		}
		if err := ds.WriteRegion(variable, region, arr); err != nil {
			return err
		}
		s.metrics.RegionsWritten.Inc()
		return nil
	}
	ds, err := createFromArray(out, arr)
	if err != nil {
		return err
	}
	return ds.Write(variable, arr)
}

// createFromArray primes a store shaped exactly like arr, single chunk per
// dimension except time, which chunks per noleap year to keep later regional
// reads cheap.
func createFromArray(out store.Backend, arr *domain.Array) (*store.Dataset, error) {
	coords := make(map[string][]string, len(arr.Dims))
	chunks := make([]int, len(arr.Dims))
	for i, dim := range arr.Dims {
		coords[dim] = arr.Coords[dim].Labels
		chunks[i] = arr.Shape[i]
		if dim == "time" && arr.Shape[i]%domain.DaysPerYear == 0 {
			chunks[i] = domain.DaysPerYear
		}
	}
	meta := &store.Metadata{
		Dims:   arr.Dims,
		Coords: coords,
		Attrs:  arr.Attrs,
		Variables: map[string]store.VariableMeta{
			arr.Variable: {
				Dims:   arr.Dims,
				Shape:  arr.Shape,
				Chunks: chunks,
			},
		},
	}
	return store.Create(out, meta)
}

// readSliced opens a backend, reads one variable, and applies optional label
// then index selections.
func readSliced(backend store.Backend, variable string, sel []domain.LabelSlice, isel []domain.IndexSlice) (*domain.Array, error) {
	ds, err := store.Open(backend)
	if err != nil {
		return nil, err
	}
	arr, err := ds.Read(variable)
	if err != nil {
		return nil, err
	}
	if len(sel) > 0 {
		if arr, err = arr.Sel(sel...); err != nil {
			return nil, err
		}
	}
	if len(isel) > 0 {
		if arr, err = arr.ISel(isel...); err != nil {
			return nil, err
		}
	}
	return arr, nil
}
