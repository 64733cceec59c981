package service

import (
	"fmt"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/qplad"
	"github.com/emileten/dodola/internal/store"
)

// TrainQPLADRequest configures a QPLAD training run.
type TrainQPLADRequest struct {
	Variable   string
	Kind       domain.Kind
	SelSlices  []domain.LabelSlice
	ISelSlices []domain.IndexSlice
}

// TrainQPLAD derives per-fine-cell adjustment factors from paired coarse and
// fine reference series and persists the model to out.
func (s *Service) TrainQPLAD(coarseReference, fineReference, out store.Backend, req TrainQPLADRequest) error {
	return s.logged("train_qplad", func() error {
		coarse, err := readSliced(coarseReference, req.Variable, req.SelSlices, req.ISelSlices)
		if err != nil {
			return fmt.Errorf("coarse reference: %w", err)
		}
		fine, err := readSliced(fineReference, req.Variable, req.SelSlices, req.ISelSlices)
		if err != nil {
			return fmt.Errorf("fine reference: %w", err)
		}
		model, err := qplad.Train(coarse, fine, req.Kind, qplad.TrainOptions{Workers: s.workers})
		if err != nil {
			return err
		}
		s.metrics.TrainingWindows.Add(float64(domain.DaysPerYear))
		return model.Save(out)
	})
}

// ApplyQPLADRequest configures a QPLAD apply run.
type ApplyQPLADRequest struct {
	Variable   string
	SelSlices  []domain.LabelSlice
	ISelSlices []domain.IndexSlice

	// WetDayPostCorrection restores the fine reference's dry-day fraction
	// after the analog adjustment; for precipitation-like variables only.
	WetDayPostCorrection bool

	// OutRegion, when set, targets a region of an already-primed store.
	OutRegion []domain.IndexSlice

	RootAttrsJSON []byte
	NewAttrs      map[string]string
}

// ApplyQPLAD downscales a bias-corrected simulation onto the model's fine
// grid and persists the result.
func (s *Service) ApplyQPLAD(simulation, model, out store.Backend, req ApplyQPLADRequest) error {
	return s.logged("apply_qplad", func() error {
		sim, err := readSliced(simulation, req.Variable, req.SelSlices, req.ISelSlices)
		if err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		m, err := qplad.Load(model)
		if err != nil {
			return err
		}
		downscaled, err := qplad.Apply(sim, m, qplad.ApplyOptions{
			Workers:              s.workers,
			WetDayPostCorrection: req.WetDayPostCorrection,
		})
		if err != nil {
			return err
		}
		s.metrics.CellsAdjusted.Add(float64(m.Lat.Len() * m.Lon.Len()))

		downscaled.Attrs, err = mergeAttrs(downscaled.Attrs, req.RootAttrsJSON, req.NewAttrs)
		if err != nil {
			return err
		}
		return s.persistResult(out, req.Variable, req.OutRegion, downscaled)
	})
}
