package service

import (
	"math/rand"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/postprocess"
	"github.com/emileten/dodola/internal/store"
)

// CorrectWetDayFrequency applies the "pre" (jitter under threshold) or
// "post" (zero under threshold) wet-day treatment to one variable of a
// store, writing a new store.
func (s *Service) CorrectWetDayFrequency(in, out store.Backend, variable, process string) error {
	return s.logged("correct_wetday_frequency", func() error {
		return s.transform(in, out, variable, func(arr *domain.Array) (*domain.Array, error) {
			rng := rand.New(rand.NewSource(s.seed))
			return postprocess.CorrectWetDayFrequency(arr, process, rng)
		})
	})
}

// ApplyDTRFloor clips diurnal temperature range below floor, writing a new
// store.
func (s *Service) ApplyDTRFloor(in, out store.Backend, variable string, floor float64) error {
	return s.logged("apply_dtr_floor", func() error {
		return s.transform(in, out, variable, func(arr *domain.Array) (*domain.Array, error) {
			return postprocess.ApplyDTRFloor(arr, floor), nil
		})
	})
}

// ApplyNonPolarDTRCeiling clips diurnal temperature range above ceiling
// within the non-polar band, writing a new store.
func (s *Service) ApplyNonPolarDTRCeiling(in, out store.Backend, variable string, ceiling float64) error {
	return s.logged("apply_non_polar_dtr_ceiling", func() error {
		return s.transform(in, out, variable, func(arr *domain.Array) (*domain.Array, error) {
			return postprocess.ApplyNonPolarDTRCeiling(arr, ceiling)
		})
	})
}

// AdjustMaximumPrecipitation clips precipitation above threshold, writing a
// new store.
func (s *Service) AdjustMaximumPrecipitation(in, out store.Backend, variable string, threshold float64) error {
	return s.logged("adjust_maximum_precipitation", func() error {
		return s.transform(in, out, variable, func(arr *domain.Array) (*domain.Array, error) {
			return postprocess.AdjustMaximumPrecipitation(arr, threshold), nil
		})
	})
}

// transform reads one variable, applies fn, and writes the result as a new
// single-variable store.
func (s *Service) transform(in, out store.Backend, variable string, fn func(*domain.Array) (*domain.Array, error)) error {
	arr, err := readSliced(in, variable, nil, nil)
	if err != nil {
		return err
	}
	result, err := fn(arr)
	if err != nil {
		return err
	}
	ds, err := createFromArray(out, result)
	if err != nil {
		return err
	}
	return ds.Write(variable, result)
}
