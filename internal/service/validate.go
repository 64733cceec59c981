package service

import (
	"encoding/json"

	"github.com/emileten/dodola/internal/store"
	"github.com/emileten/dodola/internal/validation"
)

// Validate runs the rule set for a classification against one variable of a
// dataset. Violations surface as a single ValidationError listing every
// failed rule; nothing is repaired.
func (s *Service) Validate(in store.Backend, variable, dataType, timePeriod string) error {
	return s.logged("validate", func() error {
		dt, err := validation.ParseDataType(dataType)
		if err != nil {
			return err
		}
		tp, err := validation.ParseTimePeriod(timePeriod)
		if err != nil {
			return err
		}
		ds, err := store.Open(in)
		if err != nil {
			return err
		}
		if err := validation.Validate(ds, variable, dt, tp); err != nil {
			s.metrics.ValidationErrors.Inc()
			return err
		}
		return nil
	})
}

// GetAttrs returns a JSON document of a dataset's global attrs, or of one
// variable's attrs when variable is nonempty.
func (s *Service) GetAttrs(in store.Backend, variable string) (string, error) {
	var doc string
	err := s.logged("get_attrs", func() error {
		ds, err := store.Open(in)
		if err != nil {
			return err
		}
		attrs := ds.Attrs()
		if variable != "" {
			v, err := ds.Variable(variable)
			if err != nil {
				return err
			}
			attrs = v.Attrs
		}
		raw, err := json.MarshalIndent(attrs, "", "  ")
		if err != nil {
			return err
		}
		doc = string(raw)
		return nil
	})
	return doc, err
}
