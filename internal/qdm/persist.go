package qdm

import (
	"fmt"
	"strconv"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/store"
)

// Model store layout: variables "hist_q" and "ref_q" over dimensions
// (lat, lon, dayofyear, quantile), single-chunk, with the kind recorded as a
// global attribute. The flat value order matches the in-memory tables, so
// persistence is a straight copy.

const (
	histVar = "hist_q"
	refVar  = "ref_q"
)

// Save persists a trained model as its own dataset on the backend.
func (m *Model) Save(backend store.Backend) error {
	nq := len(m.Probs)
	shape := []int{m.Lat.Len(), m.Lon.Len(), domain.DaysPerYear, nq}
	doyLabels := make([]string, domain.DaysPerYear)
	for i := range doyLabels {
		doyLabels[i] = strconv.Itoa(i + 1)
	}
	quantCoord := domain.FloatCoordinate("quantile", m.Probs)

	vmeta := store.VariableMeta{
		Dims:   []string{"lat", "lon", "dayofyear", "quantile"},
		Shape:  shape,
		Chunks: append([]int(nil), shape...),
	}
	meta := &store.Metadata{
		Dims: vmeta.Dims,
		Coords: map[string][]string{
			"lat":       m.Lat.Labels,
			"lon":       m.Lon.Labels,
			"dayofyear": doyLabels,
			"quantile":  quantCoord.Labels,
		},
		Attrs: map[string]string{
			"method": "QDM",
			"kind":   string(m.Kind),
		},
		Variables: map[string]store.VariableMeta{histVar: vmeta, refVar: vmeta},
	}
	ds, err := store.Create(backend, meta)
	if err != nil {
		return fmt.Errorf("create qdm model store: %w", err)
	}
	for name, table := range map[string][]float64{histVar: m.HistQ, refVar: m.RefQ} {
		arr, err := domain.NewArray(name, vmeta.Dims, map[string]domain.Coordinate{
			"lat":       m.Lat,
			"lon":       m.Lon,
			"dayofyear": {Name: "dayofyear", Labels: doyLabels},
			"quantile":  quantCoord,
		})
		if err != nil {
			return err
		}
		copy(arr.Values, table)
		if err := ds.Write(name, arr); err != nil {
			return fmt.Errorf("write qdm model %s: %w", name, err)
		}
	}
	return nil
}

// Load reads a trained model back from its dataset.
func Load(backend store.Backend) (*Model, error) {
	ds, err := store.Open(backend)
	if err != nil {
		return nil, fmt.Errorf("open qdm model store: %w", err)
	}
	kind, err := domain.ParseKind(ds.Attrs()["kind"])
	if err != nil {
		return nil, fmt.Errorf("qdm model store: %w", err)
	}
	hist, err := ds.Read(histVar)
	if err != nil {
		return nil, err
	}
	ref, err := ds.Read(refVar)
	if err != nil {
		return nil, err
	}
	quantCoord := hist.Coords["quantile"]
	probs := make([]float64, quantCoord.Len())
	for i := range probs {
		if probs[i], err = quantCoord.Float(i); err != nil {
			return nil, err
		}
	}
	return &Model{
		Kind:  kind,
		Probs: probs,
		Lat:   hist.Coords["lat"],
		Lon:   hist.Coords["lon"],
		HistQ: hist.Values,
		RefQ:  ref.Values,
	}, nil
}
