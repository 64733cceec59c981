package qplad

import (
	"fmt"
	"strconv"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/store"
)

// Model store layout: variables "coarse_q" and "af" over (lat, lon,
// dayofyear, quantile) on the fine grid, plus "dry_fraction" over (lat, lon).

const (
	coarseVar = "coarse_q"
	afVar     = "af"
	dryVar    = "dry_fraction"
)

// Save persists a trained model as its own dataset on the backend.
func (m *Model) Save(backend store.Backend) error {
	nq := len(m.Probs)
	doyLabels := make([]string, domain.DaysPerYear)
	for i := range doyLabels {
		doyLabels[i] = strconv.Itoa(i + 1)
	}
	quantCoord := domain.FloatCoordinate("quantile", m.Probs)

	qShape := []int{m.Lat.Len(), m.Lon.Len(), domain.DaysPerYear, nq}
	qMeta := store.VariableMeta{
		Dims:   []string{"lat", "lon", "dayofyear", "quantile"},
		Shape:  qShape,
		Chunks: append([]int(nil), qShape...),
	}
	dryMeta := store.VariableMeta{
		Dims:   []string{"lat", "lon"},
		Shape:  []int{m.Lat.Len(), m.Lon.Len()},
		Chunks: []int{m.Lat.Len(), m.Lon.Len()},
	}
	meta := &store.Metadata{
		Dims: qMeta.Dims,
		Coords: map[string][]string{
			"lat":       m.Lat.Labels,
			"lon":       m.Lon.Labels,
			"dayofyear": doyLabels,
			"quantile":  quantCoord.Labels,
		},
		Attrs: map[string]string{
			"method": "QPLAD",
			"kind":   string(m.Kind),
		},
		Variables: map[string]store.VariableMeta{
			coarseVar: qMeta,
			afVar:     qMeta,
			dryVar:    dryMeta,
		},
	}
	ds, err := store.Create(backend, meta)
	if err != nil {
		return fmt.Errorf("create qplad model store: %w", err)
	}

	coords := map[string]domain.Coordinate{
		"lat":       m.Lat,
		"lon":       m.Lon,
		"dayofyear": {Name: "dayofyear", Labels: doyLabels},
		"quantile":  quantCoord,
	}
	for name, table := range map[string][]float64{coarseVar: m.CoarseQ, afVar: m.AF} {
		arr, err := domain.NewArray(name, qMeta.Dims, coords)
		if err != nil {
			return err
		}
		copy(arr.Values, table)
		if err := ds.Write(name, arr); err != nil {
			return fmt.Errorf("write qplad model %s: %w", name, err)
		}
	}
	dry, err := domain.NewArray(dryVar, dryMeta.Dims, coords)
	if err != nil {
		return err
	}
	copy(dry.Values, m.DryFraction)
	if err := ds.Write(dryVar, dry); err != nil {
		return fmt.Errorf("write qplad model %s: %w", dryVar, err)
	}
	return nil
}

// Load reads a trained model back from its dataset.
func Load(backend store.Backend) (*Model, error) {
	ds, err := store.Open(backend)
	if err != nil {
		return nil, fmt.Errorf("open qplad model store: %w", err)
	}
	kind, err := domain.ParseKind(ds.Attrs()["kind"])
	if err != nil {
		return nil, fmt.Errorf("qplad model store: %w", err)
	}
	coarse, err := ds.Read(coarseVar)
	if err != nil {
		return nil, err
	}
	af, err := ds.Read(afVar)
	if err != nil {
		return nil, err
	}
	dry, err := ds.Read(dryVar)
	if err != nil {
		return nil, err
	}
	quantCoord := coarse.Coords["quantile"]
	probs := make([]float64, quantCoord.Len())
	for i := range probs {
		if probs[i], err = quantCoord.Float(i); err != nil {
			return nil, err
		}
	}
	return &Model{
		Kind:        kind,
		Probs:       probs,
		Lat:         coarse.Coords["lat"],
		Lon:         coarse.Coords["lon"],
		CoarseQ:     coarse.Values,
		AF:          af.Values,
		DryFraction: dry.Values,
	}, nil
}
