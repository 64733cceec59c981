package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// IndexSlice is a half-open [Start, Stop) integer range on one dimension.
type IndexSlice struct {
	Dim   string
	Start int
	Stop  int
}

// LabelSlice is an inclusive label range on one dimension, resolved against a
// coordinate at use time.
type LabelSlice struct {
	Dim   string
	Start string
	Stop  string
}

// Resolve converts the label range into a half-open index range against c.
func (s LabelSlice) Resolve(c Coordinate) (IndexSlice, error) {
	start := c.Index(s.Start)
	if start < 0 {
		return IndexSlice{}, fmt.Errorf("label %q not found on %q", s.Start, s.Dim)
	}
	stop := c.Index(s.Stop)
	if stop < 0 {
		return IndexSlice{}, fmt.Errorf("label %q not found on %q", s.Stop, s.Dim)
	}
	if stop < start {
		return IndexSlice{}, fmt.Errorf("label range %q..%q on %q is reversed", s.Start, s.Stop, s.Dim)
	}
	return IndexSlice{Dim: s.Dim, Start: start, Stop: stop + 1}, nil
}

// splitSpec breaks "dim=start,stop" into its three parts.
func splitSpec(spec string) (dim, start, stop string, err error) {
	dim, rest, ok := strings.Cut(spec, "=")
	if !ok || dim == "" {
		return "", "", "", fmt.Errorf("selection %q: want dim=start,stop", spec)
	}
	start, stop, ok = strings.Cut(rest, ",")
	if !ok || start == "" || stop == "" {
		return "", "", "", fmt.Errorf("selection %q: want dim=start,stop", spec)
	}
	return dim, start, stop, nil
}

// ParseLabelSlices parses "dim=start,stop" label selections. Duplicate
// dimensions are rejected.
func ParseLabelSlices(specs []string) ([]LabelSlice, error) {
	seen := map[string]bool{}
	out := make([]LabelSlice, 0, len(specs))
	for _, spec := range specs {
		dim, start, stop, err := splitSpec(spec)
		if err != nil {
			return nil, err
		}
		if seen[dim] {
			return nil, fmt.Errorf("dimension %q selected twice", dim)
		}
		seen[dim] = true
		out = append(out, LabelSlice{Dim: dim, Start: start, Stop: stop})
	}
	return out, nil
}

// ParseIndexSlices parses "dim=start,stop" integer selections with half-open
// semantics. Duplicate dimensions are rejected.
func ParseIndexSlices(specs []string) ([]IndexSlice, error) {
	seen := map[string]bool{}
	out := make([]IndexSlice, 0, len(specs))
	for _, spec := range specs {
		dim, startStr, stopStr, err := splitSpec(spec)
		if err != nil {
			return nil, err
		}
		start, err1 := strconv.Atoi(startStr)
		stop, err2 := strconv.Atoi(stopStr)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("selection %q: bounds must be integers", spec)
		}
		if start < 0 || stop <= start {
			return nil, fmt.Errorf("selection %q: want 0 <= start < stop", spec)
		}
		if seen[dim] {
			return nil, fmt.Errorf("dimension %q selected twice", dim)
		}
		seen[dim] = true
		out = append(out, IndexSlice{Dim: dim, Start: start, Stop: stop})
	}
	return out, nil
}

// ParseAttrPairs parses "key=value" attribute overrides.
func ParseAttrPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("attribute %q: want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
