package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/emileten/dodola/internal/domain"
)

// metadataKey is where the dataset's consolidated metadata document lives.
const metadataKey = ".zmeta"

// VariableMeta describes the geometry of one stored variable. Once written by
// Create, it is never modified: the chunk grid is fixed for the dataset's
// lifetime.
type VariableMeta struct {
	Dims   []string          `json:"dims"`
	Shape  []int             `json:"shape"`
	Chunks []int             `json:"chunks"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// Metadata is the consolidated dataset document: coordinates, global attrs,
// and per-variable geometry. It is written exactly once, before any data.
type Metadata struct {
	Format    int                     `json:"dodola_store_format"`
	Dims      []string                `json:"dims"`
	Coords    map[string][]string     `json:"coords"`
	Attrs     map[string]string       `json:"attrs,omitempty"`
	Variables map[string]VariableMeta `json:"variables"`
}

// formatVersion is the current on-disk metadata format.
const formatVersion = 1

// Validate checks internal consistency of the metadata document.
func (m *Metadata) Validate() error {
	if len(m.Variables) == 0 {
		return &domain.ConfigurationError{Msg: "dataset has no variables"}
	}
	for name, v := range m.Variables {
		if len(v.Dims) != len(v.Shape) || len(v.Dims) != len(v.Chunks) {
			return &domain.ConfigurationError{
				Msg: fmt.Sprintf("variable %q: dims/shape/chunks lengths differ", name),
			}
		}
		for i, d := range v.Dims {
			labels, ok := m.Coords[d]
			if !ok {
				return &domain.ConfigurationError{
					Msg: fmt.Sprintf("variable %q: dimension %q has no coordinate", name, d),
				}
			}
			if len(labels) != v.Shape[i] {
				return &domain.ConfigurationError{
					Msg: fmt.Sprintf("variable %q: coordinate %q has %d labels, shape wants %d",
						name, d, len(labels), v.Shape[i]),
				}
			}
			if v.Chunks[i] < 1 || v.Chunks[i] > v.Shape[i] {
				return &domain.ConfigurationError{
					Msg: fmt.Sprintf("variable %q: chunk size %d invalid for dimension %q of length %d",
						name, v.Chunks[i], d, v.Shape[i]),
				}
			}
		}
	}
	return nil
}

func (m *Metadata) encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func decodeMetadata(d []byte) (*Metadata, error) {
	m := &Metadata{}
	if err := json.Unmarshal(d, m); err != nil {
		return nil, fmt.Errorf("decode dataset metadata: %w", err)
	}
	if m.Format != formatVersion {
		return nil, fmt.Errorf("unsupported store format %d", m.Format)
	}
	return m, nil
}

// chunkKey names the chunk object for a variable at grid indices, using "."
// as the dimension separator, e.g. "tasmax/0.1.2". A 0-dimensional variable
// gets the single key "0".
func chunkKey(variable string, indices []int) string {
	if len(indices) == 0 {
		return variable + "/0"
	}
	parts := make([]string, len(indices))
	for i, ix := range indices {
		parts[i] = strconv.Itoa(ix)
	}
	return variable + "/" + strings.Join(parts, ".")
}
