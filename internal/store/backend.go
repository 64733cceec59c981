// Package store implements a persisted, chunked, labeled-array dataset:
// metadata-only creation, coordinate-indexed region reads, and chunk-aligned
// region writes. The on-disk layout follows the zarr convention of one JSON
// metadata document plus one compressed binary object per chunk, keyed
// "variable/i.j.k". Region writes touch whole chunks only, which is what lets
// independent processes fill disjoint regions of one dataset without
// coordinating.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound marks a missing key. Chunk reads translate it into fill values;
// everything else propagates it.
var ErrNotFound = errors.New("not found")

// Backend is a flat key/value object store. Implementations must make Put
// atomic per key: a reader never observes a half-written object.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, val []byte) error
}

// MemoryBackend is an in-process Backend for tests and small runs.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: map[string][]byte{}}
}

func (b *MemoryBackend) Get(key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	out := make([]byte, len(d))
	copy(out, d)
	return out, nil
}

func (b *MemoryBackend) Put(key string, val []byte) error {
	d := make([]byte, len(val))
	copy(d, val)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = d
	return nil
}

// LocalBackend stores objects as files under a base directory. Writes go
// through a rename so concurrent readers never see partial chunks.
type LocalBackend struct {
	base string
}

var _ Backend = (*LocalBackend)(nil)

// NewLocalBackend creates the base directory if needed.
func NewLocalBackend(base string) (*LocalBackend, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &LocalBackend{base: base}, nil
}

func (b *LocalBackend) Get(key string) ([]byte, error) {
	d, err := os.ReadFile(filepath.Join(b.base, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return d, err
}

func (b *LocalBackend) Put(key string, val []byte) error {
	path := filepath.Join(b.base, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(val); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
