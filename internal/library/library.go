// Package library defines the read-only Design Library the pipeline resolves
// design references against.
package library

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/local/pagecomposer/internal/geometry"
)

var ErrNotFound = errors.New("design source not found")

// MasterImage is a raster snapshot of a source used for verbatim reproduction.
type MasterImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Variant is a device specific capture of the same source.
type Variant struct {
	Elements    []geometry.Element `json:"elements"`
	MasterImage *MasterImage       `json:"masterImage,omitempty"`
}

type Source struct {
	ID          string             `json:"id"`
	Elements    []geometry.Element `json:"elements"`
	MasterImage *MasterImage       `json:"masterImage,omitempty"`
	Variants    map[string]Variant `json:"variants,omitempty"`
}

// VariantError reports a device variant the source was not captured with.
type VariantError struct {
	SourceID string
	Variant  string
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("source %s has no %q variant", e.SourceID, e.Variant)
}

// Tree returns the element tree and master image for a variant. An empty
// variant name selects the base capture.
func (s Source) Tree(variant string) ([]geometry.Element, *MasterImage, error) {
	if variant == "" {
		return s.Elements, s.MasterImage, nil
	}
	v, ok := s.Variants[variant]
	if !ok {
		return nil, nil, &VariantError{SourceID: s.ID, Variant: variant}
	}
	return v.Elements, v.MasterImage, nil
}

// Library looks sources up by id. Implementations return ErrNotFound (possibly
// wrapped) for unknown ids.
type Library interface {
	GetSource(ctx context.Context, sourceID string) (Source, error)
}

// Memory is an in-process Library.
type Memory struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func NewMemory(sources ...Source) *Memory {
	m := &Memory{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		m.sources[s.ID] = s
	}
	return m
}

func (m *Memory) Put(s Source) {
	m.mu.Lock()
	m.sources[s.ID] = s
	m.mu.Unlock()
}

func (m *Memory) Delete(id string) {
	m.mu.Lock()
	delete(m.sources, id)
	m.mu.Unlock()
}

func (m *Memory) GetSource(ctx context.Context, sourceID string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	m.mu.RLock()
	s, ok := m.sources[sourceID]
	m.mu.RUnlock()
	if !ok {
		return Source{}, fmt.Errorf("%w: %s", ErrNotFound, sourceID)
	}
	return s, nil
}
