package rlm

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/google/uuid"
)

// defaultRegistryCapacity bounds how many folds a long-running orchestrator
// keeps live at once. Long task histories would otherwise leak folds
// forever; evicting the least-recently-used one caps memory instead.
const defaultRegistryCapacity = 512

// FoldRegistry is a bounded, concurrency-safe store of live ContextFolds
// keyed by id, with least-recently-used eviction once full.
type FoldRegistry struct {
	cache *lru.Cache[uuid.UUID, *ContextFold]
}

// NewFoldRegistry constructs a registry capped at capacity folds. A
// non-positive capacity falls back to defaultRegistryCapacity.
func NewFoldRegistry(capacity int) (*FoldRegistry, error) {
	if capacity <= 0 {
		capacity = defaultRegistryCapacity
	}
	cache, err := lru.New[uuid.UUID, *ContextFold](capacity)
	if err != nil {
		return nil, fmt.Errorf("rlm: new fold registry: %w", err)
	}
	return &FoldRegistry{cache: cache}, nil
}

// Put registers a fold, evicting the least-recently-used entry if the
// registry is at capacity.
func (r *FoldRegistry) Put(fold *ContextFold) {
	r.cache.Add(fold.ID, fold)
}

// Get retrieves a fold by id, marking it most-recently-used.
func (r *FoldRegistry) Get(id uuid.UUID) (*ContextFold, bool) {
	return r.cache.Get(id)
}

// Remove evicts a fold explicitly (e.g. once its owning task completes).
func (r *FoldRegistry) Remove(id uuid.UUID) {
	r.cache.Remove(id)
}

// Len returns the number of folds currently held.
func (r *FoldRegistry) Len() int {
	return r.cache.Len()
}
