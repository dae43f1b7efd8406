package revalidate

import (
	"context"
	"sync"
)

// CacheInvalidator is the capability the revalidation endpoint delegates to.
// The real cache (storage, eviction, recompute-on-access) lives in the render
// tier; this service only marks entries stale. Implementations must be
// idempotent — re-invalidating a fresh entry is a no-op.
type CacheInvalidator interface {
	InvalidatePath(ctx context.Context, path string) error
	InvalidateTag(ctx context.Context, tag string) error
}

// MemoryInvalidator records stale markers in memory. It backs the endpoint
// when this process fronts the render tier directly, and doubles as the test
// double for the handler.
type MemoryInvalidator struct {
	mu    sync.Mutex
	paths map[string]int
	tags  map[string]int
}

// NewMemoryInvalidator returns an empty MemoryInvalidator.
func NewMemoryInvalidator() *MemoryInvalidator {
	return &MemoryInvalidator{
		paths: make(map[string]int),
		tags:  make(map[string]int),
	}
}

func (m *MemoryInvalidator) InvalidatePath(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[path]++
	return nil
}

func (m *MemoryInvalidator) InvalidateTag(_ context.Context, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[tag]++
	return nil
}

// PathCount returns how many times path has been invalidated.
func (m *MemoryInvalidator) PathCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paths[path]
}

// TagCount returns how many times tag has been invalidated.
func (m *MemoryInvalidator) TagCount(tag string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tags[tag]
}
