// Package collection holds the generic list-resource controller: load a
// collection from a fetch function, keep the snapshot, filter it, and
// round-trip saves through a reload.
package collection

import (
	"context"
	"log"
	"sync"
)

// Result is the tagged outcome of one load: either Records or Err is
// meaningful, never both.
type Result[T any] struct {
	Records []T
	Err     error
}

// Ok reports whether the load succeeded.
func (r Result[T]) Ok() bool { return r.Err == nil }

// FetchFunc loads the full collection from the upstream API.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Controller manages one named collection. It is safe for concurrent use;
// the zero value is not usable, construct with NewController.
type Controller[T any] struct {
	name  string
	fetch FetchFunc[T]

	mu      sync.Mutex
	records []T
	loaded  bool
}

// NewController creates a controller for the named collection backed by the
// given fetch function. The name only appears in logs.
func NewController[T any](name string, fetch FetchFunc[T]) *Controller[T] {
	return &Controller[T]{name: name, fetch: fetch}
}

// Load fetches the collection and replaces the snapshot. Failures empty the
// snapshot, log the cause and return a tagged result carrying the error, so
// one broken collection renders as empty with a notice while the others
// render normally.
func (c *Controller[T]) Load(ctx context.Context) Result[T] {
	records, err := c.fetch(ctx)
	if err != nil {
		log.Printf("[collection] loading %s failed: %v", c.name, err)
		c.mu.Lock()
		c.records = []T{}
		c.mu.Unlock()
		return Result[T]{Records: []T{}, Err: err}
	}
	if records == nil {
		records = []T{}
	}

	c.mu.Lock()
	c.records = records
	c.loaded = true
	c.mu.Unlock()

	return Result[T]{Records: records}
}

// Snapshot returns the records of the last load, or an empty slice before
// any load and after a failed one. Never nil.
func (c *Controller[T]) Snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// Loaded reports whether at least one load has succeeded.
func (c *Controller[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Len returns the size of the current snapshot.
func (c *Controller[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Search filters the snapshot to records whose string fields contain the
// query, case-insensitively. An empty query returns the whole snapshot.
func (c *Controller[T]) Search(query string) []T {
	return Filter(c.Snapshot(), query)
}

// SaveThenReload runs the mutation and, when it succeeds, reloads the
// collection so the snapshot reflects the server's state. The mutation
// error wins; a reload failure after a successful save is only logged.
func (c *Controller[T]) SaveThenReload(ctx context.Context, save func(ctx context.Context) error) error {
	if err := save(ctx); err != nil {
		return err
	}
	if result := c.Load(ctx); result.Err != nil {
		log.Printf("[collection] reload of %s after save failed: %v", c.name, result.Err)
	}
	return nil
}
