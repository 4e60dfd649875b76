// Package storage holds ingested chunks in memory for one run and writes them
// to the JSONL and human-readable output artifacts.
package storage

import (
	"sync"

	"github.com/mvp-joe/code-ingest/internal/chunk"
)

// Aggregator accumulates file chunks into named scopes, such as
// "python_files" or "yii2_models". Entries are appended as given: nothing is
// deduplicated or bounded, and scopes are created on first write.
type Aggregator struct {
	mu     sync.RWMutex
	scopes map[string][]*chunk.Chunk
	order  []string
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{scopes: make(map[string][]*chunk.Chunk)}
}

// Add appends entries to scope, creating it if absent.
func (a *Aggregator) Add(scope string, entries ...*chunk.Chunk) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.scopes[scope]; !ok {
		a.order = append(a.order, scope)
		a.scopes[scope] = nil
	}
	a.scopes[scope] = append(a.scopes[scope], entries...)
}

// Reset empties one scope. The scope itself remains known.
func (a *Aggregator) Reset(scope string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.scopes[scope]; ok {
		a.scopes[scope] = nil
	}
}

// ClearAll empties every scope.
func (a *Aggregator) ClearAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for scope := range a.scopes {
		a.scopes[scope] = nil
	}
}

// Get returns a copy of scope's entries in insertion order.
// Unknown scopes yield an empty list.
func (a *Aggregator) Get(scope string) []*chunk.Chunk {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries := a.scopes[scope]
	out := make([]*chunk.Chunk, len(entries))
	copy(out, entries)
	return out
}

// Scopes returns scope names in creation order.
func (a *Aggregator) Scopes() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Len returns the number of entries across all scopes.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	for _, entries := range a.scopes {
		n += len(entries)
	}
	return n
}
