package storage

import (
	"sync"

	"github.com/mvp-joe/code-ingest/internal/chunk"
)

// QAStore collects generated question/answer pairs for the whole run.
// It is written once as <prefix>_qa_global.jsonl.
type QAStore struct {
	mu    sync.Mutex
	pairs []chunk.QAPair
}

// NewQAStore creates an empty store.
func NewQAStore() *QAStore {
	return &QAStore{}
}

// Add appends pairs in order.
func (s *QAStore) Add(pairs ...chunk.QAPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = append(s.pairs, pairs...)
}

// All returns a copy of every pair collected so far.
func (s *QAStore) All() []chunk.QAPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chunk.QAPair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Len returns the number of collected pairs.
func (s *QAStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pairs)
}

// Reset discards every pair.
func (s *QAStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = nil
}
