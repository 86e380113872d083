// Package memory provides the default in-process checkpoint store. One
// Saver instance backs the workflow for the lifetime of a session; a web
// reset simply creates a new one.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/fathom/pkg/domain"
)

// Saver implements ports.CheckpointStore with an in-memory map.
type Saver struct {
	mu      sync.RWMutex
	threads map[string]domain.History
}

// NewSaver creates an empty in-memory checkpoint store.
func NewSaver() *Saver {
	return &Saver{threads: make(map[string]domain.History)}
}

// Save stores an independent copy of the transcript under threadID.
func (s *Saver) Save(ctx context.Context, threadID string, history domain.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[threadID] = history.Clone()
	return nil
}

// Load returns a copy of the transcript for threadID.
func (s *Saver) Load(ctx context.Context, threadID string) (domain.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.threads[threadID]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return history.Clone(), nil
}

// Delete removes the transcript for threadID. Deleting an unknown id is a
// no-op.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	return nil
}

// List returns all known thread ids in deterministic order.
func (s *Saver) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
