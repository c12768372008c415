package db

import (
	"context"
	"log"
	"sync"

	"github.com/jonathan/kredible/internal/types"
)

// MemoryStore keeps records in a process-wide map. When a mirror is
// configured every mutation rewrites the mirror file so a development
// server can pick up where it left off after a restart. Mirror failures
// are logged, never returned.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*types.RecruiterRequest
	mirror  *Mirror
}

// NewMemoryStore creates an in-memory store. A non-empty mirrorPath enables
// the JSON mirror and restores any records it already holds.
func NewMemoryStore(mirrorPath string) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]*types.RecruiterRequest),
	}
	if mirrorPath == "" {
		return s
	}

	s.mirror = NewMirror(mirrorPath)
	restored, err := s.mirror.Load()
	if err != nil {
		log.Printf("[storage] Could not load mirror file %s: %v", mirrorPath, err)
		return s
	}
	for _, r := range restored {
		s.records[r.ID] = r
	}
	if len(restored) > 0 {
		log.Printf("[storage] Restored %d requests from %s", len(restored), mirrorPath)
	}
	return s
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, req *types.RecruiterRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[req.ID] = req.Clone()
	s.persistLocked()
	return nil
}

// FindByToken implements Store.
func (s *MemoryStore) FindByToken(_ context.Context, token string) (*types.RecruiterRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.Token == token {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

// ListAll implements Store.
func (s *MemoryStore) ListAll(_ context.Context) ([]*types.RecruiterRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.RecruiterRequest, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	sortByCreated(out)
	return out, nil
}

// ListCompleted implements Store.
func (s *MemoryStore) ListCompleted(_ context.Context) ([]*types.RecruiterRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.RecruiterRequest, 0)
	for _, r := range s.records {
		if r.IsCompleted() {
			out = append(out, r.Clone())
		}
	}
	sortByCreated(out)
	return out, nil
}

// CompletePending implements Store.
func (s *MemoryStore) CompletePending(_ context.Context, id string, data *types.CandidateData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != types.StatusPending {
		return ErrAlreadyCompleted
	}

	updated := r.Clone()
	updated.Status = types.StatusCompleted
	updated.CandidateData = (&types.RecruiterRequest{CandidateData: data}).Clone().CandidateData
	s.records[id] = updated
	s.persistLocked()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	s.persistLocked()
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*types.RecruiterRequest)
	s.persistLocked()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// persistLocked writes the full record set to the mirror. Callers hold s.mu.
func (s *MemoryStore) persistLocked() {
	if s.mirror == nil {
		return
	}
	snapshot := make([]*types.RecruiterRequest, 0, len(s.records))
	for _, r := range s.records {
		snapshot = append(snapshot, r)
	}
	sortByCreated(snapshot)

	if err := s.mirror.Write(snapshot); err != nil {
		log.Printf("[storage] Could not write mirror file %s: %v", s.mirror.Path(), err)
	}
}
