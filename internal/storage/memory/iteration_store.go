package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// IterationStore is an in-memory implementation of storage.IterationStore.
type IterationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.IterationRecord // keyed by iteration_id
}

// NewIterationStore creates a new in-memory iteration store.
func NewIterationStore() *IterationStore {
	return &IterationStore{
		data: make(map[string]*domain.IterationRecord),
	}
}

// Insert adds a new iteration record. Returns ErrDuplicateKey if iteration_id exists.
func (s *IterationStore) Insert(_ context.Context, rec *domain.IterationRecord) error {
	if rec == nil || rec.IterationID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.IterationID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[rec.IterationID] = copyIteration(rec)
	return nil
}

// List retrieves all iteration records, ordered by number ASC.
func (s *IterationStore) List(_ context.Context) ([]*domain.IterationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.IterationRecord, 0, len(s.data))
	for _, rec := range s.data {
		result = append(result, copyIteration(rec))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Number < result[j].Number
	})
	return result, nil
}

// Count returns the number of stored iterations.
func (s *IterationStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

func copyIteration(rec *domain.IterationRecord) *domain.IterationRecord {
	cp := *rec
	cp.ScenarioIDs = append([]string(nil), rec.ScenarioIDs...)
	cp.ResultIDs = append([]string(nil), rec.ResultIDs...)
	cp.InsightIDs = append([]string(nil), rec.InsightIDs...)
	cp.FailedScenarios = append([]string(nil), rec.FailedScenarios...)
	return &cp
}

var _ storage.IterationStore = (*IterationStore)(nil)
