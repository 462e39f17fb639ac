package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScenarioResult // keyed by result_id
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string]*domain.ScenarioResult),
	}
}

// InsertBulk adds all results of one scenario run atomically.
// Fails entire batch on any duplicate result_id.
func (s *ResultStore) InsertBulk(_ context.Context, results []*domain.ScenarioResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(results))

	for _, r := range results {
		if r == nil || r.ResultID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ResultID] = struct{}{}
	}

	for _, r := range results {
		s.data[r.ResultID] = copyResult(r)
	}
	return nil
}

// GetByScenarioID retrieves all results for a scenario, ordered by result_id ASC.
func (s *ResultStore) GetByScenarioID(_ context.Context, scenarioID string) ([]*domain.ScenarioResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScenarioResult
	for _, r := range s.data {
		if r.ScenarioID == scenarioID {
			result = append(result, copyResult(r))
		}
	}
	sortResults(result)
	return result, nil
}

// List retrieves all results, ordered by result_id ASC.
func (s *ResultStore) List(_ context.Context) ([]*domain.ScenarioResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ScenarioResult, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyResult(r))
	}
	sortResults(result)
	return result, nil
}

func sortResults(results []*domain.ScenarioResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].ResultID < results[j].ResultID
	})
}

func copyResult(r *domain.ScenarioResult) *domain.ScenarioResult {
	cp := *r
	cp.Fills = append([]domain.TradeFill(nil), r.Fills...)
	return &cp
}

var _ storage.ResultStore = (*ResultStore)(nil)
