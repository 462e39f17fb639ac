package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// ScenarioStore is an in-memory implementation of storage.ScenarioStore.
type ScenarioStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScenarioDefinition // keyed by scenario_id
}

// NewScenarioStore creates a new in-memory scenario store.
func NewScenarioStore() *ScenarioStore {
	return &ScenarioStore{
		data: make(map[string]*domain.ScenarioDefinition),
	}
}

// Insert adds a new definition. Returns ErrDuplicateKey if scenario_id exists.
func (s *ScenarioStore) Insert(_ context.Context, d *domain.ScenarioDefinition) error {
	if d == nil || d.ScenarioID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ScenarioID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[d.ScenarioID] = copyDefinition(d)
	return nil
}

// GetByID retrieves a definition by its ID. Returns ErrNotFound if not exists.
func (s *ScenarioStore) GetByID(_ context.Context, scenarioID string) (*domain.ScenarioDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[scenarioID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyDefinition(d), nil
}

// List retrieves all definitions, ordered by scenario_id ASC.
func (s *ScenarioStore) List(_ context.Context) ([]*domain.ScenarioDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ScenarioDefinition, 0, len(s.data))
	for _, d := range s.data {
		result = append(result, copyDefinition(d))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ScenarioID < result[j].ScenarioID
	})
	return result, nil
}

// copyDefinition copies a definition including its slices, so callers
// cannot mutate stored state.
func copyDefinition(d *domain.ScenarioDefinition) *domain.ScenarioDefinition {
	cp := *d
	cp.Symbols = append([]string(nil), d.Symbols...)
	cp.ParamSets = append([]domain.ParameterSet(nil), d.ParamSets...)
	return &cp
}

var _ storage.ScenarioStore = (*ScenarioStore)(nil)
