package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// InsightStore is an in-memory implementation of storage.InsightStore.
// Evidence events are journaled per insight; appends for the same
// insight_id are serialized by a per-id lock so the recompute-and-store
// update is atomic.
type InsightStore struct {
	mu       sync.RWMutex
	insights map[string]*domain.StrategyInsight // keyed by insight_id
	journal  map[string][]*domain.EvidenceEvent // keyed by insight_id, seq ASC
	locks    map[string]*sync.Mutex             // per-insight append locks
}

// NewInsightStore creates a new in-memory insight store.
func NewInsightStore() *InsightStore {
	return &InsightStore{
		insights: make(map[string]*domain.StrategyInsight),
		journal:  make(map[string][]*domain.EvidenceEvent),
		locks:    make(map[string]*sync.Mutex),
	}
}

// CreateInsight adds a new insight. Returns ErrDuplicateKey if insight_id exists.
func (s *InsightStore) CreateInsight(_ context.Context, ins *domain.StrategyInsight) error {
	if ins == nil || ins.InsightID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.insights[ins.InsightID]; exists {
		return storage.ErrDuplicateKey
	}
	s.insights[ins.InsightID] = copyInsight(ins)
	return nil
}

// GetInsight retrieves the current aggregate state. Returns ErrNotFound if not exists.
func (s *InsightStore) GetInsight(_ context.Context, insightID string) (*domain.StrategyInsight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ins, exists := s.insights[insightID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyInsight(ins), nil
}

// ListInsights retrieves all insights, ordered by insight_id ASC.
func (s *InsightStore) ListInsights(_ context.Context) ([]*domain.StrategyInsight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.StrategyInsight, 0, len(s.insights))
	for _, ins := range s.insights {
		result = append(result, copyInsight(ins))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].InsightID < result[j].InsightID
	})
	return result, nil
}

// AppendEvidence atomically appends an evidence event and persists the
// aggregate returned by apply. Seq is assigned here, strictly increasing
// per insight.
func (s *InsightStore) AppendEvidence(_ context.Context, event *domain.EvidenceEvent, apply storage.ApplyEvidenceFunc) error {
	if event == nil || event.InsightID == "" {
		return storage.ErrInvalidInput
	}

	lock := s.insightLock(event.InsightID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current, exists := s.insights[event.InsightID]
	var currentCopy *domain.StrategyInsight
	if exists {
		currentCopy = copyInsight(current)
	}
	seq := int64(len(s.journal[event.InsightID])) + 1
	s.mu.RUnlock()

	if !exists {
		return storage.ErrNotFound
	}

	updated, err := apply(currentCopy, seq)
	if err != nil {
		return err
	}
	if updated == nil || updated.InsightID != event.InsightID {
		return storage.ErrInvalidInput
	}

	evCopy := *event
	evCopy.Seq = seq

	s.mu.Lock()
	s.journal[event.InsightID] = append(s.journal[event.InsightID], &evCopy)
	s.insights[event.InsightID] = copyInsight(updated)
	s.mu.Unlock()

	return nil
}

// ListEvidence retrieves the full journal for an insight, ordered by seq ASC.
func (s *InsightStore) ListEvidence(_ context.Context, insightID string) ([]*domain.EvidenceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.journal[insightID]
	result := make([]*domain.EvidenceEvent, len(events))
	for i, e := range events {
		cp := *e
		result[i] = &cp
	}
	return result, nil
}

// insightLock returns the per-insight append lock, creating it on first use.
func (s *InsightStore) insightLock(insightID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, exists := s.locks[insightID]
	if !exists {
		lock = &sync.Mutex{}
		s.locks[insightID] = lock
	}
	return lock
}

func copyInsight(ins *domain.StrategyInsight) *domain.StrategyInsight {
	cp := *ins
	cp.ScenarioIDs = append([]string(nil), ins.ScenarioIDs...)
	cp.RegimeKeys = append([]string(nil), ins.RegimeKeys...)
	cp.Confidence.RegimeCoverage = append([]string(nil), ins.Confidence.RegimeCoverage...)
	return &cp
}

var _ storage.InsightStore = (*InsightStore)(nil)
