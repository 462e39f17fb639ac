package storage

import (
	"context"

	"strategy-research-lab/internal/domain"
)

// ScenarioStore provides access to scenario definition storage.
type ScenarioStore interface {
	// Insert adds a new definition. Returns ErrDuplicateKey if scenario_id exists.
	Insert(ctx context.Context, d *domain.ScenarioDefinition) error

	// GetByID retrieves a definition by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, scenarioID string) (*domain.ScenarioDefinition, error)

	// List retrieves all definitions, ordered by scenario_id ASC.
	List(ctx context.Context) ([]*domain.ScenarioDefinition, error)
}

// ResultStore provides access to scenario result storage.
type ResultStore interface {
	// InsertBulk adds all results of one scenario run atomically.
	// Fails entire batch on any duplicate result_id.
	InsertBulk(ctx context.Context, results []*domain.ScenarioResult) error

	// GetByScenarioID retrieves all results for a scenario, ordered by result_id ASC.
	GetByScenarioID(ctx context.Context, scenarioID string) ([]*domain.ScenarioResult, error)

	// List retrieves all results, ordered by result_id ASC.
	List(ctx context.Context) ([]*domain.ScenarioResult, error)
}

// ApplyEvidenceFunc recomputes the insight aggregate after an evidence
// event. current is the stored state, seq the sequence number assigned to
// the event being appended.
type ApplyEvidenceFunc func(current *domain.StrategyInsight, seq int64) (*domain.StrategyInsight, error)

// InsightStore provides append-only insight storage. Evidence events are
// journaled and never deleted; the aggregate row is superseded by newer
// evidence-derived state, never destructively edited.
type InsightStore interface {
	// CreateInsight adds a new insight. Returns ErrDuplicateKey if insight_id exists.
	CreateInsight(ctx context.Context, ins *domain.StrategyInsight) error

	// GetInsight retrieves the current aggregate state. Returns ErrNotFound if not exists.
	GetInsight(ctx context.Context, insightID string) (*domain.StrategyInsight, error)

	// ListInsights retrieves all insights, ordered by insight_id ASC.
	ListInsights(ctx context.Context) ([]*domain.StrategyInsight, error)

	// AppendEvidence atomically appends an evidence event and persists the
	// aggregate returned by apply. Event.Seq is assigned by the store,
	// strictly increasing per insight. Concurrent appends for the same
	// insight_id are serialized so no writer's evidence is lost.
	AppendEvidence(ctx context.Context, event *domain.EvidenceEvent, apply ApplyEvidenceFunc) error

	// ListEvidence retrieves the full journal for an insight, ordered by seq ASC.
	ListEvidence(ctx context.Context, insightID string) ([]*domain.EvidenceEvent, error)
}

// BarStore provides access to historical price bar storage.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp_ms).
	InsertBulk(ctx context.Context, bars []*domain.Bar) error

	// GetBySymbolRange retrieves bars for a symbol within [start, end] ms
	// (inclusive), ordered by timestamp ASC.
	GetBySymbolRange(ctx context.Context, symbol string, startMs, endMs int64) ([]*domain.Bar, error)
}

// IterationStore provides access to research-loop iteration artifacts.
type IterationStore interface {
	// Insert adds a new iteration record. Returns ErrDuplicateKey if iteration_id exists.
	Insert(ctx context.Context, rec *domain.IterationRecord) error

	// List retrieves all iteration records, ordered by number ASC.
	List(ctx context.Context) ([]*domain.IterationRecord, error)

	// Count returns the number of stored iterations.
	Count(ctx context.Context) (int, error)
}
