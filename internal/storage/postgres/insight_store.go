package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// InsightStore implements storage.InsightStore using PostgreSQL. Evidence
// appends are serialized per insight with a row lock, so concurrent
// writers queue instead of losing each other's evidence.
type InsightStore struct {
	pool *Pool
}

// NewInsightStore creates a new InsightStore.
func NewInsightStore(pool *Pool) *InsightStore {
	return &InsightStore{pool: pool}
}

// Compile-time interface check.
var _ storage.InsightStore = (*InsightStore)(nil)

// CreateInsight adds a new insight. Returns ErrDuplicateKey if insight_id exists.
func (s *InsightStore) CreateInsight(ctx context.Context, ins *domain.StrategyInsight) error {
	query := `
		INSERT INTO insights (
			insight_id, insight_type, description, scenario_ids, regime_keys,
			num_supporting_scenarios, regime_coverage, parameter_robustness,
			contradiction_count, has_been_contradicted,
			confidence_score, is_weak, evidence_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query, insightArgs(ins)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

// GetInsight retrieves the current aggregate state. Returns ErrNotFound if not exists.
func (s *InsightStore) GetInsight(ctx context.Context, insightID string) (*domain.StrategyInsight, error) {
	row := s.pool.QueryRow(ctx, selectInsights+` WHERE insight_id = $1`, insightID)
	ins, err := scanInsight(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get insight by id: %w", err)
	}
	return ins, nil
}

// ListInsights retrieves all insights, ordered by insight_id ASC.
func (s *InsightStore) ListInsights(ctx context.Context) ([]*domain.StrategyInsight, error) {
	rows, err := s.pool.Query(ctx, selectInsights+` ORDER BY insight_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var insights []*domain.StrategyInsight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insight row: %w", err)
		}
		insights = append(insights, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insight rows: %w", err)
	}
	return insights, nil
}

// AppendEvidence atomically appends an evidence event and persists the
// aggregate returned by apply. The aggregate row is locked FOR UPDATE for
// the duration, which serializes concurrent appends per insight_id.
func (s *InsightStore) AppendEvidence(ctx context.Context, event *domain.EvidenceEvent, apply storage.ApplyEvidenceFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, selectInsights+` WHERE insight_id = $1 FOR UPDATE`, event.InsightID)
	current, err := scanInsight(row)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		if isConflictError(err) {
			return fmt.Errorf("lock insight: %w", storage.ErrConflict)
		}
		return fmt.Errorf("lock insight: %w", err)
	}

	var seq int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM insight_evidence WHERE insight_id = $1`,
		event.InsightID,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("next evidence seq: %w", err)
	}
	event.Seq = seq

	_, err = tx.Exec(ctx, `
		INSERT INTO insight_evidence (
			insight_id, seq, scenario_id, regime_key, contradicts, parameter_robustness
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		event.InsightID, event.Seq, event.ScenarioID, event.RegimeKey,
		event.Contradicts, event.ParameterRobustness,
	)
	if err != nil {
		return fmt.Errorf("insert evidence event: %w", err)
	}

	updated, err := apply(current, seq)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE insights SET
			insight_type = $2, description = $3, scenario_ids = $4, regime_keys = $5,
			num_supporting_scenarios = $6, regime_coverage = $7, parameter_robustness = $8,
			contradiction_count = $9, has_been_contradicted = $10,
			confidence_score = $11, is_weak = $12, evidence_status = $13
		WHERE insight_id = $1
	`, insightArgs(updated)...)
	if err != nil {
		if isConflictError(err) {
			return fmt.Errorf("update insight aggregate: %w", storage.ErrConflict)
		}
		return fmt.Errorf("update insight aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isConflictError(err) {
			return fmt.Errorf("commit tx: %w", storage.ErrConflict)
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListEvidence retrieves the full journal for an insight, ordered by seq ASC.
func (s *InsightStore) ListEvidence(ctx context.Context, insightID string) ([]*domain.EvidenceEvent, error) {
	query := `
		SELECT insight_id, seq, scenario_id, regime_key, contradicts, parameter_robustness
		FROM insight_evidence
		WHERE insight_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, insightID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var events []*domain.EvidenceEvent
	for rows.Next() {
		var e domain.EvidenceEvent
		err := rows.Scan(
			&e.InsightID, &e.Seq, &e.ScenarioID, &e.RegimeKey,
			&e.Contradicts, &e.ParameterRobustness,
		)
		if err != nil {
			return nil, fmt.Errorf("scan evidence row: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence rows: %w", err)
	}
	return events, nil
}

const selectInsights = `
	SELECT insight_id, insight_type, description, scenario_ids, regime_keys,
		num_supporting_scenarios, regime_coverage, parameter_robustness,
		contradiction_count, has_been_contradicted,
		confidence_score, is_weak, evidence_status
	FROM insights
`

// insightArgs renders an insight in column order, id first, for both the
// insert and the update statement.
func insightArgs(ins *domain.StrategyInsight) []interface{} {
	return []interface{}{
		ins.InsightID,
		ins.InsightType,
		ins.Description,
		ins.ScenarioIDs,
		ins.RegimeKeys,
		ins.Confidence.NumSupportingScenarios,
		ins.Confidence.RegimeCoverage,
		ins.Confidence.ParameterRobustness,
		ins.Confidence.ContradictionCount,
		ins.Confidence.HasBeenContradicted,
		ins.ConfidenceScore,
		ins.IsWeak,
		ins.EvidenceStatus,
	}
}

// scanInsight scans a single row into a StrategyInsight.
func scanInsight(row pgx.Row) (*domain.StrategyInsight, error) {
	var ins domain.StrategyInsight

	err := row.Scan(
		&ins.InsightID,
		&ins.InsightType,
		&ins.Description,
		&ins.ScenarioIDs,
		&ins.RegimeKeys,
		&ins.Confidence.NumSupportingScenarios,
		&ins.Confidence.RegimeCoverage,
		&ins.Confidence.ParameterRobustness,
		&ins.Confidence.ContradictionCount,
		&ins.Confidence.HasBeenContradicted,
		&ins.ConfidenceScore,
		&ins.IsWeak,
		&ins.EvidenceStatus,
	)
	if err != nil {
		return nil, err
	}
	return &ins, nil
}
