package postgres

import (
	"context"
	"fmt"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// IterationStore implements storage.IterationStore using PostgreSQL.
type IterationStore struct {
	pool *Pool
}

// NewIterationStore creates a new IterationStore.
func NewIterationStore(pool *Pool) *IterationStore {
	return &IterationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.IterationStore = (*IterationStore)(nil)

// Insert adds a new iteration record. Returns ErrDuplicateKey if iteration_id exists.
func (s *IterationStore) Insert(ctx context.Context, rec *domain.IterationRecord) error {
	query := `
		INSERT INTO iterations (
			iteration_id, number, started_at_ms, finished_at_ms,
			scenario_ids, result_ids, insight_ids,
			proposal_count, failed_scenarios, completion_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.IterationID,
		rec.Number,
		rec.StartedAtMs,
		rec.FinishedAtMs,
		rec.ScenarioIDs,
		rec.ResultIDs,
		rec.InsightIDs,
		rec.ProposalCount,
		rec.FailedScenarios,
		rec.CompletionRate,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert iteration: %w", err)
	}
	return nil
}

// List retrieves all iteration records, ordered by number ASC.
func (s *IterationStore) List(ctx context.Context) ([]*domain.IterationRecord, error) {
	query := `
		SELECT iteration_id, number, started_at_ms, finished_at_ms,
			scenario_ids, result_ids, insight_ids,
			proposal_count, failed_scenarios, completion_rate
		FROM iterations
		ORDER BY number ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list iterations: %w", err)
	}
	defer rows.Close()

	var records []*domain.IterationRecord
	for rows.Next() {
		var rec domain.IterationRecord
		err := rows.Scan(
			&rec.IterationID,
			&rec.Number,
			&rec.StartedAtMs,
			&rec.FinishedAtMs,
			&rec.ScenarioIDs,
			&rec.ResultIDs,
			&rec.InsightIDs,
			&rec.ProposalCount,
			&rec.FailedScenarios,
			&rec.CompletionRate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan iteration row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate iteration rows: %w", err)
	}
	return records, nil
}

// Count returns the number of stored iterations.
func (s *IterationStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM iterations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count iterations: %w", err)
	}
	return count, nil
}
