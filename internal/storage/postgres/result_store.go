package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// InsertBulk adds all results of one scenario run atomically.
// Fails entire batch on any duplicate result_id.
func (s *ResultStore) InsertBulk(ctx context.Context, results []*domain.ScenarioResult) error {
	if len(results) == 0 {
		return nil
	}

	// Intra-batch duplicates fail before touching the database.
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, exists := seen[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.ResultID] = struct{}{}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO scenario_results (
			result_id, scenario_id, symbol, regime_key,
			total_return_pct, sharpe_ratio, sharpe_valid, max_drawdown_pct,
			win_rate, trade_count, bars_processed, verified, skip_reason,
			params, fills
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	for _, r := range results {
		params, err := json.Marshal(r.Params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		fills, err := json.Marshal(r.Fills)
		if err != nil {
			return fmt.Errorf("marshal fills: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			r.ResultID,
			r.ScenarioID,
			r.Symbol,
			r.RegimeKey,
			r.TotalReturnPct,
			r.SharpeRatio,
			r.SharpeValid,
			r.MaxDrawdownPct,
			r.WinRate,
			r.TradeCount,
			r.BarsProcessed,
			r.Verified,
			r.SkipReason,
			params,
			fills,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert result %s: %w", r.ResultID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByScenarioID retrieves all results for a scenario, ordered by result_id ASC.
func (s *ResultStore) GetByScenarioID(ctx context.Context, scenarioID string) ([]*domain.ScenarioResult, error) {
	query := selectResults + `
		WHERE scenario_id = $1
		ORDER BY result_id ASC
	`

	rows, err := s.pool.Query(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("get results by scenario id: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// List retrieves all results, ordered by result_id ASC.
func (s *ResultStore) List(ctx context.Context) ([]*domain.ScenarioResult, error) {
	query := selectResults + `
		ORDER BY result_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

const selectResults = `
	SELECT result_id, scenario_id, symbol, regime_key,
		total_return_pct, sharpe_ratio, sharpe_valid, max_drawdown_pct,
		win_rate, trade_count, bars_processed, verified, skip_reason,
		params, fills
	FROM scenario_results
`

// scanResults scans multiple rows into a slice of ScenarioResult.
func scanResults(rows pgx.Rows) ([]*domain.ScenarioResult, error) {
	var results []*domain.ScenarioResult

	for rows.Next() {
		var r domain.ScenarioResult
		var params, fills []byte

		err := rows.Scan(
			&r.ResultID,
			&r.ScenarioID,
			&r.Symbol,
			&r.RegimeKey,
			&r.TotalReturnPct,
			&r.SharpeRatio,
			&r.SharpeValid,
			&r.MaxDrawdownPct,
			&r.WinRate,
			&r.TradeCount,
			&r.BarsProcessed,
			&r.Verified,
			&r.SkipReason,
			&params,
			&fills,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}

		if err := json.Unmarshal(params, &r.Params); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
		if len(fills) > 0 {
			if err := json.Unmarshal(fills, &r.Fills); err != nil {
				return nil, fmt.Errorf("unmarshal fills: %w", err)
			}
		}
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return results, nil
}
