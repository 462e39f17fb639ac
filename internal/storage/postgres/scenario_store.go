package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// ScenarioStore implements storage.ScenarioStore using PostgreSQL.
type ScenarioStore struct {
	pool *Pool
}

// NewScenarioStore creates a new ScenarioStore.
func NewScenarioStore(pool *Pool) *ScenarioStore {
	return &ScenarioStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScenarioStore = (*ScenarioStore)(nil)

// Insert adds a new definition. Returns ErrDuplicateKey if scenario_id exists.
func (s *ScenarioStore) Insert(ctx context.Context, d *domain.ScenarioDefinition) error {
	paramSets, err := json.Marshal(d.ParamSets)
	if err != nil {
		return fmt.Errorf("marshal param sets: %w", err)
	}

	query := `
		INSERT INTO scenario_definitions (
			scenario_id, name, description, start_date, end_date, symbols, param_sets,
			regime_volatility, regime_trend, regime_liquidity, regime_macro
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.pool.Exec(ctx, query,
		d.ScenarioID,
		d.Name,
		d.Description,
		d.StartDate.UTC(),
		d.EndDate.UTC(),
		d.Symbols,
		paramSets,
		d.Regime.Volatility,
		d.Regime.Trend,
		d.Regime.Liquidity,
		d.Regime.Macro,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert scenario: %w", err)
	}
	return nil
}

// GetByID retrieves a definition by its ID. Returns ErrNotFound if not exists.
func (s *ScenarioStore) GetByID(ctx context.Context, scenarioID string) (*domain.ScenarioDefinition, error) {
	query := `
		SELECT scenario_id, name, description, start_date, end_date, symbols, param_sets,
			regime_volatility, regime_trend, regime_liquidity, regime_macro
		FROM scenario_definitions
		WHERE scenario_id = $1
	`

	row := s.pool.QueryRow(ctx, query, scenarioID)
	d, err := scanScenario(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scenario by id: %w", err)
	}
	return d, nil
}

// List retrieves all definitions, ordered by scenario_id ASC.
func (s *ScenarioStore) List(ctx context.Context) ([]*domain.ScenarioDefinition, error) {
	query := `
		SELECT scenario_id, name, description, start_date, end_date, symbols, param_sets,
			regime_volatility, regime_trend, regime_liquidity, regime_macro
		FROM scenario_definitions
		ORDER BY scenario_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var defs []*domain.ScenarioDefinition
	for rows.Next() {
		d, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scenario row: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenario rows: %w", err)
	}
	return defs, nil
}

// scanScenario scans a single row into a ScenarioDefinition.
func scanScenario(row pgx.Row) (*domain.ScenarioDefinition, error) {
	var d domain.ScenarioDefinition
	var paramSets []byte

	err := row.Scan(
		&d.ScenarioID,
		&d.Name,
		&d.Description,
		&d.StartDate,
		&d.EndDate,
		&d.Symbols,
		&paramSets,
		&d.Regime.Volatility,
		&d.Regime.Trend,
		&d.Regime.Liquidity,
		&d.Regime.Macro,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(paramSets, &d.ParamSets); err != nil {
		return nil, fmt.Errorf("unmarshal param sets: %w", err)
	}
	d.StartDate = d.StartDate.UTC()
	d.EndDate = d.EndDate.UTC()
	return &d, nil
}
