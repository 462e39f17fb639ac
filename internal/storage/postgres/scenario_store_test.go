package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

func testScenarioDefinition(id string) *domain.ScenarioDefinition {
	return &domain.ScenarioDefinition{
		ScenarioID:  id,
		Name:        "test-scenario",
		Description: "fixed window over two symbols",
		StartDate:   time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC),
		Symbols:     []string{"BTC-USD", "ETH-USD"},
		ParamSets: []domain.ParameterSet{
			domain.ParameterSetBalanced,
			domain.ParameterSetConservative,
		},
		Regime: domain.RegimeClassification{
			Volatility: domain.VolatilityMedium,
			Trend:      domain.TrendDown,
			Liquidity:  domain.LiquidityNormal,
			Macro:      domain.MacroTightening,
		},
	}
}

func TestScenarioStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScenarioStore(pool)
	ctx := context.Background()

	def := testScenarioDefinition("scn-001")
	err := store.Insert(ctx, def)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "scn-001")
	require.NoError(t, err)

	assert.Equal(t, def.ScenarioID, retrieved.ScenarioID)
	assert.Equal(t, def.Name, retrieved.Name)
	assert.Equal(t, def.Description, retrieved.Description)
	assert.True(t, def.StartDate.Equal(retrieved.StartDate))
	assert.True(t, def.EndDate.Equal(retrieved.EndDate))
	assert.Equal(t, def.Symbols, retrieved.Symbols)
	assert.Equal(t, def.ParamSets, retrieved.ParamSets)
	assert.Equal(t, def.Regime, retrieved.Regime)
}

func TestScenarioStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScenarioStore(pool)
	ctx := context.Background()

	def := testScenarioDefinition("scn-dup")
	require.NoError(t, store.Insert(ctx, def))

	err := store.Insert(ctx, def)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestScenarioStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScenarioStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScenarioStore_ListOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScenarioStore(pool)
	ctx := context.Background()

	// Insert out of order; List must come back sorted by scenario_id.
	require.NoError(t, store.Insert(ctx, testScenarioDefinition("scn-zzz")))
	require.NoError(t, store.Insert(ctx, testScenarioDefinition("scn-aaa")))
	require.NoError(t, store.Insert(ctx, testScenarioDefinition("scn-mmm")))

	defs, err := store.List(ctx)
	require.NoError(t, err)

	require.Len(t, defs, 3)
	assert.Equal(t, "scn-aaa", defs[0].ScenarioID)
	assert.Equal(t, "scn-mmm", defs[1].ScenarioID)
	assert.Equal(t, "scn-zzz", defs[2].ScenarioID)
}
