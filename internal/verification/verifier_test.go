package verification

import (
	"context"
	"testing"
	"time"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/idhash"
	"strategy-research-lab/internal/marketdata"
	"strategy-research-lab/internal/sim"
	"strategy-research-lab/internal/storage/memory"
)

type fixture struct {
	scenarios *memory.ScenarioStore
	results   *memory.ResultStore
	verifier  *Verifier
	def       *domain.ScenarioDefinition
	run       []*domain.ScenarioResult
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	def := &domain.ScenarioDefinition{
		Name:        "verify-test",
		Description: "fixed window over synthetic history",
		StartDate:   time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC),
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
	def.ScenarioID = idhash.ScenarioID(def)

	bars := memory.NewBarStore()
	if err := marketdata.LoadFixtures(ctx, bars, def.Symbols, def.StartDate, def.EndDate); err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	provider := marketdata.NewStoreProvider(bars)

	scenarios := memory.NewScenarioStore()
	if err := scenarios.Insert(ctx, def); err != nil {
		t.Fatalf("insert scenario: %v", err)
	}

	// First run computes the ground truth without persisting; the test
	// decides what to store.
	run, err := sim.NewRunner(sim.RunnerOptions{Provider: provider}).Run(ctx, def)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	results := memory.NewResultStore()
	replayRunner := sim.NewRunner(sim.RunnerOptions{Provider: provider})
	return &fixture{
		scenarios: scenarios,
		results:   results,
		verifier:  NewVerifier(scenarios, results, replayRunner),
		def:       def,
		run:       run,
	}
}

func TestVerifyScenario_Match(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.results.InsertBulk(ctx, f.run); err != nil {
		t.Fatalf("store results: %v", err)
	}

	sv, err := f.verifier.VerifyScenario(ctx, f.def.ScenarioID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !sv.Match {
		t.Fatalf("expected match, got divergences: %+v", sv.Divergences)
	}
	if sv.StoredDigest != sv.ReplayedDigest {
		t.Errorf("digests differ on a clean replay: %s vs %s", sv.StoredDigest, sv.ReplayedDigest)
	}
}

func TestVerifyScenario_TamperedResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tampered := make([]*domain.ScenarioResult, len(f.run))
	for i, r := range f.run {
		cp := *r
		tampered[i] = &cp
	}
	tampered[0].TotalReturnPct += 2.5
	if err := f.results.InsertBulk(ctx, tampered); err != nil {
		t.Fatalf("store results: %v", err)
	}

	sv, err := f.verifier.VerifyScenario(ctx, f.def.ScenarioID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sv.Match {
		t.Fatal("tampered result passed verification")
	}
	if sv.StoredDigest == sv.ReplayedDigest {
		t.Error("digests agree despite tampering")
	}

	found := false
	for _, d := range sv.Divergences {
		if d.ResultID == tampered[0].ResultID && d.Field == "TotalReturnPct" {
			found = true
		}
	}
	if !found {
		t.Errorf("divergence does not name the tampered field: %+v", sv.Divergences)
	}
}

func TestVerifyScenario_MissingStoredResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Store only part of the run: the replay produces more results than
	// were persisted.
	if err := f.results.InsertBulk(ctx, f.run[:len(f.run)-1]); err != nil {
		t.Fatalf("store results: %v", err)
	}

	sv, err := f.verifier.VerifyScenario(ctx, f.def.ScenarioID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sv.Match {
		t.Fatal("partial result set passed verification")
	}

	found := false
	for _, d := range sv.Divergences {
		if d.Field == "ResultCount" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a ResultCount divergence, got: %+v", sv.Divergences)
	}
}

func TestVerifyAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.results.InsertBulk(ctx, f.run); err != nil {
		t.Fatalf("store results: %v", err)
	}

	report, err := f.verifier.VerifyAll(ctx)
	if err != nil {
		t.Fatalf("verify all: %v", err)
	}
	if report.TotalScenarios != 1 {
		t.Fatalf("expected 1 scenario, got %d", report.TotalScenarios)
	}
	if report.MatchedScenarios != 1 || report.DivergentScenarios != 0 {
		t.Errorf("expected a clean report, got %d matched / %d divergent",
			report.MatchedScenarios, report.DivergentScenarios)
	}
	if len(report.Results) != 1 {
		t.Errorf("expected 1 per-scenario entry, got %d", len(report.Results))
	}
}
