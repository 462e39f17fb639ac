// Package verification re-runs stored scenarios and compares the replayed
// results against the persisted ones. Any divergence means determinism is
// broken, which is a fatal correctness violation to surface loudly, never
// a runtime condition to recover from.
package verification

import (
	"context"
	"fmt"
	"math"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/idhash"
	"strategy-research-lab/internal/sim"
	"strategy-research-lab/internal/storage"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	ResultID string
	Field    string
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// ScenarioVerification is the outcome of verifying one scenario.
type ScenarioVerification struct {
	ScenarioID     string
	Match          bool
	StoredDigest   string
	ReplayedDigest string
	Divergences    []FieldDivergence
}

// Report summarizes batch verification.
type Report struct {
	TotalScenarios     int
	MatchedScenarios   int
	DivergentScenarios int
	Results            []ScenarioVerification
}

// Verifier replays scenarios for determinism verification.
type Verifier struct {
	scenarioStore storage.ScenarioStore
	resultStore   storage.ResultStore
	runner        *sim.Runner // must be built without a result store
}

// NewVerifier creates a verifier. The runner must not persist results.
func NewVerifier(scenarioStore storage.ScenarioStore, resultStore storage.ResultStore, runner *sim.Runner) *Verifier {
	return &Verifier{
		scenarioStore: scenarioStore,
		resultStore:   resultStore,
		runner:        runner,
	}
}

// VerifyScenario re-runs one stored scenario and compares every result
// field against the persisted records.
func (v *Verifier) VerifyScenario(ctx context.Context, scenarioID string) (*ScenarioVerification, error) {
	def, err := v.scenarioStore.GetByID(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", scenarioID, err)
	}

	stored, err := v.resultStore.GetByScenarioID(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load results for %s: %w", scenarioID, err)
	}

	replayed, err := v.runner.Run(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("replay scenario %s: %w", scenarioID, err)
	}

	sv := &ScenarioVerification{
		ScenarioID:     scenarioID,
		StoredDigest:   idhash.ResultSetDigest(stored),
		ReplayedDigest: idhash.ResultSetDigest(replayed),
	}

	replayedByID := make(map[string]*domain.ScenarioResult, len(replayed))
	for _, r := range replayed {
		replayedByID[r.ResultID] = r
	}

	for _, s := range stored {
		r, ok := replayedByID[s.ResultID]
		if !ok {
			sv.Divergences = append(sv.Divergences, FieldDivergence{
				ResultID: s.ResultID, Field: "ResultID", Expected: s.ResultID, Actual: nil,
			})
			continue
		}
		sv.Divergences = append(sv.Divergences, compareResults(s, r)...)
	}
	if len(replayed) != len(stored) {
		sv.Divergences = append(sv.Divergences, FieldDivergence{
			Field: "ResultCount", Expected: len(stored), Actual: len(replayed),
		})
	}

	sv.Match = len(sv.Divergences) == 0 && sv.StoredDigest == sv.ReplayedDigest
	return sv, nil
}

// VerifyAll re-runs every stored scenario.
func (v *Verifier) VerifyAll(ctx context.Context) (*Report, error) {
	defs, err := v.scenarioStore.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{TotalScenarios: len(defs)}
	for _, def := range defs {
		sv, err := v.VerifyScenario(ctx, def.ScenarioID)
		if err != nil {
			return nil, err
		}
		if sv.Match {
			report.MatchedScenarios++
		} else {
			report.DivergentScenarios++
		}
		report.Results = append(report.Results, *sv)
	}
	return report, nil
}

// compareResults diffs every outcome field of one result pair.
func compareResults(stored, replayed *domain.ScenarioResult) []FieldDivergence {
	var divs []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		divs = append(divs, FieldDivergence{
			ResultID: stored.ResultID, Field: field, Expected: expected, Actual: actual,
		})
	}

	if !floatEquals(stored.TotalReturnPct, replayed.TotalReturnPct) {
		add("TotalReturnPct", stored.TotalReturnPct, replayed.TotalReturnPct)
	}
	if !sharpeEquals(stored.SharpeRatio, replayed.SharpeRatio) {
		add("SharpeRatio", stored.SharpeRatio, replayed.SharpeRatio)
	}
	if stored.SharpeValid != replayed.SharpeValid {
		add("SharpeValid", stored.SharpeValid, replayed.SharpeValid)
	}
	if !floatEquals(stored.MaxDrawdownPct, replayed.MaxDrawdownPct) {
		add("MaxDrawdownPct", stored.MaxDrawdownPct, replayed.MaxDrawdownPct)
	}
	if !floatEquals(stored.WinRate, replayed.WinRate) {
		add("WinRate", stored.WinRate, replayed.WinRate)
	}
	if stored.TradeCount != replayed.TradeCount {
		add("TradeCount", stored.TradeCount, replayed.TradeCount)
	}
	if stored.BarsProcessed != replayed.BarsProcessed {
		add("BarsProcessed", stored.BarsProcessed, replayed.BarsProcessed)
	}
	if stored.Verified != replayed.Verified {
		add("Verified", stored.Verified, replayed.Verified)
	}
	if stored.SkipReason != replayed.SkipReason {
		add("SkipReason", stored.SkipReason, replayed.SkipReason)
	}
	if len(stored.Fills) != len(replayed.Fills) {
		add("FillCount", len(stored.Fills), len(replayed.Fills))
		return divs
	}
	for i := range stored.Fills {
		sf, rf := stored.Fills[i], replayed.Fills[i]
		if sf.EntryDate != rf.EntryDate || sf.ExitDate != rf.ExitDate ||
			!floatEquals(sf.EntryPrice, rf.EntryPrice) || !floatEquals(sf.ExitPrice, rf.ExitPrice) ||
			!floatEquals(sf.SizeFraction, rf.SizeFraction) || sf.ExitReason != rf.ExitReason {
			add(fmt.Sprintf("Fills[%d]", i), sf, rf)
		}
	}
	return divs
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

// sharpeEquals treats two NaN values as equal: both sides agree the ratio
// is invalid.
func sharpeEquals(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return floatEquals(a, b)
}
