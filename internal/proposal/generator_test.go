package proposal

import (
	"context"
	"testing"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/regime"
)

func fullCoverage() map[string]int {
	coverage := make(map[string]int)
	for _, combo := range regime.AllCombinations() {
		coverage[combo.Key()] = 1
	}
	return coverage
}

func weakInsight(id, description string, score float64) *domain.StrategyInsight {
	return &domain.StrategyInsight{
		InsightID:       id,
		InsightType:     domain.InsightWinningPattern,
		Description:     description,
		ConfidenceScore: score,
		IsWeak:          true,
		EvidenceStatus:  domain.EvidencePreliminary,
		Confidence:      domain.InsightConfidence{NumSupportingScenarios: 1},
	}
}

func strongInsight(id, description string) *domain.StrategyInsight {
	return &domain.StrategyInsight{
		InsightID:       id,
		InsightType:     domain.InsightFailureMode,
		Description:     description,
		ConfidenceScore: 0.80,
		EvidenceStatus:  domain.EvidenceStrong,
		Confidence: domain.InsightConfidence{
			NumSupportingScenarios: 4,
			RegimeCoverage:         []string{"a", "b"},
		},
	}
}

func TestGenerate_UnexploredRegimesRankFirst(t *testing.T) {
	coverage := fullCoverage()
	delete(coverage, "low/up/normal/easing")
	delete(coverage, "high/down/stressed/easing")

	insights := []*domain.StrategyInsight{
		weakInsight("i1", "weak claim", 0.35),
		strongInsight("i2", "strong claim"),
	}

	proposals := NewGenerator(nil).Generate(context.Background(), nil, insights, coverage, 0)
	if len(proposals) < 2 {
		t.Fatalf("expected proposals, got %d", len(proposals))
	}
	for i := 0; i < 2; i++ {
		if proposals[i].ProposalType != domain.ProposalRegimeTest {
			t.Errorf("proposal %d: expected regime test first, got %s", i, proposals[i].ProposalType)
		}
	}
	// Ties on gain break by target.
	if proposals[0].Target != "high/down/stressed/easing" {
		t.Errorf("unexpected tie-break order: %s", proposals[0].Target)
	}
	if proposals[2].ProposalType == domain.ProposalRegimeTest {
		t.Error("covered regimes must not be proposed")
	}
}

func TestGenerate_WeakInsightBeatsParameterGap(t *testing.T) {
	insights := []*domain.StrategyInsight{weakInsight("i1", "weak claim", 0.35)}

	proposals := NewGenerator(nil).Generate(context.Background(), nil, insights, fullCoverage(), 0)
	if len(proposals) == 0 {
		t.Fatal("expected proposals")
	}
	if proposals[0].ProposalType != domain.ProposalUncertaintyReduction {
		t.Errorf("expected weak-insight proposal first, got %s", proposals[0].ProposalType)
	}
	if proposals[0].Target != "weak claim" {
		t.Errorf("expected target to name the claim, got %q", proposals[0].Target)
	}
	if proposals[1].ProposalType != domain.ProposalParameterGap {
		t.Errorf("expected parameter gap second, got %s", proposals[1].ProposalType)
	}
}

func TestGenerate_LowerConfidenceScoresHigher(t *testing.T) {
	insights := []*domain.StrategyInsight{
		weakInsight("i1", "shakier claim", 0.20),
		weakInsight("i2", "firmer claim", 0.45),
	}

	proposals := NewGenerator(nil).Generate(context.Background(), nil, insights, fullCoverage(), 0)
	if proposals[0].Target != "shakier claim" {
		t.Errorf("expected the lower-confidence insight first, got %q", proposals[0].Target)
	}
	if proposals[0].ExpectedInfoGain <= proposals[1].ExpectedInfoGain {
		t.Errorf("expected strictly higher gain for the shakier claim: %v vs %v",
			proposals[0].ExpectedInfoGain, proposals[1].ExpectedInfoGain)
	}
}

func TestGenerate_ReverificationRanksLast(t *testing.T) {
	insights := []*domain.StrategyInsight{strongInsight("i1", "strong claim")}

	proposals := NewGenerator(nil).Generate(context.Background(), nil, insights, fullCoverage(), 0)
	last := proposals[len(proposals)-1]
	if last.ProposalType != domain.ProposalHypothesisTest {
		t.Errorf("expected re-verification last, got %s", last.ProposalType)
	}
	if last.Target != "strong claim" {
		t.Errorf("expected target to name the claim, got %q", last.Target)
	}
}

func TestGenerate_Limit(t *testing.T) {
	proposals := NewGenerator(nil).Generate(context.Background(), nil, nil, nil, 5)
	if len(proposals) != 5 {
		t.Fatalf("expected 5 proposals, got %d", len(proposals))
	}
	// With zero coverage every proposal in the window is a regime test.
	for _, p := range proposals {
		if p.ProposalType != domain.ProposalRegimeTest {
			t.Errorf("expected regime tests only, got %s", p.ProposalType)
		}
	}
}

func TestGenerate_DeterministicOrder(t *testing.T) {
	coverage := fullCoverage()
	delete(coverage, "low/sideways/stressed/neutral")
	insights := []*domain.StrategyInsight{
		weakInsight("i1", "weak claim", 0.35),
		strongInsight("i2", "strong claim"),
	}

	a := NewGenerator(nil).Generate(context.Background(), nil, insights, coverage, 0)
	b := NewGenerator(nil).Generate(context.Background(), nil, insights, coverage, 0)
	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ProposalType != b[i].ProposalType || a[i].Target != b[i].Target ||
			a[i].ExpectedInfoGain != b[i].ExpectedInfoGain {
			t.Fatalf("order diverged at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
