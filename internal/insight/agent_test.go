package insight

import (
	"context"
	"errors"
	"testing"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/idhash"
	"strategy-research-lab/internal/storage"
	"strategy-research-lab/internal/storage/memory"
)

func TestAgent_AddInsight(t *testing.T) {
	store := memory.NewInsightStore()
	agent := NewAgent(store, nil)

	ins, err := agent.AddInsight(context.Background(),
		domain.InsightWinningPattern,
		"wide stops survive stressed liquidity",
		[]string{"scn1"}, []string{"high/down/stressed/easing"}, 0.0)
	if err != nil {
		t.Fatalf("add insight: %v", err)
	}

	if ins.InsightID != idhash.InsightID(domain.InsightWinningPattern, "wide stops survive stressed liquidity") {
		t.Errorf("insight id not content-derived: %s", ins.InsightID)
	}
	if ins.EvidenceStatus != domain.EvidencePreliminary {
		t.Errorf("expected PRELIMINARY for a single scenario, got %s", ins.EvidenceStatus)
	}
	if !ins.IsWeak {
		t.Error("expected single-scenario insight to be weak")
	}
	if ins.ConfidenceScore != BaseConfidence {
		t.Errorf("expected base confidence, got %v", ins.ConfidenceScore)
	}
}

func TestAgent_AddInsight_NoEvidence(t *testing.T) {
	agent := NewAgent(memory.NewInsightStore(), nil)
	_, err := agent.AddInsight(context.Background(), domain.InsightFailureMode, "claim", nil, nil, 0)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAgent_DuplicateClaimFoldsEvidence(t *testing.T) {
	store := memory.NewInsightStore()
	agent := NewAgent(store, nil)
	ctx := context.Background()

	first, err := agent.AddInsight(ctx, domain.InsightRegimeHeuristic,
		"trust threshold dominates in tightening regimes",
		[]string{"scn1"}, []string{"medium/down/normal/tightening"}, 0.0)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Same claim from a different scenario in a different regime: no new
	// insight, the existing one gains evidence.
	second, err := agent.AddInsight(ctx, domain.InsightRegimeHeuristic,
		"trust threshold dominates in tightening regimes",
		[]string{"scn2"}, []string{"high/down/stressed/easing"}, 0.0)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if second.InsightID != first.InsightID {
		t.Fatalf("duplicate claim created a new insight: %s vs %s", second.InsightID, first.InsightID)
	}
	if second.Confidence.NumSupportingScenarios != 2 {
		t.Errorf("expected 2 supporting scenarios, got %d", second.Confidence.NumSupportingScenarios)
	}
	if len(second.RegimeKeys) != 2 {
		t.Errorf("expected 2 regimes, got %v", second.RegimeKeys)
	}
	if second.ConfidenceScore <= first.ConfidenceScore {
		t.Errorf("folded evidence did not raise confidence: %v vs %v", second.ConfidenceScore, first.ConfidenceScore)
	}

	all, err := agent.Insights(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 stored insight, got %d", len(all))
	}
}

func TestAgent_EvidenceGrowsToStrong(t *testing.T) {
	store := memory.NewInsightStore()
	agent := NewAgent(store, nil)
	ctx := context.Background()

	ins, err := agent.AddInsight(ctx, domain.InsightWinningPattern, "claim",
		[]string{"scn1"}, []string{"regA"}, 0.0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := agent.UpdateConfidence(ctx, ins.InsightID, "scn2", "regA", false, 0.0); err != nil {
		t.Fatalf("append scn2: %v", err)
	}
	mid, err := store.GetInsight(ctx, ins.InsightID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Three scenarios but one regime: still gated to PRELIMINARY.
	if err := agent.UpdateConfidence(ctx, ins.InsightID, "scn3", "regA", false, 0.0); err != nil {
		t.Fatalf("append scn3: %v", err)
	}
	gated, err := store.GetInsight(ctx, ins.InsightID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gated.EvidenceStatus != domain.EvidencePreliminary {
		t.Errorf("expected PRELIMINARY with one regime, got %s", gated.EvidenceStatus)
	}
	if gated.Confidence.NumSupportingScenarios != 3 {
		t.Errorf("expected 3 supporting, got %d", gated.Confidence.NumSupportingScenarios)
	}
	if gated.ConfidenceScore <= mid.ConfidenceScore {
		t.Error("more support did not raise confidence")
	}

	// A second regime satisfies the gate.
	if err := agent.UpdateConfidence(ctx, ins.InsightID, "scn4", "regB", false, 0.0); err != nil {
		t.Fatalf("append scn4: %v", err)
	}
	strong, err := store.GetInsight(ctx, ins.InsightID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strong.EvidenceStatus != domain.EvidenceStrong {
		t.Errorf("expected STRONG, got %s", strong.EvidenceStatus)
	}
}

func TestAgent_ContradictionKeepsSupport(t *testing.T) {
	store := memory.NewInsightStore()
	agent := NewAgent(store, nil)
	ctx := context.Background()

	ins, err := agent.AddInsight(ctx, domain.InsightFailureMode, "claim",
		[]string{"scn1", "scn2"}, []string{"regA", "regB"}, 0.0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _ := store.GetInsight(ctx, ins.InsightID)

	if err := agent.UpdateConfidence(ctx, ins.InsightID, "scn3", "regA", true, 0.0); err != nil {
		t.Fatalf("contradict: %v", err)
	}

	after, err := store.GetInsight(ctx, ins.InsightID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.ConfidenceScore >= before.ConfidenceScore {
		t.Errorf("contradiction did not lower confidence: %v vs %v", after.ConfidenceScore, before.ConfidenceScore)
	}
	if !after.Confidence.HasBeenContradicted {
		t.Error("contradiction flag not set")
	}
	if after.Confidence.ContradictionCount != 1 {
		t.Errorf("expected 1 contradiction, got %d", after.Confidence.ContradictionCount)
	}
	// Prior supporting evidence is never removed.
	if len(after.ScenarioIDs) != len(before.ScenarioIDs) {
		t.Errorf("contradiction removed supporting scenarios: %v", after.ScenarioIDs)
	}
	if after.Confidence.NumSupportingScenarios != before.Confidence.NumSupportingScenarios {
		t.Error("contradiction changed supporting count")
	}
}

func TestAgent_EvidenceJournalMonotonic(t *testing.T) {
	store := memory.NewInsightStore()
	agent := NewAgent(store, nil)
	ctx := context.Background()

	ins, err := agent.AddInsight(ctx, domain.InsightWinningPattern, "claim",
		[]string{"scn1"}, []string{"regA"}, 0.0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	appends := []struct {
		scenarioID  string
		contradicts bool
	}{
		{"scn2", false},
		{"scn3", false},
		{"scn4", true},
		{"scn2", false}, // repeat observation still journals
	}
	for _, a := range appends {
		if err := agent.UpdateConfidence(ctx, ins.InsightID, a.scenarioID, "regA", a.contradicts, 0.0); err != nil {
			t.Fatalf("append %s: %v", a.scenarioID, err)
		}
	}

	// One founding event from creation plus one per append.
	events, err := store.ListEvidence(ctx, ins.InsightID)
	if err != nil {
		t.Fatalf("list evidence: %v", err)
	}
	if len(events) != len(appends)+1 {
		t.Fatalf("expected %d events, got %d", len(appends)+1, len(events))
	}
	for i, e := range events {
		if e.Seq != int64(i+1) {
			t.Errorf("event %d has seq %d", i, e.Seq)
		}
	}
	if events[0].ScenarioID != "scn1" {
		t.Errorf("founding event carries %s, want scn1", events[0].ScenarioID)
	}
}

func TestAgent_AddInsightJournalsFoundingEvidence(t *testing.T) {
	store := memory.NewInsightStore()
	agent := NewAgent(store, nil)
	ctx := context.Background()

	ins, err := agent.AddInsight(ctx, domain.InsightWinningPattern, "claim",
		[]string{"scn1", "scn2"}, []string{"regA", "regB"}, 0.0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	events, err := store.ListEvidence(ctx, ins.InsightID)
	if err != nil {
		t.Fatalf("list evidence: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 founding events, got %d", len(events))
	}
	for i, want := range []struct{ scenarioID, regimeKey string }{
		{"scn1", "regA"},
		{"scn2", "regB"},
	} {
		if events[i].Seq != int64(i+1) {
			t.Errorf("event %d has seq %d", i, events[i].Seq)
		}
		if events[i].ScenarioID != want.scenarioID || events[i].RegimeKey != want.regimeKey {
			t.Errorf("event %d is (%s, %s), want (%s, %s)",
				i, events[i].ScenarioID, events[i].RegimeKey, want.scenarioID, want.regimeKey)
		}
		if events[i].Contradicts {
			t.Errorf("founding event %d marked contradicting", i)
		}
	}

	// Journaling the founding evidence must not double-count it.
	got, err := store.GetInsight(ctx, ins.InsightID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Confidence.NumSupportingScenarios != 2 {
		t.Errorf("expected 2 supporting scenarios, got %d", got.Confidence.NumSupportingScenarios)
	}
}

// conflictingStore fails the next N evidence appends with ErrConflict.
type conflictingStore struct {
	*memory.InsightStore
	remaining int
}

func (s *conflictingStore) AppendEvidence(ctx context.Context, event *domain.EvidenceEvent, apply storage.ApplyEvidenceFunc) error {
	if s.remaining > 0 {
		s.remaining--
		return storage.ErrConflict
	}
	return s.InsightStore.AppendEvidence(ctx, event, apply)
}

func TestAgent_RetriesConflictedAppends(t *testing.T) {
	store := &conflictingStore{InsightStore: memory.NewInsightStore()}
	agent := NewAgent(store, nil)
	ctx := context.Background()

	ins, err := agent.AddInsight(ctx, domain.InsightWinningPattern, "claim",
		[]string{"scn1"}, []string{"regA"}, 0.0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	store.remaining = 2
	if err := agent.UpdateConfidence(ctx, ins.InsightID, "scn2", "regA", false, 0.0); err != nil {
		t.Fatalf("expected retries to absorb 2 conflicts: %v", err)
	}
	got, err := store.GetInsight(ctx, ins.InsightID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Confidence.NumSupportingScenarios != 2 {
		t.Errorf("expected 2 supporting scenarios after retry, got %d", got.Confidence.NumSupportingScenarios)
	}

	// Persistent conflicts surface after the retry budget.
	store.remaining = maxConflictRetries + 1
	err = agent.UpdateConfidence(ctx, ins.InsightID, "scn3", "regA", false, 0.0)
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict after exhausted retries, got %v", err)
	}
}

func TestAgent_UpdateUnknownInsight(t *testing.T) {
	agent := NewAgent(memory.NewInsightStore(), nil)
	err := agent.UpdateConfidence(context.Background(), "missing", "scn1", "regA", false, 0)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
