// Package insight is the memory agent: it persists evidence-backed claims
// about strategy behavior with confidence derived from evidence breadth.
// Storage is append-only; evidence is only ever added, and the aggregate
// state is recomputed from the accumulated journal.
package insight

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/idhash"
	"strategy-research-lab/internal/storage"
)

// maxConflictRetries bounds how often an evidence append is retried when
// the store reports a retryable serialization conflict.
const maxConflictRetries = 3

// Agent owns all StrategyInsight mutation. Other components read insights
// as shared-immutable data.
type Agent struct {
	store  storage.InsightStore
	logger *zap.Logger
}

// NewAgent creates a memory agent over the given store.
func NewAgent(store storage.InsightStore, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{store: store, logger: logger}
}

// AddInsight records a new insight with initial confidence computed from
// the breadth of its founding evidence. If an insight with the same
// (type, description) already exists, the evidence is appended to it
// instead, one event per supporting scenario.
func (a *Agent) AddInsight(ctx context.Context, insightType, description string, scenarioIDs, regimeKeys []string, robustness float64) (*domain.StrategyInsight, error) {
	if len(scenarioIDs) == 0 {
		return nil, fmt.Errorf("%w: insight requires at least one supporting scenario", storage.ErrInvalidInput)
	}

	id := idhash.InsightID(insightType, description)

	confidence := domain.InsightConfidence{
		NumSupportingScenarios: len(scenarioIDs),
		RegimeCoverage:         dedupe(regimeKeys),
		ParameterRobustness:    robustness,
	}
	ins := &domain.StrategyInsight{
		InsightID:   id,
		InsightType: insightType,
		Description: description,
		ScenarioIDs: append([]string(nil), scenarioIDs...),
		RegimeKeys:  dedupe(regimeKeys),
		Confidence:  confidence,
	}
	ins.ConfidenceScore = Score(confidence)
	ins.IsWeak = ins.ConfidenceScore < WeakThreshold
	ins.EvidenceStatus = EvidenceStatus(confidence)

	err := a.store.CreateInsight(ctx, ins)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Same claim observed again: fold the new evidence in.
		for i, scenarioID := range scenarioIDs {
			regimeKey := ""
			if i < len(regimeKeys) {
				regimeKey = regimeKeys[i]
			}
			if err := a.UpdateConfidence(ctx, id, scenarioID, regimeKey, false, robustness); err != nil {
				return nil, err
			}
		}
		return a.store.GetInsight(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	// Journal the founding evidence, one event per supporting scenario.
	// The aggregate already accounts for it, so apply leaves the state
	// untouched; the journal alone carries the full history.
	for i, scenarioID := range scenarioIDs {
		regimeKey := ""
		if i < len(regimeKeys) {
			regimeKey = regimeKeys[i]
		}
		event := &domain.EvidenceEvent{
			InsightID:           id,
			ScenarioID:          scenarioID,
			RegimeKey:           regimeKey,
			ParameterRobustness: robustness,
		}
		err := a.appendWithRetry(ctx, event, func(current *domain.StrategyInsight, _ int64) (*domain.StrategyInsight, error) {
			return current, nil
		})
		if err != nil {
			return nil, err
		}
	}

	a.logger.Info("insight recorded",
		zap.String("insight_id", id),
		zap.String("type", insightType),
		zap.Int("supporting", len(scenarioIDs)),
		zap.Float64("confidence", ins.ConfidenceScore))

	return ins, nil
}

// UpdateConfidence appends one evidence event and recomputes the
// aggregate from it. A contradiction increments the contradiction count
// and lowers confidence, but never removes prior supporting evidence.
// The store serializes concurrent appends per insight id.
func (a *Agent) UpdateConfidence(ctx context.Context, insightID, scenarioID, regimeKey string, contradicts bool, robustness float64) error {
	event := &domain.EvidenceEvent{
		InsightID:           insightID,
		ScenarioID:          scenarioID,
		RegimeKey:           regimeKey,
		Contradicts:         contradicts,
		ParameterRobustness: robustness,
	}

	return a.appendWithRetry(ctx, event, func(current *domain.StrategyInsight, _ int64) (*domain.StrategyInsight, error) {
		updated := *current
		updated.ScenarioIDs = append([]string(nil), current.ScenarioIDs...)
		updated.RegimeKeys = append([]string(nil), current.RegimeKeys...)
		updated.Confidence.RegimeCoverage = append([]string(nil), current.Confidence.RegimeCoverage...)

		if contradicts {
			updated.Confidence.ContradictionCount++
			updated.Confidence.HasBeenContradicted = true
		} else {
			if !contains(updated.ScenarioIDs, scenarioID) {
				updated.ScenarioIDs = append(updated.ScenarioIDs, scenarioID)
				updated.Confidence.NumSupportingScenarios++
			}
			if regimeKey != "" && !contains(updated.RegimeKeys, regimeKey) {
				updated.RegimeKeys = append(updated.RegimeKeys, regimeKey)
			}
			if regimeKey != "" && !contains(updated.Confidence.RegimeCoverage, regimeKey) {
				updated.Confidence.RegimeCoverage = append(updated.Confidence.RegimeCoverage, regimeKey)
			}
		}
		if robustness > updated.Confidence.ParameterRobustness {
			updated.Confidence.ParameterRobustness = robustness
		}

		updated.ConfidenceScore = Score(updated.Confidence)
		updated.IsWeak = updated.ConfidenceScore < WeakThreshold
		updated.EvidenceStatus = EvidenceStatus(updated.Confidence)
		return &updated, nil
	})
}

// appendWithRetry appends one evidence event, retrying when the store
// reports a serialization conflict (ErrConflict). Each attempt re-reads
// the aggregate under the store's lock, so retries never double-apply.
func (a *Agent) appendWithRetry(ctx context.Context, event *domain.EvidenceEvent, apply storage.ApplyEvidenceFunc) error {
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		err = a.store.AppendEvidence(ctx, event, apply)
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
	}
	return err
}

// Insights returns all stored insights.
func (a *Agent) Insights(ctx context.Context) ([]*domain.StrategyInsight, error) {
	return a.store.ListInsights(ctx)
}

func dedupe(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	var out []string
	for _, x := range xs {
		if x == "" {
			continue
		}
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
