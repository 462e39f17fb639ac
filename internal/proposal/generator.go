// Package proposal ranks candidate next experiments by expected
// information gain. The ranking optimizes for reducing uncertainty about
// strategy behavior; ranking by expected profit is explicitly forbidden.
package proposal

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/regime"
)

// Info-gain scores per ranking source, in the mandated priority order:
// unexplored regimes beat weak-insight follow-ups beat parameter sweeps
// beat re-verification of already-strong insights.
const (
	gainUnexploredRegime = 0.90
	gainWeakInsight      = 0.60
	gainParameterGap     = 0.45
	gainReverification   = 0.25
)

// sweepAxes are the parameter axes worth gap-sweeping, in fixed order.
var sweepAxes = []string{
	"trust_threshold",
	"stop_loss",
	"take_profit",
	"cooldown_period",
}

// Generator produces ranked experiment proposals.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a proposal generator.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Generate ranks candidate experiments by expected information gain,
// descending, ties broken by target string so output order is
// deterministic. Proposal IDs are ephemeral uuids; proposals are
// recommendation artifacts, not ground truth.
func (g *Generator) Generate(
	_ context.Context,
	existingScenarioIDs []string,
	insights []*domain.StrategyInsight,
	coverage map[string]int,
	limit int,
) []*domain.ExperimentProposal {
	var proposals []*domain.ExperimentProposal

	// (a) Unexplored regimes score highest.
	for _, combo := range regime.AllCombinations() {
		key := combo.Key()
		if coverage[key] > 0 {
			continue
		}
		proposals = append(proposals, &domain.ExperimentProposal{
			ProposalID:       uuid.NewString(),
			ProposalType:     domain.ProposalRegimeTest,
			Target:           key,
			ExpectedInfoGain: gainUnexploredRegime,
			Priority:         9,
			Rationale:        fmt.Sprintf("regime %s has zero scenario coverage", key),
		})
	}

	// (b) Weak or PRELIMINARY insights needing more regime coverage.
	for _, ins := range sortedInsights(insights) {
		if !ins.IsWeak && ins.EvidenceStatus != domain.EvidencePreliminary {
			continue
		}
		// More missing evidence means more to learn from one experiment.
		gain := gainWeakInsight + (1-ins.ConfidenceScore)*0.10
		proposals = append(proposals, &domain.ExperimentProposal{
			ProposalID:       uuid.NewString(),
			ProposalType:     domain.ProposalUncertaintyReduction,
			Target:           ins.Description,
			ExpectedInfoGain: gain,
			Priority:         7,
			Rationale: fmt.Sprintf("insight has %d supporting scenario(s) across %d regime(s); needs broader coverage",
				ins.Confidence.NumSupportingScenarios, len(ins.Confidence.RegimeCoverage)),
			InsightIDs: []string{ins.InsightID},
		})
	}

	// (c) Parameter-gap sweeps. Cheap exploration once the coverage and
	// weak-insight queues run dry.
	for i, axis := range sweepAxes {
		proposals = append(proposals, &domain.ExperimentProposal{
			ProposalID:       uuid.NewString(),
			ProposalType:     domain.ProposalParameterGap,
			Target:           axis,
			ExpectedInfoGain: gainParameterGap - float64(i)*0.01,
			Priority:         5,
			Rationale:        fmt.Sprintf("sweep %s across the archetype grid to map unexplored ranges", axis),
		})
	}

	// (d) Re-verification of STRONG insights in regimes they have not
	// seen yet.
	for _, ins := range sortedInsights(insights) {
		if ins.EvidenceStatus != domain.EvidenceStrong {
			continue
		}
		proposals = append(proposals, &domain.ExperimentProposal{
			ProposalID:       uuid.NewString(),
			ProposalType:     domain.ProposalHypothesisTest,
			Target:           ins.Description,
			ExpectedInfoGain: gainReverification,
			Priority:         3,
			Rationale:        "re-verify a strong insight in regimes outside its current coverage",
			InsightIDs:       []string{ins.InsightID},
		})
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		if proposals[i].ExpectedInfoGain != proposals[j].ExpectedInfoGain {
			return proposals[i].ExpectedInfoGain > proposals[j].ExpectedInfoGain
		}
		return proposals[i].Target < proposals[j].Target
	})

	if limit > 0 && len(proposals) > limit {
		proposals = proposals[:limit]
	}

	g.logger.Info("proposals generated",
		zap.Int("count", len(proposals)),
		zap.Int("known_scenarios", len(existingScenarioIDs)))

	return proposals
}

func sortedInsights(insights []*domain.StrategyInsight) []*domain.StrategyInsight {
	sorted := make([]*domain.StrategyInsight, len(insights))
	copy(sorted, insights)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].InsightID < sorted[j].InsightID })
	return sorted
}
