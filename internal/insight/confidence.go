package insight

import (
	"math"

	"strategy-research-lab/internal/domain"
)

// ConfidenceFormulaVersion identifies the scoring formula. Bump it when
// any constant below changes so stored scores remain interpretable.
const ConfidenceFormulaVersion = 1

// Confidence formula constants. All confidence scoring flows through
// Score; nothing else in the codebase adjusts confidence values.
const (
	// BaseConfidence is the floor for a single-scenario insight.
	BaseConfidence = 0.30

	// SupportBonus is added per supporting scenario beyond the first,
	// capped by MaxSupportBonus.
	SupportBonus    = 0.05
	MaxSupportBonus = 0.25

	// RegimeBonus is added per distinct regime beyond the first, capped
	// by MaxRegimeBonus. Breadth across regimes is worth more than
	// repetition inside one.
	RegimeBonus    = 0.08
	MaxRegimeBonus = 0.24

	// RobustnessBonus scales the parameter-robustness score in [0, 1].
	RobustnessBonus = 0.15

	// ContradictionPenalty is subtracted per contradicting observation.
	ContradictionPenalty = 0.15

	// WeakThreshold marks an insight as weak below this score.
	WeakThreshold = 0.50
)

// Evidence gating bounds: STRONG requires both, regardless of score.
const (
	StrongMinSupport        = 3
	StrongMinRegimeCoverage = 2
)

// Score computes the confidence score from accumulated evidence:
// base + support + regime coverage + robustness - contradictions,
// clamped to [0, 1].
func Score(c domain.InsightConfidence) float64 {
	score := BaseConfidence

	if c.NumSupportingScenarios > 1 {
		score += math.Min(float64(c.NumSupportingScenarios-1)*SupportBonus, MaxSupportBonus)
	}
	if n := len(c.RegimeCoverage); n > 1 {
		score += math.Min(float64(n-1)*RegimeBonus, MaxRegimeBonus)
	}
	score += c.ParameterRobustness * RobustnessBonus
	score -= float64(c.ContradictionCount) * ContradictionPenalty

	return math.Max(0, math.Min(1, score))
}

// EvidenceStatus applies the gating rule: an insight is STRONG only with
// at least StrongMinSupport supporting scenarios across at least
// StrongMinRegimeCoverage regimes. A single lucky scenario can never be
// reported as validated, whatever its numeric confidence.
func EvidenceStatus(c domain.InsightConfidence) string {
	if c.NumSupportingScenarios >= StrongMinSupport && len(c.RegimeCoverage) >= StrongMinRegimeCoverage {
		return domain.EvidenceStrong
	}
	return domain.EvidencePreliminary
}
