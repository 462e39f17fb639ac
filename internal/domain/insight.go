package domain

// Insight type constants.
const (
	InsightWinningPattern  = "winning_pattern"
	InsightFailureMode     = "failure_mode"
	InsightRegimeHeuristic = "regime_heuristic"
)

// Evidence status constants. STRONG requires at least 3 supporting
// scenarios across at least 2 regimes; everything else is PRELIMINARY
// regardless of numeric confidence.
const (
	EvidenceStrong      = "STRONG"
	EvidencePreliminary = "PRELIMINARY"
)

// InsightConfidence is the evidence bookkeeping behind an insight's
// confidence score.
type InsightConfidence struct {
	NumSupportingScenarios int
	RegimeCoverage         []string // distinct regime keys where the insight held
	ParameterRobustness    float64  // [0, 1], from sensitivity analysis
	ContradictionCount     int
	HasBeenContradicted    bool
}

// StrategyInsight is a persisted, evidence-backed claim about strategy
// behavior. Mutated only by appending evidence; the aggregate state is
// recomputed from the accumulated journal, prior evidence is never removed.
type StrategyInsight struct {
	InsightID   string // stable hash of (type, description)
	InsightType string // winning_pattern | failure_mode | regime_heuristic
	Description string
	ScenarioIDs []string // supporting scenarios, insertion order, append-only
	RegimeKeys  []string // regimes where the insight held

	Confidence      InsightConfidence
	ConfidenceScore float64 // derived, [0, 1]
	IsWeak          bool    // ConfidenceScore < 0.5
	EvidenceStatus  string  // STRONG | PRELIMINARY
}

// EvidenceEvent is one append-only journal record for an insight. Seq is
// assigned by the store and is strictly increasing per insight.
type EvidenceEvent struct {
	InsightID           string
	Seq                 int64
	ScenarioID          string
	RegimeKey           string
	Contradicts         bool
	ParameterRobustness float64
}
