package domain

// Proposal type constants.
const (
	ProposalParameterGap         = "parameter_gap"
	ProposalRegimeTest           = "regime_test"
	ProposalHypothesisTest       = "hypothesis_test"
	ProposalUncertaintyReduction = "uncertainty_reduction"
)

// ExperimentProposal is a ranked recommendation for the next experiment.
// Proposals are ephemeral per iteration; they are recommendation artifacts,
// not ground truth, and are never ranked by expected return.
type ExperimentProposal struct {
	ProposalID       string  // uuid, not content-addressed
	ProposalType     string
	Target           string  // what to explore (regime key, parameter region, ...)
	ExpectedInfoGain float64 // expected reduction in uncertainty, [0, 1]
	Priority         int     // 1..10
	Rationale        string
	InsightIDs       []string // insights this proposal targets, may be empty
}
