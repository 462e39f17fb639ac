package domain

// IterationRecord is the persisted artifact of one research-loop
// iteration: what was run, what it produced, and what failed. Failed
// scenario runs are recorded here, never silently retried.
type IterationRecord struct {
	IterationID      string // uuid
	Number           int
	StartedAtMs      int64
	FinishedAtMs     int64
	ScenarioIDs      []string // scenarios executed this iteration
	ResultIDs        []string
	InsightIDs       []string // insights created or updated
	ProposalCount    int
	FailedScenarios  []string // "scenario_id: reason" entries
	CompletionRate   float64
}
