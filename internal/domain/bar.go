package domain

// Bar is one historical daily price bar with the collaborator-provided
// trust/quality signal precomputed per bar. The simulator consumes bars as
// read-only input; it never derives the signal itself.
type Bar struct {
	Symbol      string
	TimestampMs int64 // unix ms, UTC midnight of the bar's date
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Trust       float64 // pattern trust signal, [0, 1]
	Quality     float64 // signal quality/confidence, [0, 1]
}
