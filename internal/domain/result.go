package domain

import (
	"encoding/json"
	"math"
)

// Exit reason codes.
const (
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonTakeProfit = "TAKE_PROFIT"
	ExitReasonMaxHold    = "MAX_HOLD"
	ExitReasonEndOfData  = "END_OF_DATA"
)

// Skip reason codes for unverified results.
const (
	SkipReasonNoHistory    = "NO_HISTORY"
	SkipReasonShortHistory = "SHORT_HISTORY"
)

// TradeFill is one simulated round-trip trade. Fills are byproducts of a
// scenario run; they let the sizing bound and cash floor be audited without
// re-running the simulation.
type TradeFill struct {
	Symbol       string
	ParamSetName string
	EntryDate    int64   // unix ms of entry bar
	EntryPrice   float64 // entry fill price
	ExitDate     int64   // unix ms of exit bar
	ExitPrice    float64 // exit fill price
	SizeFraction float64 // fraction of equity committed at entry
	ExitReason   string  // exit reason code
	ReturnPct    float64 // net return on position, percent
}

// ScenarioResult is one simulation outcome per (scenario_id, symbol,
// parameter set). Produced exactly once by the simulator, immutable after.
type ScenarioResult struct {
	ResultID   string // deterministic hash of (scenario_id, symbol, param set name)
	ScenarioID string
	Symbol     string
	RegimeKey  string // coverage key of the scenario's regime

	TotalReturnPct float64
	SharpeRatio    float64 // NaN/Inf when return series has zero variance
	SharpeValid    bool    // false when SharpeRatio is NaN or Inf
	MaxDrawdownPct float64
	WinRate        float64
	TradeCount     int
	BarsProcessed  int

	// Verified is false when the symbol was skipped or the run produced no
	// trades despite sufficient history, so a zero-trade campaign is
	// distinguishable from a crashed one.
	Verified   bool
	SkipReason string // empty unless the symbol was skipped

	Params ParameterSet // full parameter set used
	Fills  []TradeFill
}

// MarshalJSON renders an invalid Sharpe ratio as null. encoding/json
// rejects NaN, and zero-variance runs produce one.
func (r ScenarioResult) MarshalJSON() ([]byte, error) {
	type plain ScenarioResult
	out := struct {
		plain
		SharpeRatio *float64
	}{plain: plain(r)}
	if r.SharpeValid && !math.IsNaN(r.SharpeRatio) && !math.IsInf(r.SharpeRatio, 0) {
		out.SharpeRatio = &r.SharpeRatio
	}
	return json.Marshal(out)
}

// CampaignSummary aggregates one scenario run across symbols and
// parameter sets.
type CampaignSummary struct {
	ScenarioID         string
	ResultCount        int
	SkippedCount       int
	InvalidSharpeCount int
	TotalTrades        int
	CompletionRate     float64 // non-skipped results / expected results
	Verified           bool    // false if any result is unverified
}
