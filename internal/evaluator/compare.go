// Package evaluator compares immutable scenario results: delta metrics,
// parameter-sensitivity curves, and failure-boundary detection. All
// operations are read-only; stored results are never mutated.
package evaluator

import (
	"sort"

	"strategy-research-lab/internal/domain"
)

// DeltaRow is the per-(symbol, parameter set) breakdown of a comparison.
// Divergent rows are reported individually, never averaged away.
type DeltaRow struct {
	Symbol          string
	ParamSetName    string
	ReturnDeltaPct  float64
	SharpeDelta     float64
	SharpeValid     bool // false when either side has an invalid Sharpe
	DrawdownDelta   float64
	WinRateDelta    float64
	TradeCountDelta int
}

// DeltaMetrics is the result of comparing two scenario result sets.
type DeltaMetrics struct {
	ScenarioA string
	ScenarioB string

	// Aggregate signed deltas (B minus A).
	MeanReturnDeltaPct float64
	MeanSharpeDelta    float64
	InvalidSharpeCount int

	// Per-combination breakdown, sorted by (symbol, param set name).
	Rows []DeltaRow

	// Unmatched combinations present on only one side.
	OnlyInA []string
	OnlyInB []string
}

// Compare computes signed metric differences between two result sets,
// matched by (symbol, parameter set name). Both the aggregate delta and
// the full breakdown are reported so divergent behavior stays visible.
func Compare(a, b []*domain.ScenarioResult) *DeltaMetrics {
	d := &DeltaMetrics{}
	if len(a) > 0 {
		d.ScenarioA = a[0].ScenarioID
	}
	if len(b) > 0 {
		d.ScenarioB = b[0].ScenarioID
	}

	index := make(map[string]*domain.ScenarioResult, len(a))
	for _, r := range a {
		index[comboKey(r)] = r
	}

	matchedA := make(map[string]struct{}, len(a))
	returnSum, sharpeSum := 0.0, 0.0
	sharpeN := 0

	for _, rb := range b {
		key := comboKey(rb)
		ra, ok := index[key]
		if !ok {
			d.OnlyInB = append(d.OnlyInB, key)
			continue
		}
		matchedA[key] = struct{}{}

		row := DeltaRow{
			Symbol:          rb.Symbol,
			ParamSetName:    rb.Params.Name,
			ReturnDeltaPct:  rb.TotalReturnPct - ra.TotalReturnPct,
			DrawdownDelta:   rb.MaxDrawdownPct - ra.MaxDrawdownPct,
			WinRateDelta:    rb.WinRate - ra.WinRate,
			TradeCountDelta: rb.TradeCount - ra.TradeCount,
		}
		if ra.SharpeValid && rb.SharpeValid {
			row.SharpeDelta = rb.SharpeRatio - ra.SharpeRatio
			row.SharpeValid = true
			sharpeSum += row.SharpeDelta
			sharpeN++
		} else {
			d.InvalidSharpeCount++
		}

		returnSum += row.ReturnDeltaPct
		d.Rows = append(d.Rows, row)
	}

	for _, ra := range a {
		key := comboKey(ra)
		if _, ok := matchedA[key]; !ok {
			d.OnlyInA = append(d.OnlyInA, key)
		}
	}

	if len(d.Rows) > 0 {
		d.MeanReturnDeltaPct = returnSum / float64(len(d.Rows))
	}
	if sharpeN > 0 {
		d.MeanSharpeDelta = sharpeSum / float64(sharpeN)
	}

	sort.Slice(d.Rows, func(i, j int) bool {
		if d.Rows[i].Symbol != d.Rows[j].Symbol {
			return d.Rows[i].Symbol < d.Rows[j].Symbol
		}
		return d.Rows[i].ParamSetName < d.Rows[j].ParamSetName
	})
	sort.Strings(d.OnlyInA)
	sort.Strings(d.OnlyInB)

	return d
}

func comboKey(r *domain.ScenarioResult) string {
	return r.Symbol + "|" + r.Params.Name
}
