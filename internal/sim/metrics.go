package sim

import (
	"math"

	"strategy-research-lab/internal/domain"
)

// tradingDaysPerYear annualizes the per-bar Sharpe ratio.
const tradingDaysPerYear = 252

// buildResult computes all outcome metrics for one completed walk.
func buildResult(run seriesRun, params domain.ParameterSet) domain.ScenarioResult {
	sharpe := sharpeRatio(run.equity)

	wins := 0
	for _, f := range run.fills {
		if f.ReturnPct > 0 {
			wins++
		}
	}
	winRate := 0.0
	if len(run.fills) > 0 {
		winRate = float64(wins) / float64(len(run.fills))
	}

	totalReturn := 0.0
	if len(run.equity) > 0 {
		totalReturn = (run.equity[len(run.equity)-1] - 1.0) * 100
	}

	return domain.ScenarioResult{
		TotalReturnPct: totalReturn,
		SharpeRatio:    sharpe,
		SharpeValid:    !math.IsNaN(sharpe) && !math.IsInf(sharpe, 0),
		MaxDrawdownPct: maxDrawdownPct(run.equity),
		WinRate:        winRate,
		TradeCount:     len(run.fills),
		BarsProcessed:  len(run.equity),
		Params:         params,
		Fills:          run.fills,
	}
}

// sharpeRatio computes the annualized Sharpe over per-bar equity returns.
// A zero-variance series yields NaN; callers must flag it, never fold it
// into aggregates.
func sharpeRatio(equity []float64) float64 {
	if len(equity) < 2 {
		return math.NaN()
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			return math.NaN()
		}
		returns = append(returns, equity[i]/equity[i-1]-1)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	std := math.Sqrt(variance)
	// 0/0 and x/0 both surface as invalid, by way of IEEE semantics.
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdownPct computes the worst peak-to-trough decline on the equity
// curve, as a positive percentage of the peak.
func maxDrawdownPct(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0]
	maxDD := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			dd := (peak - e) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// Summarize aggregates one scenario run. expected is the number of
// (symbol, parameter set) combinations the scenario defines, so skipped
// symbols show up as completion_rate < 1 instead of disappearing.
func Summarize(scenarioID string, results []*domain.ScenarioResult, expected int) domain.CampaignSummary {
	s := domain.CampaignSummary{
		ScenarioID:  scenarioID,
		ResultCount: len(results),
		Verified:    true,
	}

	for _, r := range results {
		if r.SkipReason != "" {
			s.SkippedCount++
		}
		if !r.SharpeValid {
			s.InvalidSharpeCount++
		}
		if !r.Verified {
			s.Verified = false
		}
		s.TotalTrades += r.TradeCount
	}

	if expected > 0 {
		s.CompletionRate = float64(len(results)-s.SkippedCount) / float64(expected)
	}
	if len(results) == 0 {
		s.Verified = false
	}
	return s
}

// MeanValidSharpe averages Sharpe over results with a valid ratio only.
// Returns the mean and the count of invalid values excluded.
func MeanValidSharpe(results []*domain.ScenarioResult) (mean float64, invalidCount int) {
	sum := 0.0
	n := 0
	for _, r := range results {
		if !r.SharpeValid {
			invalidCount++
			continue
		}
		sum += r.SharpeRatio
		n++
	}
	if n == 0 {
		return 0, invalidCount
	}
	return sum / float64(n), invalidCount
}
