package sim

import (
	"strategy-research-lab/internal/domain"
)

// seriesRun holds the raw output of one single-symbol, single-parameter-set
// walk: the closed fills and the per-bar equity curve.
type seriesRun struct {
	fills  []domain.TradeFill
	equity []float64 // equity after each bar, starts at 1.0
}

// openPosition tracks the single live position during a walk. At most one
// position is open at a time, so no two positions can double-count equity.
type openPosition struct {
	entryIndex   int
	entryPrice   float64
	sizeFraction float64
	units        float64
}

// simulateSeries walks ordered bars for one (symbol, parameter set) pair.
// Execution is bar-by-bar with no lookahead: entries fill at the signal
// bar's close, exits at the first triggered level in a later bar. Stops
// are checked before targets within a bar, the conservative assumption
// when both levels are touched.
func simulateSeries(symbol string, bars []*domain.Bar, params domain.ParameterSet, cfg SizingConfig) seriesRun {
	run := seriesRun{equity: make([]float64, 0, len(bars))}

	cash := 1.0
	var pos *openPosition

	for i, bar := range bars {
		if pos != nil {
			stopPrice := pos.entryPrice * (1 - params.StopLoss)
			targetPrice := pos.entryPrice * (1 + params.TakeProfit)
			holding := i - pos.entryIndex

			exitPrice := 0.0
			exitReason := ""
			switch {
			case bar.Low <= stopPrice:
				exitPrice, exitReason = stopPrice, domain.ExitReasonStopLoss
			case bar.High >= targetPrice:
				exitPrice, exitReason = targetPrice, domain.ExitReasonTakeProfit
			case holding >= params.CooldownPeriod:
				exitPrice, exitReason = bar.Close, domain.ExitReasonMaxHold
			}

			if exitReason != "" {
				cash += pos.units * exitPrice
				run.fills = append(run.fills, closeFill(symbol, params.Name, pos, bars[pos.entryIndex], bar, exitPrice, exitReason))
				pos = nil
			}
		}

		// Entry: only when flat, and never on the final bar.
		if pos == nil && i < len(bars)-1 {
			if bar.Trust >= params.TrustThreshold && bar.Quality >= params.MinConfidence {
				equity := cash
				f := positionFraction(bar.Trust, params, cfg)
				if f > 0 && bar.Close > 0 {
					committed := f * equity
					pos = &openPosition{
						entryIndex:   i,
						entryPrice:   bar.Close,
						sizeFraction: f,
						units:        committed / bar.Close,
					}
					cash -= committed
				}
			}
		}

		if pos != nil {
			run.equity = append(run.equity, cash+pos.units*bar.Close)
		} else {
			run.equity = append(run.equity, cash)
		}
	}

	// Force-close any position left open at the end of the data.
	if pos != nil {
		last := bars[len(bars)-1]
		cash += pos.units * last.Close
		run.fills = append(run.fills, closeFill(symbol, params.Name, pos, bars[pos.entryIndex], last, last.Close, domain.ExitReasonEndOfData))
		run.equity[len(run.equity)-1] = cash
	}

	return run
}

func closeFill(symbol, paramSetName string, pos *openPosition, entryBar, exitBar *domain.Bar, exitPrice float64, reason string) domain.TradeFill {
	return domain.TradeFill{
		Symbol:       symbol,
		ParamSetName: paramSetName,
		EntryDate:    entryBar.TimestampMs,
		EntryPrice:   pos.entryPrice,
		ExitDate:     exitBar.TimestampMs,
		ExitPrice:    exitPrice,
		SizeFraction: pos.sizeFraction,
		ExitReason:   reason,
		ReturnPct:    (exitPrice - pos.entryPrice) / pos.entryPrice * 100,
	}
}
