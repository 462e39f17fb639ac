// Package sim executes scenarios against historical bars. A run is a pure
// function of the scenario definition and the bar data: single-threaded,
// bar-by-bar, no randomness, no lookahead. Intelligence accumulates only
// by comparing immutable results, never by tuning parameters in place.
package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/idhash"
	"strategy-research-lab/internal/marketdata"
	"strategy-research-lab/internal/storage"
)

// Runner executes scenarios.
type Runner struct {
	provider    marketdata.Provider
	resultStore storage.ResultStore // optional; results persisted when set
	sizing      SizingConfig
	logger      *zap.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Provider    marketdata.Provider
	ResultStore storage.ResultStore
	Sizing      SizingConfig
	Logger      *zap.Logger
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sizing := opts.Sizing
	if sizing == (SizingConfig{}) {
		sizing = DefaultSizingConfig()
	}
	return &Runner{
		provider:    opts.Provider,
		resultStore: opts.ResultStore,
		sizing:      sizing,
		logger:      logger,
	}
}

// Run executes one scenario: every symbol crossed with every parameter
// set. Bars are loaded once per symbol up front; a symbol with missing or
// short history produces skipped results, never a failed run. Invalid
// definitions fail before any simulation.
func (r *Runner) Run(ctx context.Context, def *domain.ScenarioDefinition) ([]*domain.ScenarioResult, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if err := r.sizing.Validate(); err != nil {
		return nil, err
	}

	startMs := def.StartDate.UTC().UnixMilli()
	endMs := def.EndDate.UTC().UnixMilli()
	regimeKey := def.Regime.Key()

	results := make([]*domain.ScenarioResult, 0, len(def.Symbols)*len(def.ParamSets))

	for _, symbol := range def.Symbols {
		bars, err := r.provider.Bars(ctx, symbol, startMs, endMs)
		if err != nil {
			return nil, fmt.Errorf("load bars for %s: %w", symbol, err)
		}

		skipReason := ""
		switch {
		case len(bars) == 0:
			skipReason = domain.SkipReasonNoHistory
		case len(bars) < r.sizing.MinBarsRequired:
			skipReason = domain.SkipReasonShortHistory
		}

		for _, params := range def.ParamSets {
			var res domain.ScenarioResult
			if skipReason != "" {
				res = skippedResult(skipReason, params, len(bars))
				r.logger.Warn("symbol skipped",
					zap.String("scenario_id", def.ScenarioID),
					zap.String("symbol", symbol),
					zap.String("reason", skipReason),
					zap.Int("bars", len(bars)))
			} else {
				run := simulateSeries(symbol, bars, params, r.sizing)
				res = buildResult(run, params)
				// A zero-trade run over sufficient history is suspect:
				// flag it so the campaign is distinguishable from a crash.
				res.Verified = res.TradeCount > 0
			}

			res.ScenarioID = def.ScenarioID
			res.Symbol = symbol
			res.RegimeKey = regimeKey
			res.ResultID = idhash.ResultID(def.ScenarioID, symbol, params.Name)
			resCopy := res
			results = append(results, &resCopy)
		}
	}

	if r.resultStore != nil {
		if err := r.resultStore.InsertBulk(ctx, results); err != nil {
			return nil, fmt.Errorf("persist results: %w", err)
		}
	}

	r.logger.Info("scenario run complete",
		zap.String("scenario_id", def.ScenarioID),
		zap.Int("results", len(results)))

	return results, nil
}

func skippedResult(reason string, params domain.ParameterSet, barCount int) domain.ScenarioResult {
	return domain.ScenarioResult{
		SharpeValid:   false,
		BarsProcessed: barCount,
		Verified:      false,
		SkipReason:    reason,
		Params:        params,
	}
}
