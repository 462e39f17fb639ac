// Package orchestrator runs the research loop end to end.
// It coordinates: scenario selection, simulation, evaluation, insight
// accumulation, and proposal generation, persisting an iteration record
// for every pass.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/evaluator"
	"strategy-research-lab/internal/insight"
	"strategy-research-lab/internal/marketdata"
	"strategy-research-lab/internal/proposal"
	"strategy-research-lab/internal/regime"
	"strategy-research-lab/internal/scenario"
	"strategy-research-lab/internal/sim"
	"strategy-research-lab/internal/storage"
)

// Insight-derivation thresholds. A scenario has to beat (or trail) the
// baseline by a meaningful margin before it becomes recorded memory;
// small deltas are noise, not knowledge.
const (
	outperformDeltaPct   = 5.0
	underperformDeltaPct = -5.0
)

// Orchestrator coordinates one research-loop iteration at a time.
type Orchestrator struct {
	scenarioStore  storage.ScenarioStore
	resultStore    storage.ResultStore
	iterationStore storage.IterationStore

	generator *scenario.Generator
	runner    *sim.Runner
	eval      *evaluator.Evaluator
	memory    *insight.Agent
	proposer  *proposal.Generator

	maxScenarios  int
	proposalLimit int
	logger        *zap.Logger
}

// Options for creating an Orchestrator.
type Options struct {
	// Required stores
	ScenarioStore  storage.ScenarioStore
	ResultStore    storage.ResultStore
	InsightStore   storage.InsightStore
	IterationStore storage.IterationStore

	// Bar source for the simulation runner
	Provider marketdata.Provider

	// Tuning
	Sizing          sim.SizingConfig
	EvaluatorConfig evaluator.Config

	// MaxScenariosPerIteration caps how many new scenarios one iteration
	// executes. Zero means the default of 6.
	MaxScenariosPerIteration int

	// ProposalLimit caps the ranked proposal list. Zero means 10.
	ProposalLimit int

	Logger *zap.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxScenarios := opts.MaxScenariosPerIteration
	if maxScenarios <= 0 {
		maxScenarios = 6
	}
	proposalLimit := opts.ProposalLimit
	if proposalLimit <= 0 {
		proposalLimit = 10
	}
	evalCfg := opts.EvaluatorConfig
	if evalCfg == (evaluator.Config{}) {
		evalCfg = evaluator.DefaultConfig()
	}

	return &Orchestrator{
		scenarioStore:  opts.ScenarioStore,
		resultStore:    opts.ResultStore,
		iterationStore: opts.IterationStore,
		generator:      scenario.NewGenerator(),
		runner: sim.NewRunner(sim.RunnerOptions{
			Provider:    opts.Provider,
			ResultStore: opts.ResultStore,
			Sizing:      opts.Sizing,
			Logger:      logger,
		}),
		eval:          evaluator.New(evalCfg),
		memory:        insight.NewAgent(opts.InsightStore, logger),
		proposer:      proposal.NewGenerator(logger),
		maxScenarios:  maxScenarios,
		proposalLimit: proposalLimit,
		logger:        logger,
	}
}

// IterationResult contains the artifacts of one iteration.
type IterationResult struct {
	Record    *domain.IterationRecord
	Proposals []*domain.ExperimentProposal
}

// RunIteration executes one pass of the research loop.
// Phases:
//  1. Ensure the baseline scenario exists and has results
//  2. Select candidate scenarios from current proposals
//  3. Simulate each new scenario
//  4. Evaluate against the baseline and derive insights
//  5. Generate ranked proposals for the next iteration
//  6. Persist the iteration record
func (o *Orchestrator) RunIteration(ctx context.Context) (*IterationResult, error) {
	return o.runIteration(ctx, nil)
}

// ReproduceIteration runs one pass of the research loop around a single
// stored scenario instead of an auto-generated slate. The scenario has
// already been simulated, so its immutable stored results are re-evaluated
// against the baseline and folded into memory again.
func (o *Orchestrator) ReproduceIteration(ctx context.Context, scenarioID string) (*IterationResult, error) {
	def, err := o.scenarioStore.GetByID(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", scenarioID, err)
	}
	return o.runIteration(ctx, def)
}

func (o *Orchestrator) runIteration(ctx context.Context, explicit *domain.ScenarioDefinition) (*IterationResult, error) {
	startedAt := time.Now().UTC()

	// Phase 1: baseline.
	baseline, baselineResults, err := o.ensureBaseline(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (baseline): %w", err)
	}

	record := &domain.IterationRecord{
		IterationID: uuid.NewString(),
		StartedAtMs: startedAt.UnixMilli(),
	}
	record.ScenarioIDs = append(record.ScenarioIDs, baseline.ScenarioID)

	// Phase 2: scenario selection. An explicit scenario bypasses variant
	// generation; otherwise the top open proposal biases the slate.
	var candidates []*domain.ScenarioDefinition
	if explicit != nil {
		candidates = []*domain.ScenarioDefinition{explicit}
	} else {
		hints, err := o.selectionHints(ctx)
		if err != nil {
			return nil, fmt.Errorf("phase 2 (selection): %w", err)
		}
		candidates, err = o.generator.Variants(baseline, hints)
		if err != nil {
			return nil, fmt.Errorf("phase 2 (variants): %w", err)
		}
	}

	// Phase 3: simulate every candidate not seen before.
	executed := 0
	allResults := append([]*domain.ScenarioResult(nil), baselineResults...)
	for _, def := range candidates {
		if executed >= o.maxScenarios {
			break
		}
		results, ran, err := o.runScenario(ctx, def)
		if err != nil {
			// A failed scenario run is recorded and reported, never
			// silently retried.
			record.FailedScenarios = append(record.FailedScenarios,
				fmt.Sprintf("%s: %v", def.ScenarioID, err))
			o.logger.Error("scenario failed",
				zap.String("scenario_id", def.ScenarioID),
				zap.Error(err))
			continue
		}
		if !ran {
			if explicit == nil {
				continue
			}
			// Reproduction: the stored, immutable result set stands in
			// for a re-run.
			results, err = o.resultStore.GetByScenarioID(ctx, def.ScenarioID)
			if err != nil {
				return nil, fmt.Errorf("phase 3 (stored results %s): %w", def.ScenarioID, err)
			}
		}
		executed++
		record.ScenarioIDs = appendUnique(record.ScenarioIDs, def.ScenarioID)
		for _, r := range results {
			record.ResultIDs = appendUnique(record.ResultIDs, r.ResultID)
		}
		if def.ScenarioID != baseline.ScenarioID {
			allResults = append(allResults, results...)
		}

		// Phase 4: evaluate this scenario and fold findings into memory.
		insightIDs, err := o.evaluateScenario(ctx, def, results, baselineResults)
		if err != nil {
			return nil, fmt.Errorf("phase 4 (evaluate %s): %w", def.ScenarioID, err)
		}
		record.InsightIDs = appendUnique(record.InsightIDs, insightIDs...)
	}

	attempted := executed + len(record.FailedScenarios)
	if attempted > 0 {
		record.CompletionRate = float64(executed) / float64(attempted)
	} else {
		record.CompletionRate = 1.0
	}

	// Phase 5: proposals for the next iteration.
	insights, err := o.memory.Insights(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 5 (load insights): %w", err)
	}
	proposals := o.proposer.Generate(ctx, record.ScenarioIDs, insights,
		regime.Coverage(allResults), o.proposalLimit)
	record.ProposalCount = len(proposals)

	// Phase 6: persist the iteration record.
	count, err := o.iterationStore.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 6 (count iterations): %w", err)
	}
	record.Number = count + 1
	record.FinishedAtMs = time.Now().UTC().UnixMilli()
	if err := o.iterationStore.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("phase 6 (persist iteration): %w", err)
	}

	o.logger.Info("iteration complete",
		zap.Int("number", record.Number),
		zap.Int("scenarios", len(record.ScenarioIDs)),
		zap.Int("failed", len(record.FailedScenarios)),
		zap.Int("insights", len(record.InsightIDs)),
		zap.Int("proposals", record.ProposalCount))

	return &IterationResult{Record: record, Proposals: proposals}, nil
}

// ensureBaseline makes sure the canonical baseline scenario exists and
// has been simulated, and returns it with its results.
func (o *Orchestrator) ensureBaseline(ctx context.Context) (*domain.ScenarioDefinition, []*domain.ScenarioResult, error) {
	baseline, err := o.generator.Baseline()
	if err != nil {
		return nil, nil, err
	}

	results, ran, err := o.runScenario(ctx, baseline)
	if err != nil {
		return nil, nil, err
	}
	if !ran {
		// Already simulated in a previous iteration. Results are
		// immutable, so the stored set is authoritative.
		results, err = o.resultStore.GetByScenarioID(ctx, baseline.ScenarioID)
		if err != nil {
			return nil, nil, err
		}
	}
	return baseline, results, nil
}

// runScenario registers and simulates one scenario. The scenario id is
// content-derived, so a duplicate insert means this exact experiment has
// already run; ran=false signals the caller to reuse stored results.
func (o *Orchestrator) runScenario(ctx context.Context, def *domain.ScenarioDefinition) ([]*domain.ScenarioResult, bool, error) {
	err := o.scenarioStore.Insert(ctx, def)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	results, err := o.runner.Run(ctx, def)
	if err != nil {
		return nil, false, err
	}
	return results, true, nil
}

// selectionHints turns the current top proposal into variant-generation
// hints. No proposals, or a proposal type without a scenario mapping,
// yields nil hints and the full default variant slate.
func (o *Orchestrator) selectionHints(ctx context.Context) (*scenario.Hints, error) {
	insights, err := o.memory.Insights(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := o.resultStore.List(ctx)
	if err != nil {
		return nil, err
	}

	proposals := o.proposer.Generate(ctx, nil, insights, regime.Coverage(stored), 1)
	if len(proposals) == 0 {
		return nil, nil
	}

	top := proposals[0]
	switch top.ProposalType {
	case domain.ProposalParameterGap:
		return &scenario.Hints{FocusParameter: top.Target}, nil
	case domain.ProposalRegimeTest:
		return &scenario.Hints{RegimeTarget: top.Target}, nil
	default:
		return nil, nil
	}
}

// evaluateScenario compares one scenario's results against the baseline
// and scans its parameter axes, recording insights for every finding
// that clears the evidence thresholds.
func (o *Orchestrator) evaluateScenario(ctx context.Context, def *domain.ScenarioDefinition, results, baselineResults []*domain.ScenarioResult) ([]string, error) {
	var insightIDs []string
	regimeKey := def.Regime.Key()

	delta := evaluator.Compare(baselineResults, results)
	if len(delta.Rows) > 0 {
		switch {
		case delta.MeanReturnDeltaPct >= outperformDeltaPct:
			ins, err := o.memory.AddInsight(ctx,
				domain.InsightWinningPattern,
				fmt.Sprintf("configuration %s outperforms the baseline in regime %s", def.Name, regimeKey),
				[]string{def.ScenarioID},
				[]string{regimeKey},
				0,
			)
			if err != nil {
				return nil, err
			}
			insightIDs = append(insightIDs, ins.InsightID)
		case delta.MeanReturnDeltaPct <= underperformDeltaPct:
			ins, err := o.memory.AddInsight(ctx,
				domain.InsightFailureMode,
				fmt.Sprintf("configuration %s underperforms the baseline in regime %s", def.Name, regimeKey),
				[]string{def.ScenarioID},
				[]string{regimeKey},
				0,
			)
			if err != nil {
				return nil, err
			}
			insightIDs = append(insightIDs, ins.InsightID)
		}
	}

	for _, axis := range sweptAxes(def) {
		report, err := o.eval.Sensitivity(results, axis)
		if err != nil {
			return nil, err
		}
		if report.HighSensitivity {
			ins, err := o.memory.AddInsight(ctx,
				domain.InsightRegimeHeuristic,
				fmt.Sprintf("returns are highly sensitive to %s in regime %s", axis, regimeKey),
				[]string{def.ScenarioID},
				[]string{regimeKey},
				0,
			)
			if err != nil {
				return nil, err
			}
			insightIDs = append(insightIDs, ins.InsightID)
		}

		boundaries, err := o.eval.FailureBoundaries(results, axis)
		if err != nil {
			return nil, err
		}
		for _, b := range boundaries.Boundaries {
			ins, err := o.memory.AddInsight(ctx,
				domain.InsightFailureMode,
				fmt.Sprintf("performance cliff on %s between %g and %g in regime %s", axis, b.LowerValue, b.UpperValue, regimeKey),
				[]string{def.ScenarioID},
				[]string{regimeKey},
				0,
			)
			if err != nil {
				return nil, err
			}
			insightIDs = append(insightIDs, ins.InsightID)
		}
	}

	return insightIDs, nil
}

// sweptAxes returns the parameter axes a scenario actually varies.
// Single-value axes carry no sensitivity signal.
func sweptAxes(def *domain.ScenarioDefinition) []string {
	axes := []string{
		evaluator.ParamTrustThreshold,
		evaluator.ParamMinConfidence,
		evaluator.ParamStopLoss,
		evaluator.ParamTakeProfit,
		evaluator.ParamCooldownPeriod,
	}

	var swept []string
	for _, axis := range axes {
		distinct := make(map[float64]struct{})
		for _, p := range def.ParamSets {
			switch axis {
			case evaluator.ParamTrustThreshold:
				distinct[p.TrustThreshold] = struct{}{}
			case evaluator.ParamMinConfidence:
				distinct[p.MinConfidence] = struct{}{}
			case evaluator.ParamStopLoss:
				distinct[p.StopLoss] = struct{}{}
			case evaluator.ParamTakeProfit:
				distinct[p.TakeProfit] = struct{}{}
			case evaluator.ParamCooldownPeriod:
				distinct[float64(p.CooldownPeriod)] = struct{}{}
			}
		}
		if len(distinct) > 1 {
			swept = append(swept, axis)
		}
	}
	return swept
}

func appendUnique(xs []string, ys ...string) []string {
	seen := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	for _, y := range ys {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		xs = append(xs, y)
	}
	return xs
}
