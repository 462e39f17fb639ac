package scenario

import (
	"fmt"
	"strconv"
	"time"

	"strategy-research-lab/internal/domain"
)

// Hints bias variant generation toward a parameter region or regime
// worth validating or stress-testing, typically derived from proposal
// output. Generation stays fully deterministic either way.
type Hints struct {
	FocusParameter string // restrict sweeps to this axis when set
	RegimeTarget   string // restrict window variants to matching regimes when set
}

// Fixed sweep grids per parameter axis. Enumerated, never sampled.
var sweepGrids = map[string][]float64{
	"trust_threshold": {0.50, 0.55, 0.65, 0.75, 0.85},
	"min_confidence":  {0.50, 0.60, 0.70},
	"stop_loss":       {0.03, 0.05, 0.08, 0.12},
	"take_profit":     {0.08, 0.12, 0.18, 0.25},
	"cooldown_period": {5, 10, 20, 40},
}

// sweepAxisOrder fixes the axis enumeration order.
var sweepAxisOrder = []string{
	"trust_threshold",
	"min_confidence",
	"stop_loss",
	"take_profit",
	"cooldown_period",
}

// regimeWindow is one calendar slice chosen to land in a distinct regime.
type regimeWindow struct {
	name        string
	description string
	start, end  time.Time
}

var regimeWindows = []regimeWindow{
	{
		name:        "covid-crash",
		description: "pandemic crash window: high volatility, stressed liquidity, panic selloff",
		start:       time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC),
		end:         time.Date(2020, 4, 30, 0, 0, 0, 0, time.UTC),
	},
	{
		name:        "easing-bull",
		description: "stimulus-driven bull rally under monetary easing",
		start:       time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		end:         time.Date(2021, 10, 29, 0, 0, 0, 0, time.UTC),
	},
	{
		name:        "tightening-bear",
		description: "rate-hike tightening cycle, sustained decline",
		start:       time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
		end:         time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC),
	},
	{
		name:        "neutral-chop",
		description: "post-tightening sideways consolidation, steady rates",
		start:       time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
		end:         time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC),
	},
}

// Variants derives parameter-sweep and regime-focused siblings of base.
// One sweep scenario is produced per axis, holding the balanced archetype
// fixed and substituting each grid value, so a single result set carries
// the whole axis for sensitivity analysis. One window scenario is
// produced per calendar slice, carrying base's parameter sets.
func (g *Generator) Variants(base *domain.ScenarioDefinition, hints *Hints) ([]*domain.ScenarioDefinition, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}

	var out []*domain.ScenarioDefinition

	for _, axis := range sweepAxisOrder {
		if hints != nil && hints.FocusParameter != "" && hints.FocusParameter != axis {
			continue
		}
		def, err := g.sweepVariant(base, axis, sweepGrids[axis])
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}

	for _, w := range regimeWindows {
		def, err := g.build(
			base.Name+"-"+w.name,
			w.description,
			w.start, w.end,
			base.Symbols,
			base.ParamSets,
		)
		if err != nil {
			return nil, err
		}
		if hints != nil && hints.RegimeTarget != "" && def.Regime.Key() != hints.RegimeTarget {
			continue
		}
		out = append(out, def)
	}

	return out, nil
}

// sweepVariant builds one scenario whose parameter sets enumerate the
// grid along a single axis.
func (g *Generator) sweepVariant(base *domain.ScenarioDefinition, axis string, grid []float64) (*domain.ScenarioDefinition, error) {
	params := make([]domain.ParameterSet, 0, len(grid))
	for _, v := range grid {
		p := domain.ParameterSetBalanced
		p.Name = fmt.Sprintf("%s_%s_%s", domain.ParamSetBalanced, axis, strconv.FormatFloat(v, 'g', -1, 64))
		switch axis {
		case "trust_threshold":
			p.TrustThreshold = v
		case "min_confidence":
			p.MinConfidence = v
		case "stop_loss":
			p.StopLoss = v
		case "take_profit":
			p.TakeProfit = v
		case "cooldown_period":
			p.CooldownPeriod = int(v)
		}
		params = append(params, p)
	}

	return g.build(
		fmt.Sprintf("%s-sweep-%s", base.Name, axis),
		fmt.Sprintf("parameter sweep of %s over the fixed grid, derived from %s", axis, base.Name),
		base.StartDate, base.EndDate,
		base.Symbols,
		params,
	)
}
