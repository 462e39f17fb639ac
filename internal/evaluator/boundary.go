package evaluator

import (
	"strategy-research-lab/internal/domain"
)

// Boundary is one detected performance cliff: crossing from LowerValue to
// UpperValue along the parameter axis drops mean return by ReturnDropPct.
type Boundary struct {
	LowerValue    float64
	UpperValue    float64
	LowerMeanPct  float64
	UpperMeanPct  float64
	ReturnDropPct float64 // positive = performance falls moving up the axis
}

// BoundaryReport lists the thresholds at which behavior changes
// qualitatively along one parameter axis, not just how it correlates.
type BoundaryReport struct {
	ParameterName string
	Groups        []SensitivityGroup // sorted by Value ASC
	Boundaries    []Boundary         // axis order
}

// FailureBoundaries scans the sorted parameter-value axis for performance
// cliffs: an adjacent-value mean-return drop exceeding both the absolute
// threshold and a multiple of the inter-group standard deviation. Cliffs
// are reported in both directions, since a parameter can fail at either
// end of its range.
func (e *Evaluator) FailureBoundaries(results []*domain.ScenarioResult, parameterName string) (*BoundaryReport, error) {
	groups, err := groupByParameter(results, parameterName)
	if err != nil {
		return nil, err
	}

	report := &BoundaryReport{
		ParameterName: parameterName,
		Groups:        groups,
	}
	if len(groups) < 2 {
		return report, nil
	}

	means := make([]float64, len(groups))
	for i, g := range groups {
		means[i] = g.MeanReturnPct
	}
	spread := stddev(means)

	for i := 1; i < len(groups); i++ {
		lower, upper := groups[i-1], groups[i]
		drop := lower.MeanReturnPct - upper.MeanReturnPct
		if drop < 0 {
			drop = -drop
		}
		if drop <= e.cfg.CliffDropPct {
			continue
		}
		if spread > 0 && drop <= e.cfg.CliffStddevMult*spread {
			continue
		}
		report.Boundaries = append(report.Boundaries, Boundary{
			LowerValue:    lower.Value,
			UpperValue:    upper.Value,
			LowerMeanPct:  lower.MeanReturnPct,
			UpperMeanPct:  upper.MeanReturnPct,
			ReturnDropPct: lower.MeanReturnPct - upper.MeanReturnPct,
		})
	}
	return report, nil
}
