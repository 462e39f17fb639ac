package evaluator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"strategy-research-lab/internal/domain"
)

// ErrUnknownParameter is returned for a parameter name outside the
// parameter set vocabulary.
var ErrUnknownParameter = errors.New("unknown parameter name")

// Parameter names accepted by Sensitivity and FailureBoundaries.
const (
	ParamTrustThreshold  = "trust_threshold"
	ParamMinConfidence   = "min_confidence"
	ParamMaxPositionSize = "max_position_size"
	ParamStopLoss        = "stop_loss"
	ParamTakeProfit      = "take_profit"
	ParamCooldownPeriod  = "cooldown_period"
)

// Config holds the evaluator decision thresholds.
type Config struct {
	// HighSensitivityReturnRange flags a parameter as high-sensitivity
	// when the inter-group mean-return range exceeds it (percent points).
	HighSensitivityReturnRange float64

	// CliffDropPct is the minimum adjacent-value mean-return drop
	// (percent points) to call a failure boundary.
	CliffDropPct float64

	// CliffStddevMult additionally requires the drop to exceed this
	// multiple of the inter-group standard deviation, so noisy but flat
	// axes do not produce phantom cliffs.
	CliffStddevMult float64
}

// DefaultConfig returns the default evaluator thresholds.
func DefaultConfig() Config {
	return Config{
		HighSensitivityReturnRange: 10.0,
		CliffDropPct:               15.0,
		CliffStddevMult:            1.5,
	}
}

// SensitivityGroup is the metric summary for one distinct parameter value.
type SensitivityGroup struct {
	Value              float64
	ResultCount        int
	MeanReturnPct      float64
	MeanSharpe         float64
	InvalidSharpeCount int
	MeanDrawdownPct    float64
}

// SensitivityReport describes how outcomes vary along one parameter axis.
type SensitivityReport struct {
	ParameterName   string
	Groups          []SensitivityGroup // sorted by Value ASC
	ReturnRange     float64            // max minus min of group mean returns
	ReturnStddev    float64            // stddev across group mean returns
	HighSensitivity bool
}

// Evaluator runs read-only analyses over scenario results.
type Evaluator struct {
	cfg Config
}

// New creates an evaluator with the given thresholds.
func New(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Sensitivity groups results by distinct values of the named parameter and
// measures inter-group spread. A parameter whose return range exceeds the
// configured threshold is flagged high-sensitivity.
func (e *Evaluator) Sensitivity(results []*domain.ScenarioResult, parameterName string) (*SensitivityReport, error) {
	groups, err := groupByParameter(results, parameterName)
	if err != nil {
		return nil, err
	}

	report := &SensitivityReport{
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

	minMean, maxMean := means[0], means[0]
	for _, m := range means {
		minMean = math.Min(minMean, m)
		maxMean = math.Max(maxMean, m)
	}
	report.ReturnRange = maxMean - minMean
	report.ReturnStddev = stddev(means)
	report.HighSensitivity = report.ReturnRange > e.cfg.HighSensitivityReturnRange

	return report, nil
}

// groupByParameter buckets results by the parameter's distinct values and
// computes per-group means. Invalid Sharpe values are excluded from the
// Sharpe mean but counted per group.
func groupByParameter(results []*domain.ScenarioResult, parameterName string) ([]SensitivityGroup, error) {
	buckets := make(map[float64][]*domain.ScenarioResult)
	for _, r := range results {
		v, err := parameterValue(r.Params, parameterName)
		if err != nil {
			return nil, err
		}
		buckets[v] = append(buckets[v], r)
	}

	values := make([]float64, 0, len(buckets))
	for v := range buckets {
		values = append(values, v)
	}
	sort.Float64s(values)

	groups := make([]SensitivityGroup, 0, len(values))
	for _, v := range values {
		rs := buckets[v]
		g := SensitivityGroup{Value: v, ResultCount: len(rs)}

		returnSum, sharpeSum, ddSum := 0.0, 0.0, 0.0
		sharpeN := 0
		for _, r := range rs {
			returnSum += r.TotalReturnPct
			ddSum += r.MaxDrawdownPct
			if r.SharpeValid {
				sharpeSum += r.SharpeRatio
				sharpeN++
			} else {
				g.InvalidSharpeCount++
			}
		}
		g.MeanReturnPct = returnSum / float64(len(rs))
		g.MeanDrawdownPct = ddSum / float64(len(rs))
		if sharpeN > 0 {
			g.MeanSharpe = sharpeSum / float64(sharpeN)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// parameterValue extracts the named field from a parameter set.
func parameterValue(p domain.ParameterSet, name string) (float64, error) {
	switch name {
	case ParamTrustThreshold:
		return p.TrustThreshold, nil
	case ParamMinConfidence:
		return p.MinConfidence, nil
	case ParamMaxPositionSize:
		return p.MaxPositionSize, nil
	case ParamStopLoss:
		return p.StopLoss, nil
	case ParamTakeProfit:
		return p.TakeProfit, nil
	case ParamCooldownPeriod:
		return float64(p.CooldownPeriod), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
}

// stddev computes the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}
