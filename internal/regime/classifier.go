// Package regime assigns fixed-vocabulary market-condition labels to
// scenarios. Classification is a pure function of scenario metadata:
// the same name, dates, and description always yield the same label.
// Regimes are never inferred from live data.
package regime

import (
	"errors"
	"strings"
	"time"

	"strategy-research-lab/internal/domain"
)

// ErrInvalidRange is returned for malformed date ranges.
var ErrInvalidRange = errors.New("invalid date range")

// macroWindow maps a historical calendar span to default axis values.
// Keyword hits in the scenario text override these per axis.
type macroWindow struct {
	start, end time.Time
	volatility string
	trend      string
	liquidity  string
	macro      string
}

var macroWindows = []macroWindow{
	{date(2020, 2, 1), date(2020, 4, 30), domain.VolatilityHigh, domain.TrendDown, domain.LiquidityStressed, domain.MacroEasing},
	{date(2020, 5, 1), date(2021, 11, 30), domain.VolatilityMedium, domain.TrendUp, domain.LiquidityNormal, domain.MacroEasing},
	{date(2021, 12, 1), date(2023, 7, 31), domain.VolatilityMedium, domain.TrendDown, domain.LiquidityNormal, domain.MacroTightening},
	{date(2023, 8, 1), date(2030, 12, 31), domain.VolatilityMedium, domain.TrendSideways, domain.LiquidityNormal, domain.MacroNeutral},
}

// Keyword vocabularies per axis. First match wins within an axis; the
// tables are scanned in fixed order so classification stays deterministic.
var (
	volatilityKeywords = []keywordRule{
		{domain.VolatilityHigh, []string{"crash", "panic", "capitulation", "volatile", "turmoil", "selloff", "high-vol"}},
		{domain.VolatilityLow, []string{"calm", "quiet", "grind", "low-vol"}},
	}
	trendKeywords = []keywordRule{
		{domain.TrendUp, []string{"bull", "rally", "recovery", "uptrend", "breakout"}},
		{domain.TrendDown, []string{"bear", "decline", "downtrend", "correction", "drawdown"}},
		{domain.TrendSideways, []string{"sideways", "range-bound", "chop", "consolidation"}},
	}
	liquidityKeywords = []keywordRule{
		{domain.LiquidityStressed, []string{"illiquid", "liquidity stress", "thin", "crisis", "stressed"}},
		{domain.LiquidityNormal, []string{"liquid", "deep book"}},
	}
	macroKeywords = []keywordRule{
		{domain.MacroTightening, []string{"tightening", "hike", "hawkish", "qt", "inflation"}},
		{domain.MacroEasing, []string{"easing", "stimulus", "dovish", "qe", "rate cut"}},
		{domain.MacroNeutral, []string{"neutral", "steady rates"}},
	}
)

type keywordRule struct {
	value    string
	keywords []string
}

// Classify assigns a regime label from scenario metadata. Axis values come
// from description/name keywords first, then from the calendar window with
// the largest overlap with [start, end], then from neutral defaults.
func Classify(name string, start, end time.Time, description string) (domain.RegimeClassification, error) {
	if start.IsZero() || end.IsZero() {
		return domain.RegimeClassification{}, ErrInvalidRange
	}
	if end.Before(start) {
		return domain.RegimeClassification{}, ErrInvalidRange
	}

	text := strings.ToLower(name + " " + description)
	window := dominantWindow(start, end)

	r := domain.RegimeClassification{
		Volatility: classifyAxis(text, volatilityKeywords, window.volatility),
		Trend:      classifyAxis(text, trendKeywords, window.trend),
		Liquidity:  classifyAxis(text, liquidityKeywords, window.liquidity),
		Macro:      classifyAxis(text, macroKeywords, window.macro),
	}
	return r, nil
}

// classifyAxis returns the first keyword rule matching the text, or the
// fallback when nothing matches.
func classifyAxis(text string, rules []keywordRule, fallback string) string {
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.value
			}
		}
	}
	return fallback
}

// dominantWindow returns the calendar window with the largest overlap with
// [start, end]. Ranges before the first window fall back to the last
// (neutral) window's defaults.
func dominantWindow(start, end time.Time) macroWindow {
	best := macroWindows[len(macroWindows)-1]
	var bestOverlap time.Duration
	for _, w := range macroWindows {
		o := overlap(start, end, w.start, w.end)
		if o > bestOverlap {
			bestOverlap = o
			best = w
		}
	}
	return best
}

func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	s := aStart
	if bStart.After(s) {
		s = bStart
	}
	e := aEnd
	if bEnd.Before(e) {
		e = bEnd
	}
	if e.Before(s) {
		return 0
	}
	return e.Sub(s)
}

// AllCombinations enumerates all 54 regime labels in a fixed order, used
// to find unexplored regimes.
func AllCombinations() []domain.RegimeClassification {
	vols := []string{domain.VolatilityLow, domain.VolatilityMedium, domain.VolatilityHigh}
	trends := []string{domain.TrendUp, domain.TrendSideways, domain.TrendDown}
	liqs := []string{domain.LiquidityNormal, domain.LiquidityStressed}
	macros := []string{domain.MacroEasing, domain.MacroTightening, domain.MacroNeutral}

	out := make([]domain.RegimeClassification, 0, len(vols)*len(trends)*len(liqs)*len(macros))
	for _, v := range vols {
		for _, t := range trends {
			for _, l := range liqs {
				for _, m := range macros {
					out = append(out, domain.RegimeClassification{
						Volatility: v, Trend: t, Liquidity: l, Macro: m,
					})
				}
			}
		}
	}
	return out
}

// Coverage counts results per regime key. Regimes absent from the map are
// unexplored.
func Coverage(results []*domain.ScenarioResult) map[string]int {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.RegimeKey]++
	}
	return counts
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
