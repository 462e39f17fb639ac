package domain

import "fmt"

// Volatility axis values.
const (
	VolatilityLow    = "low"
	VolatilityMedium = "medium"
	VolatilityHigh   = "high"
)

// Trend axis values.
const (
	TrendUp       = "up"
	TrendSideways = "sideways"
	TrendDown     = "down"
)

// Liquidity axis values.
const (
	LiquidityNormal   = "normal"
	LiquidityStressed = "stressed"
)

// Macro posture axis values.
const (
	MacroEasing     = "easing"
	MacroTightening = "tightening"
	MacroNeutral    = "neutral"
)

// RegimeClassification is a fixed four-axis market-condition label.
// It is assigned deterministically from scenario metadata, never inferred
// from live data. 3 x 3 x 2 x 3 = 54 combinations total.
type RegimeClassification struct {
	Volatility string // "low" | "medium" | "high"
	Trend      string // "up" | "sideways" | "down"
	Liquidity  string // "normal" | "stressed"
	Macro      string // "easing" | "tightening" | "neutral"
}

// Key returns the canonical coverage key "volatility/trend/liquidity/macro".
func (r RegimeClassification) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.Volatility, r.Trend, r.Liquidity, r.Macro)
}

// Valid reports whether every axis holds one of its enumerated values.
func (r RegimeClassification) Valid() bool {
	switch r.Volatility {
	case VolatilityLow, VolatilityMedium, VolatilityHigh:
	default:
		return false
	}
	switch r.Trend {
	case TrendUp, TrendSideways, TrendDown:
	default:
		return false
	}
	switch r.Liquidity {
	case LiquidityNormal, LiquidityStressed:
	default:
		return false
	}
	switch r.Macro {
	case MacroEasing, MacroTightening, MacroNeutral:
	default:
		return false
	}
	return true
}
