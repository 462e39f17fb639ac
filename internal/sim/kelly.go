package sim

import (
	"math"

	"strategy-research-lab/internal/domain"
)

// positionFraction computes the equity fraction to commit to one trade
// under the volatility-adjusted fractional-Kelly rule:
//
//  1. Calibrate the trust signal to the configured cap.
//  2. Slippage-adjust the win/loss ratio: inflate stop, deflate target.
//  3. kelly = (p*b - q) / b, scaled by the fractional-Kelly factor.
//  4. Clamp to the hard ceiling, the parameter set's own cap, and the
//     cash reserve floor.
//
// Returns 0 when the adjusted edge is non-positive; a zero fraction
// means no trade.
func positionFraction(trust float64, params domain.ParameterSet, cfg SizingConfig) float64 {
	p := math.Min(trust, cfg.TrustCap)
	q := 1 - p

	effStop := params.StopLoss * cfg.StopSlippageMult
	effTarget := params.TakeProfit * cfg.TargetSlippageMult
	if effStop <= 0 {
		return 0
	}
	b := effTarget / effStop

	kelly := (p*b - q) / b
	if kelly <= 0 {
		return 0
	}

	f := kelly * cfg.KellyFraction
	f = math.Min(f, cfg.PositionCeiling)
	f = math.Min(f, params.MaxPositionSize)
	f = math.Min(f, 1-cfg.CashReserveFloor)
	return f
}
