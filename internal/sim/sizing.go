package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidSizingConfig is returned when sizing constants fail validation.
var ErrInvalidSizingConfig = errors.New("invalid sizing config")

// SizingConfig holds the volatility-adjusted fractional-Kelly constants.
// These were tuned empirically in earlier research iterations with
// materially different outcomes, so they are configuration, not fixed law.
type SizingConfig struct {
	// TrustCap bounds the calibrated win probability. Raw trust signals
	// run hot; an uncapped p overbets badly in volatile regimes.
	TrustCap float64

	// StopSlippageMult inflates the stop distance and TargetSlippageMult
	// deflates the target distance before the win/loss ratio is computed.
	// Idealized stop/target values without this buffer produce realized
	// drawdowns far beyond theoretical expectation.
	StopSlippageMult   float64
	TargetSlippageMult float64

	// KellyFraction scales the raw Kelly output down.
	KellyFraction float64

	// PositionCeiling is the hard cap on position fraction of equity. In
	// volatile regimes the ceiling, not the Kelly output, is the binding
	// constraint.
	PositionCeiling float64

	// CashReserveFloor is the minimum equity fraction kept in cash.
	CashReserveFloor float64

	// MinBarsRequired is the shortest history accepted for a symbol; a
	// shorter series is skipped with SHORT_HISTORY.
	MinBarsRequired int
}

// DefaultSizingConfig returns the default sizing constants.
func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		TrustCap:           0.60,
		StopSlippageMult:   1.25,
		TargetSlippageMult: 0.85,
		KellyFraction:      0.25,
		PositionCeiling:    0.05,
		CashReserveFloor:   0.05,
		MinBarsRequired:    30,
	}
}

// Validate checks sizing constants are inside sane ranges.
func (c SizingConfig) Validate() error {
	if c.TrustCap <= 0.5 || c.TrustCap >= 1 {
		return fmt.Errorf("%w: trust_cap %v outside (0.5, 1)", ErrInvalidSizingConfig, c.TrustCap)
	}
	if c.StopSlippageMult < 1 {
		return fmt.Errorf("%w: stop_slippage_mult %v < 1", ErrInvalidSizingConfig, c.StopSlippageMult)
	}
	if c.TargetSlippageMult <= 0 || c.TargetSlippageMult > 1 {
		return fmt.Errorf("%w: target_slippage_mult %v outside (0, 1]", ErrInvalidSizingConfig, c.TargetSlippageMult)
	}
	if c.KellyFraction <= 0 || c.KellyFraction > 1 {
		return fmt.Errorf("%w: kelly_fraction %v outside (0, 1]", ErrInvalidSizingConfig, c.KellyFraction)
	}
	if c.PositionCeiling <= 0 || c.PositionCeiling > 0.5 {
		return fmt.Errorf("%w: position_ceiling %v outside (0, 0.5]", ErrInvalidSizingConfig, c.PositionCeiling)
	}
	if c.CashReserveFloor < 0 || c.CashReserveFloor >= 1 {
		return fmt.Errorf("%w: cash_reserve_floor %v outside [0, 1)", ErrInvalidSizingConfig, c.CashReserveFloor)
	}
	if c.MinBarsRequired < 1 {
		return fmt.Errorf("%w: min_bars_required %d < 1", ErrInvalidSizingConfig, c.MinBarsRequired)
	}
	return nil
}
