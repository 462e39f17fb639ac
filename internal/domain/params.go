package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidParameterSet is returned when a parameter set fails validation.
var ErrInvalidParameterSet = errors.New("invalid parameter set")

// Parameter set archetype names.
const (
	ParamSetAggressive   = "aggressive"
	ParamSetBalanced     = "balanced"
	ParamSetConservative = "conservative"
)

// ParameterSet is an immutable, fully-typed trading parameter record.
// Unknown keys do not exist by construction; values are validated once at
// creation and the record is never mutated afterward.
type ParameterSet struct {
	Name            string  // archetype or sweep label, unique within a scenario
	TrustThreshold  float64 // minimum per-bar trust signal to enter, (0, 1]
	MinConfidence   float64 // minimum per-bar quality signal to enter, [0, 1]
	MaxPositionSize float64 // hard cap on position fraction of equity, (0, 1]
	StopLoss        float64 // stop distance as fraction of entry price, (0, 1)
	TakeProfit      float64 // target distance as fraction of entry price, (0, 1)
	CooldownPeriod  int     // maximum holding period in bars, >= 1
}

// Validate checks all fields are inside their valid ranges.
func (p ParameterSet) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidParameterSet)
	}
	if p.TrustThreshold <= 0 || p.TrustThreshold > 1 {
		return fmt.Errorf("%w: trust_threshold %v outside (0, 1]", ErrInvalidParameterSet, p.TrustThreshold)
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("%w: min_confidence %v outside [0, 1]", ErrInvalidParameterSet, p.MinConfidence)
	}
	if p.MaxPositionSize <= 0 || p.MaxPositionSize > 1 {
		return fmt.Errorf("%w: max_position_size %v outside (0, 1]", ErrInvalidParameterSet, p.MaxPositionSize)
	}
	if p.StopLoss <= 0 || p.StopLoss >= 1 {
		return fmt.Errorf("%w: stop_loss %v outside (0, 1)", ErrInvalidParameterSet, p.StopLoss)
	}
	if p.TakeProfit <= 0 || p.TakeProfit >= 1 {
		return fmt.Errorf("%w: take_profit %v outside (0, 1)", ErrInvalidParameterSet, p.TakeProfit)
	}
	if p.CooldownPeriod < 1 {
		return fmt.Errorf("%w: cooldown_period %d < 1", ErrInvalidParameterSet, p.CooldownPeriod)
	}
	return nil
}

// Predefined parameter archetypes.
var (
	ParameterSetAggressive = ParameterSet{
		Name:            ParamSetAggressive,
		TrustThreshold:  0.55,
		MinConfidence:   0.50,
		MaxPositionSize: 0.05,
		StopLoss:        0.08,
		TakeProfit:      0.20,
		CooldownPeriod:  10,
	}

	ParameterSetBalanced = ParameterSet{
		Name:            ParamSetBalanced,
		TrustThreshold:  0.65,
		MinConfidence:   0.60,
		MaxPositionSize: 0.04,
		StopLoss:        0.06,
		TakeProfit:      0.15,
		CooldownPeriod:  15,
	}

	ParameterSetConservative = ParameterSet{
		Name:            ParamSetConservative,
		TrustThreshold:  0.75,
		MinConfidence:   0.70,
		MaxPositionSize: 0.03,
		StopLoss:        0.04,
		TakeProfit:      0.10,
		CooldownPeriod:  20,
	}
)
