package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidScenario is returned for malformed scenario definitions:
// bad date range, empty symbol list, or invalid parameter values.
var ErrInvalidScenario = errors.New("invalid scenario")

// ScenarioDefinition is one hash-identified combination of symbols, date
// range, and parameter sets to simulate. Created once by the scenario
// generator, never mutated, referenced by ScenarioID thereafter.
type ScenarioDefinition struct {
	ScenarioID  string // content hash, assigned at creation
	Name        string
	Description string
	StartDate   time.Time // inclusive, UTC midnight
	EndDate     time.Time // inclusive, UTC midnight
	Symbols     []string
	ParamSets   []ParameterSet
	Regime      RegimeClassification
}

// Validate checks the definition is simulatable. It does not check the
// ScenarioID; identity is owned by the idhash package.
func (d *ScenarioDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidScenario)
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidScenario)
	}
	if d.EndDate.Before(d.StartDate) {
		return fmt.Errorf("%w: end date %s before start date %s",
			ErrInvalidScenario, d.EndDate.Format("2006-01-02"), d.StartDate.Format("2006-01-02"))
	}
	if len(d.Symbols) == 0 {
		return fmt.Errorf("%w: empty symbol list", ErrInvalidScenario)
	}
	if len(d.ParamSets) == 0 {
		return fmt.Errorf("%w: no parameter sets", ErrInvalidScenario)
	}
	seen := make(map[string]struct{}, len(d.ParamSets))
	for _, ps := range d.ParamSets {
		if err := ps.Validate(); err != nil {
			return fmt.Errorf("%w: parameter set %q: %v", ErrInvalidScenario, ps.Name, err)
		}
		if _, dup := seen[ps.Name]; dup {
			return fmt.Errorf("%w: duplicate parameter set name %q", ErrInvalidScenario, ps.Name)
		}
		seen[ps.Name] = struct{}{}
	}
	if !d.Regime.Valid() {
		return fmt.Errorf("%w: invalid regime classification %+v", ErrInvalidScenario, d.Regime)
	}
	return nil
}
