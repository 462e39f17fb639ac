package scenario

import (
	"strings"
	"testing"

	"strategy-research-lab/internal/domain"
)

func TestBaseline_Deterministic(t *testing.T) {
	g := NewGenerator()

	first, err := g.Baseline()
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if first.ScenarioID == "" {
		t.Fatal("baseline has no scenario id")
	}
	if len(first.Symbols) != 4 || len(first.ParamSets) != 3 {
		t.Fatalf("unexpected baseline shape: %d symbols, %d param sets",
			len(first.Symbols), len(first.ParamSets))
	}
	if !first.Regime.Valid() {
		t.Errorf("baseline regime invalid: %+v", first.Regime)
	}

	for i := 0; i < 10; i++ {
		again, err := g.Baseline()
		if err != nil {
			t.Fatalf("baseline: %v", err)
		}
		if again.ScenarioID != first.ScenarioID {
			t.Fatalf("baseline id not stable: %s vs %s", again.ScenarioID, first.ScenarioID)
		}
	}
}

func TestVariants_FullSlate(t *testing.T) {
	g := NewGenerator()
	base, err := g.Baseline()
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}

	variants, err := g.Variants(base, nil)
	if err != nil {
		t.Fatalf("variants: %v", err)
	}
	// One sweep per axis plus one scenario per calendar window.
	want := len(sweepAxisOrder) + len(regimeWindows)
	if len(variants) != want {
		t.Fatalf("expected %d variants, got %d", want, len(variants))
	}

	ids := make(map[string]struct{}, len(variants)+1)
	ids[base.ScenarioID] = struct{}{}
	for _, v := range variants {
		if err := v.Validate(); err != nil {
			t.Errorf("variant %s invalid: %v", v.Name, err)
		}
		if _, dup := ids[v.ScenarioID]; dup {
			t.Errorf("variant %s collides on id %s", v.Name, v.ScenarioID)
		}
		ids[v.ScenarioID] = struct{}{}
	}
}

func TestVariants_SweepCarriesWholeAxis(t *testing.T) {
	g := NewGenerator()
	base, err := g.Baseline()
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}

	variants, err := g.Variants(base, &Hints{FocusParameter: "trust_threshold"})
	if err != nil {
		t.Fatalf("variants: %v", err)
	}

	var sweep *domain.ScenarioDefinition
	for _, v := range variants {
		if strings.HasSuffix(v.Name, "-sweep-trust_threshold") {
			sweep = v
		}
	}
	if sweep == nil {
		t.Fatal("trust_threshold sweep missing")
	}

	grid := sweepGrids["trust_threshold"]
	if len(sweep.ParamSets) != len(grid) {
		t.Fatalf("expected %d grid points, got %d", len(grid), len(sweep.ParamSets))
	}
	for i, want := range grid {
		if got := sweep.ParamSets[i].TrustThreshold; got != want {
			t.Errorf("grid point %d: expected %v, got %v", i, want, got)
		}
	}

	// Focus hint suppresses the other axes but keeps the window variants.
	for _, v := range variants {
		if strings.Contains(v.Name, "-sweep-") && !strings.HasSuffix(v.Name, "trust_threshold") {
			t.Errorf("unexpected sweep variant %s under focus hint", v.Name)
		}
	}
}

func TestVariants_RegimeTargetHint(t *testing.T) {
	g := NewGenerator()
	base, err := g.Baseline()
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}

	variants, err := g.Variants(base, &Hints{RegimeTarget: "high/down/stressed/easing"})
	if err != nil {
		t.Fatalf("variants: %v", err)
	}

	windows := 0
	for _, v := range variants {
		if strings.Contains(v.Name, "-sweep-") {
			continue
		}
		windows++
		if v.Regime.Key() != "high/down/stressed/easing" {
			t.Errorf("window variant %s in regime %s escaped the target filter", v.Name, v.Regime.Key())
		}
	}
	if windows != 1 {
		t.Errorf("expected exactly the crash window, got %d window variants", windows)
	}
}

func TestVariants_WindowsCarryBaseParams(t *testing.T) {
	g := NewGenerator()
	base, err := g.Baseline()
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}

	variants, err := g.Variants(base, nil)
	if err != nil {
		t.Fatalf("variants: %v", err)
	}
	for _, v := range variants {
		if strings.Contains(v.Name, "-sweep-") {
			continue
		}
		if len(v.ParamSets) != len(base.ParamSets) {
			t.Errorf("window variant %s has %d param sets, want %d", v.Name, len(v.ParamSets), len(base.ParamSets))
		}
		if v.StartDate.Equal(base.StartDate) && v.EndDate.Equal(base.EndDate) {
			t.Errorf("window variant %s did not move the window", v.Name)
		}
	}
}

func TestVariants_InvalidBase(t *testing.T) {
	g := NewGenerator()
	base, err := g.Baseline()
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	base.Symbols = nil

	if _, err := g.Variants(base, nil); err == nil {
		t.Error("expected error for invalid base scenario")
	}
}
