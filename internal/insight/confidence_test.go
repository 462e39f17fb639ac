package insight

import (
	"math"
	"testing"

	"strategy-research-lab/internal/domain"
)

func TestScore_SingleScenarioBase(t *testing.T) {
	c := domain.InsightConfidence{NumSupportingScenarios: 1}
	if got := Score(c); got != BaseConfidence {
		t.Errorf("expected base confidence %v, got %v", BaseConfidence, got)
	}
}

func TestScore_Accumulation(t *testing.T) {
	c := domain.InsightConfidence{
		NumSupportingScenarios: 3,
		RegimeCoverage:         []string{"medium/up/normal/easing", "high/down/stressed/easing"},
		ParameterRobustness:    0.5,
	}
	want := BaseConfidence + 2*SupportBonus + RegimeBonus + 0.5*RobustnessBonus
	if got := Score(c); math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestScore_BonusCaps(t *testing.T) {
	c := domain.InsightConfidence{
		NumSupportingScenarios: 20,
		RegimeCoverage: []string{
			"a", "b", "c", "d", "e", "f", "g",
		},
	}
	want := BaseConfidence + MaxSupportBonus + MaxRegimeBonus
	if got := Score(c); math.Abs(got-want) > 1e-12 {
		t.Errorf("expected capped score %v, got %v", want, got)
	}
}

func TestScore_ContradictionsClampToZero(t *testing.T) {
	c := domain.InsightConfidence{
		NumSupportingScenarios: 1,
		ContradictionCount:     10,
	}
	if got := Score(c); got != 0 {
		t.Errorf("expected clamp to zero, got %v", got)
	}
}

func TestEvidenceStatus_Gating(t *testing.T) {
	tests := []struct {
		name     string
		support  int
		regimes  []string
		expected string
	}{
		{"both thresholds met", 3, []string{"a", "b"}, domain.EvidenceStrong},
		{"wide support single regime", 5, []string{"a"}, domain.EvidencePreliminary},
		{"wide regimes thin support", 2, []string{"a", "b", "c"}, domain.EvidencePreliminary},
		{"single scenario", 1, nil, domain.EvidencePreliminary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := domain.InsightConfidence{
				NumSupportingScenarios: tt.support,
				RegimeCoverage:         tt.regimes,
			}
			if got := EvidenceStatus(c); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
