package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"strategy-research-lab/internal/domain"
)

// IDLen is the truncated hex length of content-addressed identifiers.
const IDLen = 16

// ScenarioID computes the deterministic scenario identity: SHA256 over a
// canonical serialization of every content field, including the regime
// classification, truncated to IDLen hex characters. Content-equal
// definitions always yield equal IDs; this is the replayability invariant.
func ScenarioID(d *domain.ScenarioDefinition) string {
	var b strings.Builder

	b.WriteString(d.Name)
	b.WriteByte('|')
	b.WriteString(d.Description)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(d.StartDate.UTC().Unix(), 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(d.EndDate.UTC().Unix(), 10))

	// Symbols sorted so definition-time ordering does not change identity.
	symbols := make([]string, len(d.Symbols))
	copy(symbols, d.Symbols)
	sort.Strings(symbols)
	b.WriteByte('|')
	b.WriteString(strings.Join(symbols, ","))

	// Parameter sets sorted by name, each serialized canonically.
	params := make([]domain.ParameterSet, len(d.ParamSets))
	copy(params, d.ParamSets)
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	for _, p := range params {
		b.WriteByte('|')
		b.WriteString(canonicalParamSet(p))
	}

	// Regime is part of identity: regime-focused variants of otherwise
	// identical scenarios must never collide.
	b.WriteByte('|')
	b.WriteString(d.Regime.Key())

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:IDLen]
}

// canonicalParamSet renders a parameter set as a fixed-order field string.
func canonicalParamSet(p domain.ParameterSet) string {
	fields := []string{
		p.Name,
		formatFloat(p.TrustThreshold),
		formatFloat(p.MinConfidence),
		formatFloat(p.MaxPositionSize),
		formatFloat(p.StopLoss),
		formatFloat(p.TakeProfit),
		strconv.Itoa(p.CooldownPeriod),
	}
	return strings.Join(fields, ";")
}

// formatFloat renders a float64 in its shortest exact representation.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
