package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"strategy-research-lab/internal/domain"
)

// ResultSetDigest computes an order-independent digest over a result set.
// Results are sorted by ResultID and rendered canonically, so two runs of
// the same scenario produce the same digest byte-for-byte. Used by the
// determinism verifier and the replayability tests.
func ResultSetDigest(results []*domain.ScenarioResult) string {
	sorted := make([]*domain.ScenarioResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ResultID < sorted[j].ResultID })

	var b strings.Builder
	for _, r := range sorted {
		b.WriteString(canonicalResult(r))
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalResult renders every outcome field of a result, including each
// fill, in fixed order with exact float formatting.
func canonicalResult(r *domain.ScenarioResult) string {
	fields := []string{
		r.ResultID,
		r.ScenarioID,
		r.Symbol,
		r.RegimeKey,
		formatFloat(r.TotalReturnPct),
		formatFloat(r.SharpeRatio),
		strconv.FormatBool(r.SharpeValid),
		formatFloat(r.MaxDrawdownPct),
		formatFloat(r.WinRate),
		strconv.Itoa(r.TradeCount),
		strconv.Itoa(r.BarsProcessed),
		strconv.FormatBool(r.Verified),
		r.SkipReason,
		canonicalParamSet(r.Params),
	}
	for _, f := range r.Fills {
		fields = append(fields,
			f.Symbol,
			f.ParamSetName,
			strconv.FormatInt(f.EntryDate, 10),
			formatFloat(f.EntryPrice),
			strconv.FormatInt(f.ExitDate, 10),
			formatFloat(f.ExitPrice),
			formatFloat(f.SizeFraction),
			f.ExitReason,
			formatFloat(f.ReturnPct),
		)
	}
	return strings.Join(fields, "|")
}
