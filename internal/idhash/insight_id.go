package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// InsightID computes the stable insight identity: SHA256(type|description)
// truncated to IDLen hex characters. The same claim always maps to the
// same insight, so evidence accumulates instead of fragmenting.
func InsightID(insightType, description string) string {
	data := fmt.Sprintf("%s|%s", insightType, description)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:IDLen]
}

// ResultID computes the deterministic result identity:
// SHA256(scenario_id|symbol|param_set_name) truncated to IDLen hex.
func ResultID(scenarioID, symbol, paramSetName string) string {
	data := fmt.Sprintf("%s|%s|%s", scenarioID, symbol, paramSetName)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:IDLen]
}
