package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"pathways-server/internal/domain"
)

// StateHash chains the previous hash with a canonical JSON view of the state:
// trust, patterns, non-transient flags and position. Keys are sorted so the
// digest does not depend on map iteration order.
func StateHash(previousHash string, st *domain.GameState) (string, error) {
	stateMap := make(map[string]interface{})
	stateMap["_ph"] = previousHash
	stateMap["pos"] = st.CurrentKey()

	for c, v := range st.Trust {
		stateMap["t_"+c] = v
	}
	for p, v := range st.Patterns {
		if v > 0 {
			stateMap["p_"+string(p)] = v
		}
	}

	// Флаги с "_" считаются служебными и в хэш не входят.
	flags := make([]string, 0, len(st.Flags))
	for _, f := range st.Flags.Sorted() {
		if !strings.HasPrefix(f, "_") {
			flags = append(flags, f)
		}
	}
	stateMap["gf"] = flags

	keys := make([]string, 0, len(stateMap))
	for k := range stateMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		valueBytes, err := json.Marshal(stateMap[k])
		if err != nil {
			return "", fmt.Errorf("error serializing value for key '%s': %w", k, err)
		}
		keyBytes, _ := json.Marshal(k)
		sb.Write(keyBytes)
		sb.WriteString(":")
		sb.Write(valueBytes)
		if i < len(keys)-1 {
			sb.WriteString(",")
		}
	}
	sb.WriteString("}")

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:]), nil
}
