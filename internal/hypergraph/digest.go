package hypergraph

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// VertexSetDigest computes the canonical fingerprint of a node-id set:
// SHA-256 over the sorted, deduplicated ids joined with "|". The digest
// is only a pre-filter; lookups must still confirm exact set equality
// because distinct sets could in principle collide.
func VertexSetDigest(nodeIDs map[string]bool) string {
	ids := make([]string, 0, len(nodeIDs))
	for id := range nodeIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, "|")))
	return hex.EncodeToString(sum[:])
}

// VertexSetDigestOf normalizes an id slice (dropping duplicates) before
// computing the digest.
func VertexSetDigestOf(nodeIDs []string) string {
	return VertexSetDigest(toSet(nodeIDs))
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func setEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
