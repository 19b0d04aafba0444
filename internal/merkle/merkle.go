// Package merkle computes the published commitment over an identity
// score table.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"

	"tdh-engine/internal/domain"
)

// Pair is one leaf input: an owner key and its boosted TDH.
type Pair struct {
	Key   string
	Value int64
}

// Root builds the tree over pairs and returns the hex-encoded root.
// Leaves are ordered by descending value, ties by ascending key, so the
// root is independent of input order. Each leaf hashes "key:value"; odd
// levels duplicate their last node. An empty table hashes to the empty
// string's digest.
func Root(pairs []Pair) string {
	if len(pairs) == 0 {
		sum := sha256.Sum256(nil)
		return hex.EncodeToString(sum[:])
	}

	ordered := append([]Pair(nil), pairs...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Value != ordered[j].Value {
			return ordered[i].Value > ordered[j].Value
		}
		return ordered[i].Key < ordered[j].Key
	})

	level := make([][32]byte, len(ordered))
	for i, p := range ordered {
		level[i] = sha256.Sum256([]byte(p.Key + ":" + strconv.FormatInt(p.Value, 10)))
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][32]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			joined := append(level[i][:], level[i+1][:]...)
			next = append(next, sha256.Sum256(joined))
		}
		level = next
	}
	return hex.EncodeToString(level[0][:])
}

// FromRecords extracts the leaf pairs of a score table: every owner with
// a positive boosted TDH.
func FromRecords(records []*domain.ScoreRecord) []Pair {
	var pairs []Pair
	for _, rec := range records {
		if rec.BoostedTDH > 0 {
			pairs = append(pairs, Pair{Key: rec.OwnerKey, Value: int64(rec.BoostedTDH)})
		}
	}
	return pairs
}
