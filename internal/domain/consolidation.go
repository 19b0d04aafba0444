package domain

import "strings"

// ConsolidationEdge is a confirmed (or pending) pairwise link between two
// wallets that asked to be scored as one identity.
// Corresponds to the consolidation_edges table in PostgreSQL.
type ConsolidationEdge struct {
	WalletA   string // first wallet (lowercase hex)
	WalletB   string // second wallet (lowercase hex)
	Block     int64  // block of the most recent registration
	Confirmed bool   // both sides registered; only confirmed edges cluster
}

// PairKey returns the edge's canonical identity: both wallets lowercased,
// ordered, hyphen-joined. Edges for the same pair in either direction
// share a key.
func (e *ConsolidationEdge) PairKey() string {
	a, b := strings.ToLower(e.WalletA), strings.ToLower(e.WalletB)
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

// Cluster is one consolidated identity: a clique of wallets scored as a
// single entity under a canonical key.
type Cluster struct {
	Key     string   // canonical key: lowercased members, sorted, hyphen-joined
	Wallets []string // members, lowercase, sorted
}

// DefaultMaxClusterSize caps how many wallets one identity may contain.
const DefaultMaxClusterSize = 3
