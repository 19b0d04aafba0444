// Package consolidation partitions wallets into consolidated identities
// from confirmed pairwise consolidation edges. Every produced cluster is a
// clique: each pair of members has a confirmed edge between them.
package consolidation

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"tdh-engine/internal/domain"
)

// Options configures cluster building.
type Options struct {
	// MaxSize caps cluster membership. Zero means domain.DefaultMaxClusterSize.
	MaxSize int

	// Logger receives audit events for order-dependent placements.
	// Nil disables logging.
	Logger *zerolog.Logger
}

// BuildClusters partitions every wallet mentioned in the confirmed edges
// into clique clusters. Edges are processed by block descending (most
// recent consolidation evidence first); that order is the defined
// tie-break when a wallet could join more than one clique. Wallets that
// end up in no clique become singleton clusters.
func BuildClusters(edges []*domain.ConsolidationEdge, opts Options) []domain.Cluster {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = domain.DefaultMaxClusterSize
	}

	confirmed := make([]*domain.ConsolidationEdge, 0, len(edges))
	for _, e := range edges {
		if !e.Confirmed {
			continue
		}
		confirmed = append(confirmed, &domain.ConsolidationEdge{
			WalletA:   strings.ToLower(e.WalletA),
			WalletB:   strings.ToLower(e.WalletB),
			Block:     e.Block,
			Confirmed: true,
		})
	}

	// Canonical processing order: block DESC, then wallet pair ASC so a
	// frozen input always reproduces the same partition.
	sort.SliceStable(confirmed, func(i, j int) bool {
		if confirmed[i].Block != confirmed[j].Block {
			return confirmed[i].Block > confirmed[j].Block
		}
		if confirmed[i].WalletA != confirmed[j].WalletA {
			return confirmed[i].WalletA < confirmed[j].WalletA
		}
		return confirmed[i].WalletB < confirmed[j].WalletB
	})

	adjacency := make(map[string]map[string]bool)
	link := func(a, b string) {
		if adjacency[a] == nil {
			adjacency[a] = make(map[string]bool)
		}
		adjacency[a][b] = true
	}
	for _, e := range confirmed {
		link(e.WalletA, e.WalletB)
		link(e.WalletB, e.WalletA)
	}

	used := make(map[string]bool)
	var clusters []domain.Cluster

	finalize := func(members []string) {
		for _, m := range members {
			used[m] = true
		}
		sort.Strings(members)
		clusters = append(clusters, domain.Cluster{
			Key:     BuildKey(members),
			Wallets: members,
		})
	}

	for _, seed := range confirmed {
		if used[seed.WalletA] || used[seed.WalletB] {
			continue
		}
		members := []string{seed.WalletA, seed.WalletB}
		inCluster := map[string]bool{seed.WalletA: true, seed.WalletB: true}

		// Grow greedily: admit a wallet only when it has a confirmed edge
		// to every current member, not just the one that reached it.
		for len(members) < maxSize {
			admitted := false
			for _, e := range confirmed {
				var candidate string
				switch {
				case inCluster[e.WalletA] && !inCluster[e.WalletB]:
					candidate = e.WalletB
				case inCluster[e.WalletB] && !inCluster[e.WalletA]:
					candidate = e.WalletA
				default:
					continue
				}
				if used[candidate] {
					continue
				}
				if !connectedToAll(adjacency, candidate, members) {
					if opts.Logger != nil {
						opts.Logger.Debug().
							Str("wallet", candidate).
							Str("cluster", BuildKey(members)).
							Msg("wallet reachable but not clique-complete, skipped")
					}
					continue
				}
				members = append(members, candidate)
				inCluster[candidate] = true
				admitted = true
				break
			}
			if !admitted {
				break
			}
		}
		finalize(members)
	}

	// Any wallet mentioned by an edge but never admitted is its own identity.
	for _, e := range confirmed {
		for _, w := range []string{e.WalletA, e.WalletB} {
			if !used[w] {
				finalize([]string{w})
			}
		}
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Key < clusters[j].Key })
	return clusters
}

// WalletKeyMap maps each member wallet to its cluster's canonical key.
func WalletKeyMap(clusters []domain.Cluster) map[string]string {
	m := make(map[string]string)
	for _, c := range clusters {
		for _, w := range c.Wallets {
			m[w] = c.Key
		}
	}
	return m
}

// ClusterFor returns the cluster containing wallet, or a singleton cluster
// when the wallet belongs to none.
func ClusterFor(clusters []domain.Cluster, wallet string) domain.Cluster {
	lw := strings.ToLower(wallet)
	for _, c := range clusters {
		for _, w := range c.Wallets {
			if w == lw {
				return c
			}
		}
	}
	return domain.Cluster{Key: lw, Wallets: []string{lw}}
}

func connectedToAll(adjacency map[string]map[string]bool, candidate string, members []string) bool {
	for _, m := range members {
		if !adjacency[candidate][m] {
			return false
		}
	}
	return true
}
