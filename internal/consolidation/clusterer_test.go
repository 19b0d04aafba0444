package consolidation

import (
	"reflect"
	"strings"
	"testing"

	"tdh-engine/internal/domain"
)

func edge(a, b string, block int64) *domain.ConsolidationEdge {
	return &domain.ConsolidationEdge{WalletA: a, WalletB: b, Block: block, Confirmed: true}
}

func TestBuildClusters_EmptyEdges(t *testing.T) {
	clusters := BuildClusters(nil, Options{})
	if len(clusters) != 0 {
		t.Fatalf("expected no clusters, got %d", len(clusters))
	}
}

func TestBuildClusters_SinglePair(t *testing.T) {
	clusters := BuildClusters([]*domain.ConsolidationEdge{edge("0xB", "0xA", 100)}, Options{})

	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Key != "0xa-0xb" {
		t.Errorf("expected key 0xa-0xb, got %s", clusters[0].Key)
	}
	if !reflect.DeepEqual(clusters[0].Wallets, []string{"0xa", "0xb"}) {
		t.Errorf("unexpected members: %v", clusters[0].Wallets)
	}
}

func TestBuildClusters_CliqueNotConnectivity(t *testing.T) {
	// A-B and B-C confirmed but no A-C edge: B may join only one of them.
	edges := []*domain.ConsolidationEdge{
		edge("0xA", "0xB", 200),
		edge("0xB", "0xC", 100),
	}

	clusters := BuildClusters(edges, Options{})

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %v", len(clusters), clusters)
	}
	// Most recent edge first: {A,B} forms, C is left a singleton.
	if clusters[0].Key != "0xa-0xb" {
		t.Errorf("expected 0xa-0xb first, got %s", clusters[0].Key)
	}
	if clusters[1].Key != "0xc" {
		t.Errorf("expected singleton 0xc, got %s", clusters[1].Key)
	}
}

func TestBuildClusters_FullTriangle(t *testing.T) {
	edges := []*domain.ConsolidationEdge{
		edge("0xA", "0xB", 300),
		edge("0xB", "0xC", 200),
		edge("0xA", "0xC", 100),
	}

	clusters := BuildClusters(edges, Options{})

	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d: %v", len(clusters), clusters)
	}
	if clusters[0].Key != "0xa-0xb-0xc" {
		t.Errorf("expected 0xa-0xb-0xc, got %s", clusters[0].Key)
	}
}

func TestBuildClusters_SizeCap(t *testing.T) {
	// Complete graph over four wallets, cap three: one wallet stays out.
	wallets := []string{"0xa", "0xb", "0xc", "0xd"}
	var edges []*domain.ConsolidationEdge
	block := int64(100)
	for i := 0; i < len(wallets); i++ {
		for j := i + 1; j < len(wallets); j++ {
			edges = append(edges, edge(wallets[i], wallets[j], block))
			block++
		}
	}

	clusters := BuildClusters(edges, Options{MaxSize: 3})

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %v", len(clusters), clusters)
	}
	sizes := []int{len(clusters[0].Wallets), len(clusters[1].Wallets)}
	if sizes[0]+sizes[1] != 4 {
		t.Errorf("expected all 4 wallets placed, got sizes %v", sizes)
	}
	for _, c := range clusters {
		if len(c.Wallets) > 3 {
			t.Errorf("cluster %s exceeds cap: %d members", c.Key, len(c.Wallets))
		}
	}
}

func TestBuildClusters_CliqueInvariant(t *testing.T) {
	edges := []*domain.ConsolidationEdge{
		edge("0xA", "0xB", 500),
		edge("0xA", "0xC", 400),
		edge("0xB", "0xC", 300),
		edge("0xC", "0xD", 200),
		edge("0xD", "0xE", 100),
	}

	confirmed := make(map[[2]string]bool)
	for _, e := range edges {
		a, b := strings.ToLower(e.WalletA), strings.ToLower(e.WalletB)
		confirmed[[2]string{a, b}] = true
		confirmed[[2]string{b, a}] = true
	}

	clusters := BuildClusters(edges, Options{})

	for _, c := range clusters {
		for i := 0; i < len(c.Wallets); i++ {
			for j := i + 1; j < len(c.Wallets); j++ {
				if !confirmed[[2]string{c.Wallets[i], c.Wallets[j]}] {
					t.Errorf("cluster %s members %s and %s have no confirmed edge",
						c.Key, c.Wallets[i], c.Wallets[j])
				}
			}
		}
	}

	// Every wallet appears exactly once across clusters.
	seen := make(map[string]int)
	for _, c := range clusters {
		for _, w := range c.Wallets {
			seen[w]++
		}
	}
	for w, n := range seen {
		if n != 1 {
			t.Errorf("wallet %s placed %d times", w, n)
		}
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 wallets placed, got %d", len(seen))
	}
}

func TestBuildClusters_Deterministic(t *testing.T) {
	edges := []*domain.ConsolidationEdge{
		edge("0xA", "0xB", 100),
		edge("0xB", "0xC", 100),
		edge("0xA", "0xC", 100),
		edge("0xC", "0xD", 100),
		edge("0xE", "0xF", 90),
	}

	first := BuildClusters(edges, Options{})
	for i := 0; i < 10; i++ {
		// Shuffle input order; sort inside BuildClusters must normalize it.
		shuffled := []*domain.ConsolidationEdge{edges[4], edges[2], edges[0], edges[3], edges[1]}
		again := BuildClusters(shuffled, Options{})
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("partition not deterministic:\nfirst: %v\nagain: %v", first, again)
		}
	}
}

func TestBuildClusters_IgnoresUnconfirmed(t *testing.T) {
	edges := []*domain.ConsolidationEdge{
		{WalletA: "0xA", WalletB: "0xB", Block: 100, Confirmed: false},
	}
	clusters := BuildClusters(edges, Options{})
	if len(clusters) != 0 {
		t.Fatalf("unconfirmed edges must not cluster, got %v", clusters)
	}
}

func TestBuildKey(t *testing.T) {
	key := BuildKey([]string{"0xB", "0xa", "0xB", ""})
	if key != "0xa-0xb" {
		t.Errorf("expected 0xa-0xb, got %s", key)
	}
	if BuildKey([]string{"0xSingle"}) != "0xsingle" {
		t.Errorf("single wallet key must be the lowercased wallet")
	}
}

func TestWalletKeyMap(t *testing.T) {
	clusters := BuildClusters([]*domain.ConsolidationEdge{edge("0xA", "0xB", 10)}, Options{})
	m := WalletKeyMap(clusters)
	if m["0xa"] != "0xa-0xb" || m["0xb"] != "0xa-0xb" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestClusterFor_UnknownWalletIsSingleton(t *testing.T) {
	c := ClusterFor(nil, "0xFF")
	if c.Key != "0xff" || len(c.Wallets) != 1 {
		t.Errorf("expected singleton for unknown wallet, got %v", c)
	}
}
