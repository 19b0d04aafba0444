package consolidation

import (
	"sort"
	"strings"
)

// BuildKey returns the canonical identity key for a set of member wallets:
// lowercased, de-duplicated, sorted lexicographically, hyphen-joined.
func BuildKey(wallets []string) string {
	seen := make(map[string]struct{}, len(wallets))
	unique := make([]string, 0, len(wallets))
	for _, w := range wallets {
		lw := strings.ToLower(w)
		if lw == "" {
			continue
		}
		if _, ok := seen[lw]; ok {
			continue
		}
		seen[lw] = struct{}{}
		unique = append(unique, lw)
	}
	sort.Strings(unique)
	return strings.Join(unique, "-")
}
