package replay

import (
	"sort"
	"strings"

	"tdh-engine/internal/domain"
)

// SortTransfers orders events for deterministic replay: timestamp ASC; at
// equal timestamps, transfers sourced from inside the identity come before
// externally-sourced ones, then transfers into the scored wallet, then
// (tx id, event index) ASC.
func SortTransfers(transfers []*domain.TransferEvent, members map[string]bool, wallet string) {
	sort.SliceStable(transfers, func(i, j int) bool {
		return compareTransfers(transfers[i], transfers[j], members, wallet) < 0
	})
}

// compareTransfers returns negative when a sorts before b.
func compareTransfers(a, b *domain.TransferEvent, members map[string]bool, wallet string) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	aIntra := members[strings.ToLower(a.From)]
	bIntra := members[strings.ToLower(b.From)]
	if aIntra != bIntra {
		if aIntra {
			return -1
		}
		return 1
	}
	aToWallet := strings.EqualFold(a.To, wallet)
	bToWallet := strings.EqualFold(b.To, wallet)
	if aToWallet != bToWallet {
		if aToWallet {
			return -1
		}
		return 1
	}
	if a.TxID != b.TxID {
		if a.TxID < b.TxID {
			return -1
		}
		return 1
	}
	if a.EventIndex != b.EventIndex {
		if a.EventIndex < b.EventIndex {
			return -1
		}
		return 1
	}
	return 0
}
