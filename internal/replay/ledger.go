// Package replay reconstructs per-token acquisition dates for a wallet by
// replaying its identity's transfer history in chronological order.
// Transfers between two wallets of the same identity move units without
// resetting their acquisition dates; only custody changes.
package replay

import (
	"fmt"
	"strings"

	"tdh-engine/internal/domain"
)

// AcquisitionDates replays all transfers of one token touching an identity
// and returns the acquisition timestamps (Unix ms) of the units currently
// attributable to wallet, oldest push first. The transfers slice must
// already be filtered to a single (contract, token id); it is not mutated.
//
// members is the full membership of the wallet's identity. A transfer from
// outside the identity pushes fresh dates; a transfer inside the identity
// moves the most recently acquired dates unchanged; a transfer out pops
// and discards them.
func AcquisitionDates(wallet string, members []string, transfers []*domain.TransferEvent) ([]int64, error) {
	wallet = strings.ToLower(wallet)
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[strings.ToLower(m)] = true
	}

	sorted := make([]*domain.TransferEvent, len(transfers))
	copy(sorted, transfers)
	SortTransfers(sorted, memberSet, wallet)

	// Ledger owned by this invocation: wallet -> acquisition dates, one
	// entry per held unit, most recent last.
	ledger := make(map[string][]int64)

	for _, tr := range sorted {
		from := strings.ToLower(tr.From)
		to := strings.ToLower(tr.To)
		fromInside := memberSet[from]
		toInside := memberSet[to]

		switch {
		case toInside && !fromInside:
			// External inbound: fresh units acquired at the transfer time.
			for i := int64(0); i < tr.Quantity; i++ {
				ledger[to] = append(ledger[to], tr.Timestamp)
			}

		case toInside && fromInside:
			// Intra-identity move: custody changes, acquisition dates do not.
			moved, err := pop(ledger, from, tr.Quantity, tr)
			if err != nil {
				return nil, err
			}
			ledger[to] = append(ledger[to], moved...)

		case fromInside:
			// External outbound: most recently acquired units leave first.
			if _, err := pop(ledger, from, tr.Quantity, tr); err != nil {
				return nil, err
			}
		}
	}

	dates := ledger[wallet]
	out := make([]int64, len(dates))
	copy(out, dates)
	return out, nil
}

// pop removes the quantity most recently pushed entries from the wallet's
// list and returns them in push order.
func pop(ledger map[string][]int64, wallet string, quantity int64, tr *domain.TransferEvent) ([]int64, error) {
	held := ledger[wallet]
	if int64(len(held)) < quantity {
		return nil, fmt.Errorf("tx %s token %d: wallet %s holds %d units, transfer moves %d: %w",
			tr.TxID, tr.TokenID, wallet, len(held), quantity, ErrLedgerUnderflow)
	}
	cut := int64(len(held)) - quantity
	moved := make([]int64, quantity)
	copy(moved, held[cut:])
	ledger[wallet] = held[:cut]
	return moved, nil
}
