package domain

// TransferEvent represents one NFT transfer sourced from chain indexing.
// Corresponds to the transfers table in PostgreSQL. Immutable once ingested.
type TransferEvent struct {
	ID         int64  // BIGSERIAL primary key
	Contract   string // collection contract address (lowercase hex)
	TokenID    int64  // token id within the contract
	From       string // sender wallet (lowercase hex)
	To         string // receiver wallet (lowercase hex)
	Quantity   int64  // number of editions moved
	Block      int64  // block the transfer was mined in
	Timestamp  int64  // Unix timestamp in milliseconds
	TxID       string // transaction hash
	EventIndex int    // index of the transfer within the transaction
}

// NullAddress is the burn/mint counterparty on transfers.
const NullAddress = "0x0000000000000000000000000000000000000000"
