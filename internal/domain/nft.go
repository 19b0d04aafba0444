package domain

// Collection contract addresses (mainnet).
const (
	MemesContract     = "0x33fd426905f149f8376e227d0c9d3340aad17af1"
	GradientsContract = "0x0c58ef43ff3032005e472cb5709f8908acb00205"
	NextGenContract   = "0x45882f9bc325e14fbb298a1df930c43a874b83ae"
)

// NFT is one token of a scored collection, with the edition size used for
// hodl rate normalization. Corresponds to the nfts reference table.
type NFT struct {
	Contract    string // collection contract address (lowercase hex)
	ID          int64  // token id
	EditionSize int64  // number of editions minted
	MintDate    int64  // Unix timestamp in milliseconds
	Season      int    // memes season id; 0 for other collections
}

// Season defines a contiguous token-id range within the Memes collection
// and the boost a complete season set confers.
type Season struct {
	ID            int     // season number, 1-based
	StartIndex    int64   // first token id in the season
	EndIndex      int64   // last token id in the season
	ExpectedCount int     // planned number of tokens in the season
	BoostWeight   float64 // boost added when the full season set is held
}

// Snapshot anchors one computation run: the block at or just before the
// target calculation instant, and that block's timestamp.
type Snapshot struct {
	Block     int64 // block number
	Timestamp int64 // block timestamp, Unix milliseconds
}
