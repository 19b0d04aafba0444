package domain

// TokenScore is the per-token result of replaying one owner's holdings.
type TokenScore struct {
	Contract           string  // collection contract
	ID                 int64   // token id
	Balance            int64   // editions currently held
	HodlRate           float64 // edition scarcity normalization factor
	RawTDH             int64   // sum of whole days held across editions
	TDH                float64 // HodlRate * RawTDH, 3-decimal precision
	DaysHeldPerEdition []int64 // whole days held, one entry per edition
}

// TokenRank is a per-token leaderboard position for one owner.
type TokenRank struct {
	ID   int64 // token id
	Rank int   // 1-based position among holders of the token
}

// BoostBreakdown records which bonus categories contributed to the final
// multiplier, for audit output.
type BoostBreakdown struct {
	CardSets  float64         // full collection set bonus (incl. extra sets)
	Seasons   map[int]float64 // per-season set bonuses, keyed by season id
	Genesis   float64         // cards #1-#3 bonus (season 1 fallback)
	Nakamoto  float64         // card #4 bonus (season 1 fallback)
	Gradients float64         // gradient count bonus
}

// ScoreRecord is one owner's computed score table row. OwnerKey is a single
// wallet for the wallet-level table, or a consolidation key for the
// identity-level table (Wallets then lists all members).
// Records are produced fresh each run and replaced wholesale.
type ScoreRecord struct {
	OwnerKey string   // wallet or consolidation key
	Wallets  []string // identity members; single entry for wallet rows
	Block    int64    // snapshot block the record was computed at

	Balance    int64   // total editions held across collections
	RawTDH     int64   // unnormalized whole-day total
	TDH        float64 // hodl-rate-normalized total
	Boost      float64 // final multiplier, 2-decimal precision
	BoostedTDH float64 // sum of rounded per-token boosted TDH

	CardSets    int64 // complete collection card sets held
	UniqueMemes int   // distinct memes tokens held
	Genesis     int64 // complete genesis trios held (cards #1-#3)
	Nakamoto    int64 // card #4 editions held

	MemesBalance    int64
	MemesRawTDH     int64
	MemesTDH        float64
	BoostedMemesTDH float64

	GradientsBalance    int64
	GradientsRawTDH     int64
	GradientsTDH        float64
	BoostedGradientsTDH float64

	NextGenBalance    int64
	NextGenRawTDH     int64
	NextGenTDH        float64
	BoostedNextGenTDH float64

	Memes     []TokenScore
	Gradients []TokenScore
	NextGen   []TokenScore

	Rank          int // overall position; assigned by the ranking engine
	RankMemes     int // -1 when the category boosted score is zero
	RankGradients int // -1 when the category boosted score is zero
	RankNextGen   int // -1 when the category boosted score is zero

	MemesRanks     []TokenRank
	GradientsRanks []TokenRank
	NextGenRanks   []TokenRank

	Breakdown BoostBreakdown
}

// SeasonScore is one owner's score scoped to a single memes season.
type SeasonScore struct {
	OwnerKey    string  // wallet or consolidation key
	Season      int     // season id
	Balance     int64   // editions held within the season
	RawTDH      int64   // whole-day total within the season
	TDH         float64 // normalized total within the season
	Boost       float64 // owner's overall boost
	BoostedTDH  float64 // sum of rounded per-token boosted TDH in season
	UniqueMemes int     // distinct season tokens held
	CardSets    int64   // complete season sets held
	Rank        int     // dense rank within the season's holder set
}

// BlockRecord is the per-run anchor row: which block a score table was
// computed at and the merkle root published for it.
type BlockRecord struct {
	Block      int64  // snapshot block
	Timestamp  int64  // block timestamp, Unix milliseconds
	MerkleRoot string // root hash over the identity score table
}

// UploadRecord references the archived CSV artifact of one run.
type UploadRecord struct {
	Block    int64  // snapshot block
	Date     string // YYYYMMDD of the day after the block timestamp
	Location string // object name or URL of the uploaded artifact
}

// EditionRow is the flattened per-edition audit view: one row per currently
// held edition of a token, for wallet- and identity-level owners.
// Corresponds to the tdh_editions table in ClickHouse.
type EditionRow struct {
	OwnerKey   string  // wallet or consolidation key
	Contract   string  // collection contract
	TokenID    int64   // token id
	EditionID  int     // 1-based index within the owner's editions
	Balance    int64   // owner's balance of the token
	DaysHeld   int64   // whole days this edition has been held
	HodlRate   float64 // token's hodl rate
	TDH        float64 // DaysHeld * HodlRate
	Boost      float64 // owner's boost
	BoostedTDH float64 // TDH * Boost
}
