package score

import (
	"testing"

	"tdh-engine/internal/domain"
)

const day = int64(24 * 60 * 60 * 1000)

var baseTime = int64(1_600_000_000_000)

func testEngine(nfts []domain.NFT) *Engine {
	return NewEngine(Config{
		Snapshot:     domain.Snapshot{Block: 1000, Timestamp: baseTime + 10*day},
		NFTs:         nfts,
		Seasons:      testSeasons(),
		GradientRate: 1,
		NextGenRate:  1,
	})
}

func memeNFT(id, editionSize int64, season int) domain.NFT {
	return domain.NFT{
		Contract:    domain.MemesContract,
		ID:          id,
		EditionSize: editionSize,
		MintDate:    baseTime,
		Season:      season,
	}
}

func mint(to string, contract string, tokenID, qty, ts int64, tx string) *domain.TransferEvent {
	return &domain.TransferEvent{
		Contract:  contract,
		TokenID:   tokenID,
		From:      domain.NullAddress,
		To:        to,
		Quantity:  qty,
		Block:     1,
		Timestamp: ts,
		TxID:      tx,
	}
}

func TestScoreWallet_HodlRateNormalization(t *testing.T) {
	// Hodl index is the largest edition size: 1000. The 250-edition
	// token is worth 4x per day held.
	e := testEngine([]domain.NFT{
		memeNFT(1, 250, 1),
		memeNFT(2, 1000, 1),
	})
	rec, err := e.ScoreWallet("0xAA", nil, []*domain.TransferEvent{
		mint("0xaa", domain.MemesContract, 1, 1, baseTime, "tx1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Memes) != 1 {
		t.Fatalf("memes tokens = %d, want 1", len(rec.Memes))
	}
	tok := rec.Memes[0]
	if tok.HodlRate != 4.0 {
		t.Errorf("hodl rate = %v, want 4.0", tok.HodlRate)
	}
	if tok.RawTDH != 10 {
		t.Errorf("raw tdh = %d, want 10", tok.RawTDH)
	}
	if tok.TDH != 40.0 {
		t.Errorf("tdh = %v, want 40.0", tok.TDH)
	}
	if rec.MemesTDH != 40.0 || rec.TDH != 40.0 {
		t.Errorf("totals = %v/%v, want 40.0", rec.MemesTDH, rec.TDH)
	}
}

func TestScoreWallet_FreshMintContributesBalanceOnly(t *testing.T) {
	e := testEngine([]domain.NFT{memeNFT(1, 100, 1)})
	rec, err := e.ScoreWallet("0xaa", nil, []*domain.TransferEvent{
		mint("0xaa", domain.MemesContract, 1, 1, baseTime+10*day-1, "tx1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Balance != 1 {
		t.Fatalf("balance = %d, want 1", rec.Balance)
	}
	if rec.RawTDH != 0 || rec.TDH != 0 {
		t.Errorf("tdh = %d/%v, want 0 for holdings under one day", rec.RawTDH, rec.TDH)
	}
}

func TestNewEngine_ExcludesImmatureTokens(t *testing.T) {
	fresh := memeNFT(2, 100, 1)
	fresh.MintDate = baseTime + 10*day - day/2
	e := testEngine([]domain.NFT{memeNFT(1, 100, 1), fresh})
	if e.MemesCount() != 1 {
		t.Fatalf("memes count = %d, want 1 (token minted 12h ago excluded)", e.MemesCount())
	}
	rec, err := e.ScoreWallet("0xaa", nil, []*domain.TransferEvent{
		mint("0xaa", domain.MemesContract, 2, 1, baseTime+10*day-day/2, "tx1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Balance != 0 || len(rec.Memes) != 0 {
		t.Errorf("immature token was scored: %+v", rec.Memes)
	}
}

func TestScoreWallet_SoldOutTokenOmitted(t *testing.T) {
	e := testEngine([]domain.NFT{memeNFT(1, 100, 1)})
	rec, err := e.ScoreWallet("0xaa", nil, []*domain.TransferEvent{
		mint("0xaa", domain.MemesContract, 1, 1, baseTime, "tx1"),
		{
			Contract: domain.MemesContract, TokenID: 1,
			From: "0xaa", To: "0xbb", Quantity: 1,
			Block: 2, Timestamp: baseTime + 5*day, TxID: "tx2",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Balance != 0 || len(rec.Memes) != 0 {
		t.Errorf("sold-out token still present: balance=%d tokens=%d", rec.Balance, len(rec.Memes))
	}
}

func TestScoreWallet_Collections(t *testing.T) {
	nfts := []domain.NFT{
		memeNFT(1, 100, 1),
		{Contract: domain.GradientsContract, ID: 7, EditionSize: 1, MintDate: baseTime},
		{Contract: domain.NextGenContract, ID: 10000000001, EditionSize: 1, MintDate: baseTime},
	}
	e := testEngine(nfts)
	rec, err := e.ScoreWallet("0xaa", nil, []*domain.TransferEvent{
		mint("0xaa", domain.MemesContract, 1, 1, baseTime, "tx1"),
		mint("0xaa", domain.GradientsContract, 7, 1, baseTime, "tx2"),
		mint("0xaa", domain.NextGenContract, 10000000001, 1, baseTime, "tx3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.MemesBalance != 1 || rec.GradientsBalance != 1 || rec.NextGenBalance != 1 {
		t.Fatalf("category balances = %d/%d/%d", rec.MemesBalance, rec.GradientsBalance, rec.NextGenBalance)
	}
	// One gradient held: boost 1.02 applies to every category.
	if rec.Boost != 1.02 {
		t.Fatalf("boost = %v, want 1.02", rec.Boost)
	}
	// 10 raw days at rate 1: boosted = round(10*1.02) = 10 per token.
	if rec.BoostedGradientsTDH != 10 || rec.BoostedNextGenTDH != 10 || rec.BoostedMemesTDH != 10 {
		t.Errorf("boosted = %v/%v/%v, want 10 each",
			rec.BoostedMemesTDH, rec.BoostedGradientsTDH, rec.BoostedNextGenTDH)
	}
	if rec.BoostedTDH != 30 {
		t.Errorf("boosted total = %v, want 30", rec.BoostedTDH)
	}
}

func TestScoreWallet_GenesisAndNakamoto(t *testing.T) {
	e := testEngine([]domain.NFT{
		memeNFT(1, 100, 1), memeNFT(2, 100, 1), memeNFT(3, 100, 1),
		memeNFT(4, 100, 1), memeNFT(5, 100, 1),
	})
	rec, err := e.ScoreWallet("0xaa", nil, []*domain.TransferEvent{
		mint("0xaa", domain.MemesContract, 1, 2, baseTime, "tx1"),
		mint("0xaa", domain.MemesContract, 2, 1, baseTime, "tx2"),
		mint("0xaa", domain.MemesContract, 3, 1, baseTime, "tx3"),
		mint("0xaa", domain.MemesContract, 4, 3, baseTime, "tx4"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Genesis != 1 {
		t.Errorf("genesis trios = %d, want 1 (min balance of cards 1-3)", rec.Genesis)
	}
	if rec.Nakamoto != 3 {
		t.Errorf("nakamoto = %d, want 3", rec.Nakamoto)
	}
	if rec.Boost != 1.02 {
		t.Errorf("boost = %v, want 1.02 (genesis + nakamoto fallback)", rec.Boost)
	}
}

func TestScoreWallet_TokenRoundingBeforeSumming(t *testing.T) {
	// Boosted totals sum per-token rounded values, so they stay integral
	// even when individual products are fractional.
	e := testEngine([]domain.NFT{
		memeNFT(1, 100, 1), memeNFT(2, 100, 1), memeNFT(3, 100, 1), memeNFT(4, 100, 1),
	})
	rec, err := e.ScoreWallet("0xaa", nil, []*domain.TransferEvent{
		mint("0xaa", domain.MemesContract, 1, 1, baseTime+3*day, "tx1"),
		mint("0xaa", domain.MemesContract, 2, 1, baseTime+3*day, "tx2"),
		mint("0xaa", domain.MemesContract, 3, 1, baseTime+3*day, "tx3"),
		mint("0xaa", domain.MemesContract, 4, 1, baseTime+3*day, "tx4"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Boost != 1.02 {
		t.Fatalf("boost = %v, want 1.02", rec.Boost)
	}
	// Each token: round(7 * 1.02) = round(7.14) = 7.
	if rec.BoostedMemesTDH != 28 {
		t.Errorf("boosted memes = %v, want 28", rec.BoostedMemesTDH)
	}
	if rec.BoostedTDH != float64(int64(rec.BoostedTDH)) {
		t.Errorf("boosted total not integral: %v", rec.BoostedTDH)
	}
}

func TestCardSets(t *testing.T) {
	tokens := []domain.TokenScore{
		{ID: 1, Balance: 3}, {ID: 2, Balance: 2}, {ID: 3, Balance: 5},
	}
	if got := CardSets(tokens, 3); got != 2 {
		t.Errorf("card sets = %d, want 2", got)
	}
	if got := CardSets(tokens, 4); got != 0 {
		t.Errorf("card sets with missing token = %d, want 0", got)
	}
	if got := CardSets(nil, 0); got != 0 {
		t.Errorf("card sets on empty universe = %d, want 0", got)
	}
}

func TestScoreWallet_NullAddressExcludedTxs(t *testing.T) {
	e := NewEngine(Config{
		Snapshot:      domain.Snapshot{Block: 1000, Timestamp: baseTime + 10*day},
		NFTs:          []domain.NFT{memeNFT(8, 100, 1)},
		Seasons:       testSeasons(),
		ExcludedTxIDs: []string{"0xBURN"},
	})
	rec, err := e.ScoreWallet(domain.NullAddress, nil, []*domain.TransferEvent{
		{
			Contract: domain.MemesContract, TokenID: 8,
			From: "0xaa", To: domain.NullAddress, Quantity: 1,
			Block: 2, Timestamp: baseTime, TxID: "0xburn",
		},
		{
			Contract: domain.MemesContract, TokenID: 8,
			From: "0xbb", To: domain.NullAddress, Quantity: 1,
			Block: 3, Timestamp: baseTime, TxID: "0xkeep",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Balance != 1 {
		t.Errorf("null address balance = %d, want 1 (excluded tx filtered)", rec.Balance)
	}
}

func TestScoreWallet_NullAddressIgnoresMints(t *testing.T) {
	// Mints originate from the burn wallet without it ever holding the
	// units. Replaying them as spends would underflow the ledger.
	e := testEngine([]domain.NFT{memeNFT(1, 100, 1)})
	rec, err := e.ScoreWallet(domain.NullAddress, nil, []*domain.TransferEvent{
		mint("0xaa", domain.MemesContract, 1, 5, baseTime, "tx1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Balance != 0 {
		t.Errorf("null address balance = %d, want 0", rec.Balance)
	}
}
