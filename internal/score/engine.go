package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/replay"
)

const dayMs = int64(24 * 60 * 60 * 1000)

// Config fixes the scoring universe for a run.
type Config struct {
	Snapshot domain.Snapshot
	NFTs     []domain.NFT
	Seasons  []domain.Season

	// Hodl rates for the single-edition collections.
	GradientRate float64
	NextGenRate  float64

	// Transaction ids stripped from the null address's history before
	// replay. Burn-address scoring would otherwise double count tokens
	// that were minted straight into circulation through it.
	ExcludedTxIDs []string
}

// Engine scores one identity at a time against a fixed snapshot.
// It is safe for concurrent use once constructed.
type Engine struct {
	snapshot     domain.Snapshot
	nfts         []domain.NFT
	seasons      []domain.Season
	seasonCounts map[int]int
	hodlIndex    int64
	gradientRate float64
	nextgenRate  float64
	excludedTxs  map[string]bool
	memesCount   int
}

// NewEngine filters the NFT universe down to matured tokens (minted at
// least one full day before the snapshot) and precomputes the hodl index,
// the largest memes edition size.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		snapshot:     cfg.Snapshot,
		seasons:      cfg.Seasons,
		seasonCounts: make(map[int]int),
		gradientRate: cfg.GradientRate,
		nextgenRate:  cfg.NextGenRate,
		excludedTxs:  make(map[string]bool, len(cfg.ExcludedTxIDs)),
	}
	for _, tx := range cfg.ExcludedTxIDs {
		e.excludedTxs[strings.ToLower(tx)] = true
	}
	cutoff := cfg.Snapshot.Timestamp - dayMs
	for _, nft := range cfg.NFTs {
		if nft.MintDate > cutoff {
			continue
		}
		e.nfts = append(e.nfts, nft)
		if nft.Contract == domain.MemesContract {
			e.memesCount++
			e.seasonCounts[nft.Season]++
			if nft.EditionSize > e.hodlIndex {
				e.hodlIndex = nft.EditionSize
			}
		}
	}
	return e
}

// NFTs returns the matured token universe the engine scores against.
func (e *Engine) NFTs() []domain.NFT { return e.nfts }

// MemesCount returns the number of matured memes tokens.
func (e *Engine) MemesCount() int { return e.memesCount }

// HodlIndex returns the largest matured memes edition size.
func (e *Engine) HodlIndex() int64 { return e.hodlIndex }

// SeasonCounts returns matured memes token counts keyed by season id.
func (e *Engine) SeasonCounts() map[int]int { return e.seasonCounts }

// Seasons returns the configured season table.
func (e *Engine) Seasons() []domain.Season { return e.seasons }

// ScoreWallet replays transfers for a single wallet and produces its
// score record. members is the wallet's identity cluster; transfers
// inside it move acquisition dates instead of resetting them. transfers
// must cover every event touching the wallet up to the snapshot block.
func (e *Engine) ScoreWallet(wallet string, members []string, transfers []*domain.TransferEvent) (*domain.ScoreRecord, error) {
	wallet = strings.ToLower(wallet)
	identity := append([]string{wallet}, members...)

	// The burn wallet accumulates burns only. Mints originate from it
	// without it ever holding the units, so they are dropped before
	// replay, along with the configured excluded transactions.
	if wallet == domain.NullAddress {
		filtered := make([]*domain.TransferEvent, 0, len(transfers))
		for _, tr := range transfers {
			if strings.ToLower(tr.From) == domain.NullAddress {
				continue
			}
			if e.excludedTxs[strings.ToLower(tr.TxID)] {
				continue
			}
			filtered = append(filtered, tr)
		}
		transfers = filtered
	}

	byToken := make(map[string][]*domain.TransferEvent)
	for _, tr := range transfers {
		key := tokenKey(tr.Contract, tr.TokenID)
		byToken[key] = append(byToken[key], tr)
	}

	rec := &domain.ScoreRecord{
		OwnerKey: wallet,
		Wallets:  []string{wallet},
		Block:    e.snapshot.Block,
	}

	var genesisBalances [3]int64
	for _, nft := range e.nfts {
		trs := byToken[tokenKey(nft.Contract, nft.ID)]
		if len(trs) == 0 {
			continue
		}
		dates, err := replay.AcquisitionDates(wallet, identity, trs)
		if err != nil {
			return nil, fmt.Errorf("score %s token %s/%d: %w", wallet, nft.Contract, nft.ID, err)
		}
		if len(dates) == 0 {
			continue
		}

		token := domain.TokenScore{
			Contract: nft.Contract,
			ID:       nft.ID,
			Balance:  int64(len(dates)),
		}
		for _, acq := range dates {
			days := (e.snapshot.Timestamp - acq) / dayMs
			if days < 0 {
				days = 0
			}
			token.DaysHeldPerEdition = append(token.DaysHeldPerEdition, days)
			token.RawTDH += days
		}
		switch nft.Contract {
		case domain.MemesContract:
			token.HodlRate = Round2(float64(e.hodlIndex) / float64(nft.EditionSize))
		case domain.GradientsContract:
			token.HodlRate = e.gradientRate
		default:
			token.HodlRate = e.nextgenRate
		}
		token.TDH = Round3(token.HodlRate * float64(token.RawTDH))

		rec.Balance += token.Balance
		rec.RawTDH += token.RawTDH
		rec.TDH += token.TDH

		switch nft.Contract {
		case domain.MemesContract:
			rec.Memes = append(rec.Memes, token)
			rec.MemesBalance += token.Balance
			rec.MemesRawTDH += token.RawTDH
			rec.MemesTDH += token.TDH
			if nft.ID >= 1 && nft.ID <= 3 {
				genesisBalances[nft.ID-1] = token.Balance
			}
			if nft.ID == 4 {
				rec.Nakamoto = token.Balance
			}
		case domain.GradientsContract:
			rec.Gradients = append(rec.Gradients, token)
			rec.GradientsBalance += token.Balance
			rec.GradientsRawTDH += token.RawTDH
			rec.GradientsTDH += token.TDH
		default:
			rec.NextGen = append(rec.NextGen, token)
			rec.NextGenBalance += token.Balance
			rec.NextGenRawTDH += token.RawTDH
			rec.NextGenTDH += token.TDH
		}
	}

	rec.UniqueMemes = len(rec.Memes)
	rec.CardSets = CardSets(rec.Memes, e.memesCount)
	rec.Genesis = minBalance(genesisBalances[:])

	e.ApplyBoost(rec)
	return rec, nil
}

// ApplyBoost computes the record's boost from its holdings and derives
// the boosted totals. Each token's boosted TDH is rounded to an integer
// before summing, so category and overall boosted totals are sums of
// per-token rounded values.
func (e *Engine) ApplyBoost(rec *domain.ScoreRecord) {
	boost, breakdown := CalculateBoost(e.seasons, e.seasonCounts, BoostInput{
		CardSets:      rec.CardSets,
		Genesis:       rec.Genesis > 0,
		Nakamoto:      rec.Nakamoto > 0,
		Memes:         rec.Memes,
		GradientCount: len(rec.Gradients),
	})
	rec.Boost = boost
	rec.Breakdown = breakdown

	rec.BoostedMemesTDH = boostedSum(rec.Memes, boost)
	rec.BoostedGradientsTDH = boostedSum(rec.Gradients, boost)
	rec.BoostedNextGenTDH = boostedSum(rec.NextGen, boost)
	rec.BoostedTDH = rec.BoostedMemesTDH + rec.BoostedGradientsTDH + rec.BoostedNextGenTDH
}

// CardSets returns the number of complete memes sets: zero unless every
// matured memes token is held, otherwise the minimum balance across them.
func CardSets(memes []domain.TokenScore, universe int) int64 {
	if universe == 0 || len(memes) < universe {
		return 0
	}
	sets := memes[0].Balance
	for _, t := range memes[1:] {
		if t.Balance < sets {
			sets = t.Balance
		}
	}
	return sets
}

// BoostedTokenTDH is a token's integral contribution to boosted totals.
func BoostedTokenTDH(t domain.TokenScore, boost float64) float64 {
	return math.Round(t.TDH * boost)
}

func boostedSum(tokens []domain.TokenScore, boost float64) float64 {
	var sum float64
	for _, t := range tokens {
		sum += BoostedTokenTDH(t, boost)
	}
	return sum
}

func minBalance(balances []int64) int64 {
	min := balances[0]
	for _, b := range balances[1:] {
		if b < min {
			min = b
		}
	}
	return min
}

// SortTokens orders token scores by id for stable output.
func SortTokens(tokens []domain.TokenScore) {
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })
}

func tokenKey(contract string, id int64) string {
	return fmt.Sprintf("%s:%d", strings.ToLower(contract), id)
}
