// Package merge combines wallet-level score records into identity-level
// records keyed by consolidation cluster.
package merge

import (
	"sort"
	"strconv"
	"strings"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/score"
)

// Merger folds member wallet records into one record per cluster. Balances
// and day counts add up across members; set counts and the boost are
// recomputed from the merged holdings, since a set split across wallets
// only completes at the identity level.
type Merger struct {
	engine *score.Engine
}

func NewMerger(engine *score.Engine) *Merger {
	return &Merger{engine: engine}
}

// Merge produces the identity record for cluster from its members' wallet
// records. It returns nil when the identity should not be persisted: a
// single-wallet cluster with nothing to report. Multi-wallet clusters are
// always emitted, zero score included, so the registered consolidation
// stays visible.
func (m *Merger) Merge(cluster domain.Cluster, records []*domain.ScoreRecord) *domain.ScoreRecord {
	merged := &domain.ScoreRecord{
		OwnerKey: cluster.Key,
		Wallets:  normalizeWallets(cluster.Wallets),
	}
	if len(records) > 0 {
		merged.Block = records[0].Block
	}

	tokens := make(map[string]*domain.TokenScore)
	var order []string
	for _, rec := range records {
		for _, list := range [][]domain.TokenScore{rec.Memes, rec.Gradients, rec.NextGen} {
			for _, tok := range list {
				key := tok.Contract + ":" + strconv.FormatInt(tok.ID, 10)
				acc, ok := tokens[key]
				if !ok {
					clone := tok
					clone.DaysHeldPerEdition = append([]int64(nil), tok.DaysHeldPerEdition...)
					tokens[key] = &clone
					order = append(order, key)
					continue
				}
				acc.Balance += tok.Balance
				acc.RawTDH += tok.RawTDH
				acc.TDH = score.Round3(acc.TDH + tok.TDH)
				acc.DaysHeldPerEdition = append(acc.DaysHeldPerEdition, tok.DaysHeldPerEdition...)
			}
		}
	}

	var genesisBalances [3]int64
	for _, key := range order {
		tok := *tokens[key]
		sort.Slice(tok.DaysHeldPerEdition, func(i, j int) bool {
			return tok.DaysHeldPerEdition[i] > tok.DaysHeldPerEdition[j]
		})

		merged.Balance += tok.Balance
		merged.RawTDH += tok.RawTDH
		merged.TDH = score.Round3(merged.TDH + tok.TDH)

		switch tok.Contract {
		case domain.MemesContract:
			merged.Memes = append(merged.Memes, tok)
			merged.MemesBalance += tok.Balance
			merged.MemesRawTDH += tok.RawTDH
			merged.MemesTDH = score.Round3(merged.MemesTDH + tok.TDH)
			if tok.ID >= 1 && tok.ID <= 3 {
				genesisBalances[tok.ID-1] = tok.Balance
			}
			if tok.ID == 4 {
				merged.Nakamoto = tok.Balance
			}
		case domain.GradientsContract:
			merged.Gradients = append(merged.Gradients, tok)
			merged.GradientsBalance += tok.Balance
			merged.GradientsRawTDH += tok.RawTDH
			merged.GradientsTDH = score.Round3(merged.GradientsTDH + tok.TDH)
		default:
			merged.NextGen = append(merged.NextGen, tok)
			merged.NextGenBalance += tok.Balance
			merged.NextGenRawTDH += tok.RawTDH
			merged.NextGenTDH = score.Round3(merged.NextGenTDH + tok.TDH)
		}
	}
	score.SortTokens(merged.Memes)
	score.SortTokens(merged.Gradients)
	score.SortTokens(merged.NextGen)

	merged.UniqueMemes = len(merged.Memes)
	merged.CardSets = score.CardSets(merged.Memes, m.engine.MemesCount())
	merged.Genesis = minOf(genesisBalances[:])

	m.engine.ApplyBoost(merged)

	if len(merged.Wallets) < 2 && merged.Balance == 0 && merged.BoostedTDH == 0 {
		return nil
	}
	return merged
}

func normalizeWallets(wallets []string) []string {
	out := make([]string, len(wallets))
	for i, w := range wallets {
		out[i] = strings.ToLower(w)
	}
	sort.Strings(out)
	return out
}

func minOf(vals []int64) int64 {
	min := vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
