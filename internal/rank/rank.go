// Package rank assigns leaderboard positions to score records.
package rank

import (
	"sort"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/score"
)

// Assign computes every rank field of records in place: the overall rank,
// the three per-category ranks, and per-token ranks within each category.
// Overall and category ranks are ordinal (ties broken by the sort
// cascade); a category rank is -1 when the owner's boosted score in that
// category is zero.
func Assign(records []*domain.ScoreRecord) {
	assignOverall(records)
	assignCategory(records,
		func(r *domain.ScoreRecord) float64 { return r.BoostedMemesTDH },
		func(r *domain.ScoreRecord) float64 { return r.MemesTDH },
		func(r *domain.ScoreRecord) int64 { return r.MemesBalance },
		func(r *domain.ScoreRecord, rank int) { r.RankMemes = rank },
	)
	assignCategory(records,
		func(r *domain.ScoreRecord) float64 { return r.BoostedGradientsTDH },
		func(r *domain.ScoreRecord) float64 { return r.GradientsTDH },
		func(r *domain.ScoreRecord) int64 { return r.GradientsBalance },
		func(r *domain.ScoreRecord, rank int) { r.RankGradients = rank },
	)
	assignCategory(records,
		func(r *domain.ScoreRecord) float64 { return r.BoostedNextGenTDH },
		func(r *domain.ScoreRecord) float64 { return r.NextGenTDH },
		func(r *domain.ScoreRecord) int64 { return r.NextGenBalance },
		func(r *domain.ScoreRecord, rank int) { r.RankNextGen = rank },
	)
	assignTokenRanks(records,
		func(r *domain.ScoreRecord) []domain.TokenScore { return r.Memes },
		func(r *domain.ScoreRecord, ranks []domain.TokenRank) { r.MemesRanks = ranks },
	)
	assignTokenRanks(records,
		func(r *domain.ScoreRecord) []domain.TokenScore { return r.Gradients },
		func(r *domain.ScoreRecord, ranks []domain.TokenRank) { r.GradientsRanks = ranks },
	)
	assignTokenRanks(records,
		func(r *domain.ScoreRecord) []domain.TokenScore { return r.NextGen },
		func(r *domain.ScoreRecord, ranks []domain.TokenRank) { r.NextGenRanks = ranks },
	)
}

func assignOverall(records []*domain.ScoreRecord) {
	ordered := append([]*domain.ScoreRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.BoostedTDH != b.BoostedTDH {
			return a.BoostedTDH > b.BoostedTDH
		}
		if a.TDH != b.TDH {
			return a.TDH > b.TDH
		}
		if a.GradientsTDH != b.GradientsTDH {
			return a.GradientsTDH > b.GradientsTDH
		}
		return a.NextGenTDH > b.NextGenTDH
	})
	for i, rec := range ordered {
		rec.Rank = i + 1
	}
}

func assignCategory(
	records []*domain.ScoreRecord,
	boosted func(*domain.ScoreRecord) float64,
	tdh func(*domain.ScoreRecord) float64,
	catBalance func(*domain.ScoreRecord) int64,
	set func(*domain.ScoreRecord, int),
) {
	ordered := append([]*domain.ScoreRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if boosted(a) != boosted(b) {
			return boosted(a) > boosted(b)
		}
		if tdh(a) != tdh(b) {
			return tdh(a) > tdh(b)
		}
		if catBalance(a) != catBalance(b) {
			return catBalance(a) > catBalance(b)
		}
		return a.Balance > b.Balance
	})
	for i, rec := range ordered {
		if boosted(rec) == 0 {
			set(rec, -1)
			continue
		}
		set(rec, i+1)
	}
}

type tokenHolder struct {
	rec    *domain.ScoreRecord
	tokenV float64
}

func assignTokenRanks(
	records []*domain.ScoreRecord,
	tokens func(*domain.ScoreRecord) []domain.TokenScore,
	set func(*domain.ScoreRecord, []domain.TokenRank),
) {
	holders := make(map[int64][]tokenHolder)
	for _, rec := range records {
		for _, tok := range tokens(rec) {
			holders[tok.ID] = append(holders[tok.ID], tokenHolder{
				rec:    rec,
				tokenV: score.BoostedTokenTDH(tok, rec.Boost),
			})
		}
	}

	ranks := make(map[*domain.ScoreRecord][]domain.TokenRank)
	ids := make([]int64, 0, len(holders))
	for id := range holders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		hs := holders[id]
		sort.SliceStable(hs, func(i, j int) bool {
			if hs[i].tokenV != hs[j].tokenV {
				return hs[i].tokenV > hs[j].tokenV
			}
			return hs[i].rec.BoostedTDH > hs[j].rec.BoostedTDH
		})
		for pos, h := range hs {
			ranks[h.rec] = append(ranks[h.rec], domain.TokenRank{ID: id, Rank: pos + 1})
		}
	}

	for _, rec := range records {
		set(rec, ranks[rec])
	}
}

// AssignSeasonRanks ranks rows within each season with dense duplicate
// ranks: rows tied on both boosted TDH and balance share a rank, and the
// next distinct row takes the following integer.
func AssignSeasonRanks(rows []*domain.SeasonScore) {
	bySeason := make(map[int][]*domain.SeasonScore)
	for _, row := range rows {
		bySeason[row.Season] = append(bySeason[row.Season], row)
	}
	for _, group := range bySeason {
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].BoostedTDH != group[j].BoostedTDH {
				return group[i].BoostedTDH > group[j].BoostedTDH
			}
			return group[i].Balance > group[j].Balance
		})
		rank := 0
		for i, row := range group {
			if i > 0 && row.BoostedTDH == group[i-1].BoostedTDH && row.Balance == group[i-1].Balance {
				row.Rank = group[i-1].Rank
				continue
			}
			rank++
			row.Rank = rank
		}
	}
}
