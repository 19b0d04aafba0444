// Package seasons derives per-season score rows from full score records.
package seasons

import (
	"sort"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/score"
)

// Build flattens each owner's memes holdings into one row per season the
// owner holds tokens in. Rows inherit the owner's overall boost; boosted
// values sum the same per-token rounded contributions as the full record,
// so season rows of one owner always sum to the owner's memes totals.
// seasonCounts maps season id to the matured token count, used for the
// complete-season-set count.
func Build(records []*domain.ScoreRecord, seasonTable []domain.Season, seasonCounts map[int]int) []*domain.SeasonScore {
	var rows []*domain.SeasonScore
	for _, rec := range records {
		rows = append(rows, buildOwner(rec, seasonTable, seasonCounts)...)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Season != rows[j].Season {
			return rows[i].Season < rows[j].Season
		}
		return rows[i].OwnerKey < rows[j].OwnerKey
	})
	return rows
}

func buildOwner(rec *domain.ScoreRecord, seasonTable []domain.Season, seasonCounts map[int]int) []*domain.SeasonScore {
	var rows []*domain.SeasonScore
	for _, season := range seasonTable {
		row := &domain.SeasonScore{
			OwnerKey: rec.OwnerKey,
			Season:   season.ID,
			Boost:    rec.Boost,
		}
		sets := int64(-1)
		for _, tok := range rec.Memes {
			if tok.ID < season.StartIndex || tok.ID > season.EndIndex {
				continue
			}
			row.Balance += tok.Balance
			row.RawTDH += tok.RawTDH
			row.TDH += tok.TDH
			row.BoostedTDH += score.BoostedTokenTDH(tok, rec.Boost)
			row.UniqueMemes++
			if sets == -1 || tok.Balance < sets {
				sets = tok.Balance
			}
		}
		if row.Balance == 0 {
			continue
		}
		if count := seasonCounts[season.ID]; count > 0 && row.UniqueMemes == count {
			row.CardSets = sets
		}
		rows = append(rows, row)
	}
	return rows
}
