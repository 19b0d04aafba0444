// Package editions flattens score records into per-edition audit rows.
package editions

import (
	"tdh-engine/internal/domain"
	"tdh-engine/internal/score"
)

// BuildRows expands every held edition of every token in records into one
// audit row. Edition ids are 1-based within an owner's holdings of a
// token, following the replay order of the day counts.
func BuildRows(records []*domain.ScoreRecord) []domain.EditionRow {
	var rows []domain.EditionRow
	for _, rec := range records {
		for _, list := range [][]domain.TokenScore{rec.Memes, rec.Gradients, rec.NextGen} {
			for _, tok := range list {
				for i, days := range tok.DaysHeldPerEdition {
					tdh := score.Round3(float64(days) * tok.HodlRate)
					rows = append(rows, domain.EditionRow{
						OwnerKey:   rec.OwnerKey,
						Contract:   tok.Contract,
						TokenID:    tok.ID,
						EditionID:  i + 1,
						Balance:    tok.Balance,
						DaysHeld:   days,
						HodlRate:   tok.HodlRate,
						TDH:        tdh,
						Boost:      rec.Boost,
						BoostedTDH: score.Round3(tdh * rec.Boost),
					})
				}
			}
		}
	}
	return rows
}
