package upload

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tdh-engine/internal/domain"
)

var csvHeader = []string{
	"owner_key", "wallets", "block",
	"balance", "raw_tdh", "tdh", "boost", "boosted_tdh",
	"card_sets", "unique_memes", "genesis", "nakamoto",
	"memes_balance", "memes_tdh", "boosted_memes_tdh",
	"gradients_balance", "gradients_tdh", "boosted_gradients_tdh",
	"nextgen_balance", "nextgen_tdh", "boosted_nextgen_tdh",
	"rank", "rank_memes", "rank_gradients", "rank_nextgen",
	"memes", "gradients", "nextgen",
}

// WriteCSV renders a score table in rank order. Token detail columns
// carry JSON, matching the shape consumers of the archived artifact
// already parse.
func WriteCSV(w io.Writer, records []*domain.ScoreRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		row, err := csvRow(rec)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", rec.OwnerKey, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(rec *domain.ScoreRecord) ([]string, error) {
	memes, err := json.Marshal(rec.Memes)
	if err != nil {
		return nil, fmt.Errorf("marshal memes for %s: %w", rec.OwnerKey, err)
	}
	gradients, err := json.Marshal(rec.Gradients)
	if err != nil {
		return nil, fmt.Errorf("marshal gradients for %s: %w", rec.OwnerKey, err)
	}
	nextgen, err := json.Marshal(rec.NextGen)
	if err != nil {
		return nil, fmt.Errorf("marshal nextgen for %s: %w", rec.OwnerKey, err)
	}

	return []string{
		rec.OwnerKey,
		strings.Join(rec.Wallets, " "),
		strconv.FormatInt(rec.Block, 10),
		strconv.FormatInt(rec.Balance, 10),
		strconv.FormatInt(rec.RawTDH, 10),
		formatFloat(rec.TDH),
		formatFloat(rec.Boost),
		formatFloat(rec.BoostedTDH),
		strconv.FormatInt(rec.CardSets, 10),
		strconv.Itoa(rec.UniqueMemes),
		strconv.FormatInt(rec.Genesis, 10),
		strconv.FormatInt(rec.Nakamoto, 10),
		strconv.FormatInt(rec.MemesBalance, 10),
		formatFloat(rec.MemesTDH),
		formatFloat(rec.BoostedMemesTDH),
		strconv.FormatInt(rec.GradientsBalance, 10),
		formatFloat(rec.GradientsTDH),
		formatFloat(rec.BoostedGradientsTDH),
		strconv.FormatInt(rec.NextGenBalance, 10),
		formatFloat(rec.NextGenTDH),
		formatFloat(rec.BoostedNextGenTDH),
		strconv.Itoa(rec.Rank),
		strconv.Itoa(rec.RankMemes),
		strconv.Itoa(rec.RankGradients),
		strconv.Itoa(rec.RankNextGen),
		string(memes),
		string(gradients),
		string(nextgen),
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
