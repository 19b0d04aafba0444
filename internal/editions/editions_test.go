package editions

import (
	"testing"

	"tdh-engine/internal/domain"
)

func TestBuildRows_OneRowPerEdition(t *testing.T) {
	rec := &domain.ScoreRecord{
		OwnerKey: "0xaa",
		Boost:    1.02,
		Memes: []domain.TokenScore{
			{
				Contract: domain.MemesContract, ID: 1, Balance: 2,
				HodlRate: 2.5, DaysHeldPerEdition: []int64{10, 4},
			},
		},
		Gradients: []domain.TokenScore{
			{
				Contract: domain.GradientsContract, ID: 7, Balance: 1,
				HodlRate: 1, DaysHeldPerEdition: []int64{30},
			},
		},
	}
	rows := BuildRows([]*domain.ScoreRecord{rec})
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	first := rows[0]
	if first.EditionID != 1 || first.DaysHeld != 10 || first.TDH != 25.0 {
		t.Errorf("edition 1 = %+v", first)
	}
	if first.BoostedTDH != 25.5 {
		t.Errorf("boosted = %v, want 25.5", first.BoostedTDH)
	}

	second := rows[1]
	if second.EditionID != 2 || second.DaysHeld != 4 || second.TDH != 10.0 {
		t.Errorf("edition 2 = %+v", second)
	}

	grad := rows[2]
	if grad.Contract != domain.GradientsContract || grad.TokenID != 7 || grad.DaysHeld != 30 {
		t.Errorf("gradient row = %+v", grad)
	}
}

func TestBuildRows_EmptyRecord(t *testing.T) {
	rows := BuildRows([]*domain.ScoreRecord{{OwnerKey: "0xaa", Boost: 1}})
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}
