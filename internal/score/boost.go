package score

import (
	"math"

	"tdh-engine/internal/domain"
)

const (
	// First complete card set of the memes collection.
	firstSetBoost = 0.60
	// Each additional complete set contributes a geometrically decaying
	// share of extraSetBoost.
	extraSetBoost = 0.05
	extraSetDecay = 0.6529

	genesisBoost  = 0.01
	nakamotoBoost = 0.01

	gradientBoost       = 0.02
	maxBoostedGradients = 5
)

// BoostInput carries the holdings facts the boost formula depends on.
type BoostInput struct {
	CardSets      int64
	Genesis       bool
	Nakamoto      bool
	Memes         []domain.TokenScore
	GradientCount int
}

// CalculateBoost computes the multiplier applied to an identity's TDH.
//
// A holder with at least one complete card set earns the set bonus and the
// per-season bonuses do not apply. Otherwise each fully-held season earns
// its configured weight, except the newest season while it is still
// filling. Holders without the season-1 set can still earn the genesis
// trio and Nakamoto bonuses. Gradients add a flat bonus per card, capped.
//
// seasonCounts maps season id to the number of tokens of that season
// present in the scored universe; a season with zero tokens never counts
// as complete.
func CalculateBoost(seasons []domain.Season, seasonCounts map[int]int, in BoostInput) (float64, domain.BoostBreakdown) {
	breakdown := domain.BoostBreakdown{Seasons: make(map[int]float64)}
	boost := 1.0

	if in.CardSets > 0 {
		setBonus := firstSetBoost
		if in.CardSets > 1 {
			n := float64(in.CardSets)
			setBonus += extraSetBoost * (1 - math.Pow(extraSetDecay, n-1)) / (1 - extraSetDecay)
		}
		breakdown.CardSets = setBonus
		boost += setBonus
	} else {
		held := make(map[int64]bool, len(in.Memes))
		for _, t := range in.Memes {
			if t.Balance > 0 {
				held[t.ID] = true
			}
		}
		for i, season := range seasons {
			count := seasonCounts[season.ID]
			if count == 0 {
				continue
			}
			// The newest season earns no set bonus until it is full.
			if i == len(seasons)-1 && count < season.ExpectedCount {
				continue
			}
			owned := 0
			for id := season.StartIndex; id <= season.EndIndex; id++ {
				if held[id] {
					owned++
				}
			}
			if owned == count {
				breakdown.Seasons[season.ID] = season.BoostWeight
				boost += season.BoostWeight
			}
		}
		if _, season1 := breakdown.Seasons[1]; !season1 {
			if in.Genesis {
				breakdown.Genesis = genesisBoost
				boost += genesisBoost
			}
			if in.Nakamoto {
				breakdown.Nakamoto = nakamotoBoost
				boost += nakamotoBoost
			}
		}
	}

	gradients := in.GradientCount
	if gradients > maxBoostedGradients {
		gradients = maxBoostedGradients
	}
	if gradients > 0 {
		breakdown.Gradients = float64(gradients) * gradientBoost
		boost += breakdown.Gradients
	}

	return Round2(boost), breakdown
}
