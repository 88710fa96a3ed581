package rating

import (
	"math"

	"github.com/calehr/pairpick/internal/database"
)

// Params holds the Elo parameters.
type Params struct {
	KFactor  float64 // maximum rating change per comparison
	Baseline float64 // starting rating for items with no history
}

// DefaultParams returns the standard Elo parameters.
func DefaultParams() Params {
	return Params{KFactor: 32, Baseline: 1500}
}

// ExpectedScore returns the probability that an item rated a beats an
// item rated b.
func ExpectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// Update applies one outcome to the ratings map in place. Outcomes
// referencing items outside the map are skipped; Update reports
// whether the outcome was applied.
func Update(ratings map[string]float64, o database.Outcome, p Params) bool {
	ratingA, okA := ratings[o.ItemA]
	ratingB, okB := ratings[o.ItemB]
	if !okA || !okB {
		return false
	}

	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := ExpectedScore(ratingB, ratingA)

	var actualA, actualB float64
	if o.Chosen == o.ItemA {
		actualA, actualB = 1, 0
	} else {
		actualA, actualB = 0, 1
	}

	ratings[o.ItemA] = ratingA + p.KFactor*(actualA-expectedA)
	ratings[o.ItemB] = ratingB + p.KFactor*(actualB-expectedB)
	return true
}

// CalculateRatings replays the outcome log in recorded order and
// returns the resulting ratings for the given item population. Every
// item starts at the baseline; ratings are a pure fold over the log,
// so the same sequence always yields the same result. The second
// return value counts outcomes that were skipped because they
// reference items outside the population; a diagnostic for stale or
// partial catalogs, not an error.
//
// This is the authoritative way to obtain current ratings; no cached
// rating state exists that could drift from the log.
func CalculateRatings(items []string, outcomes []database.Outcome, p Params) (map[string]float64, int) {
	ratings := make(map[string]float64, len(items))
	for _, item := range items {
		ratings[item] = p.Baseline
	}

	skipped := 0
	for _, o := range outcomes {
		if !Update(ratings, o, p) {
			skipped++
		}
	}
	return ratings, skipped
}

// SingleItemApprox recomputes one item's rating while pinning every
// opponent at the baseline. This is a biased approximation: an
// opponent with its own history does not sit at the baseline, and
// treating it as if it did skews the estimate. It exists for quick
// per-item diagnostics only; ranking decisions must use
// CalculateRatings.
func SingleItemApprox(item string, outcomes []database.Outcome, p Params) float64 {
	current := p.Baseline

	for _, o := range outcomes {
		var won bool
		switch item {
		case o.ItemA, o.ItemB:
			won = o.Chosen == item
		default:
			continue
		}

		expected := ExpectedScore(current, p.Baseline)
		actual := 0.0
		if won {
			actual = 1
		}
		current += p.KFactor * (actual - expected)
	}

	return current
}
