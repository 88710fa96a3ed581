package rating

import "github.com/calehr/pairpick/internal/database"

// Thresholds classify items by how much evidence the log holds about
// them.
type Thresholds struct {
	LowData      int     // below this many comparisons an item needs more data
	HighEvidence int     // at least this many comparisons before pruning is considered
	WeakRating   float64 // pruning requires a rating strictly below this
}

// DefaultThresholds returns the standard classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{LowData: 5, HighEvidence: 8, WeakRating: 1450}
}

// ItemStats holds the derived statistics for one item.
type ItemStats struct {
	Comparisons     int
	Wins            int
	WinRate         float64 // 0.5 by convention when Comparisons == 0
	Rating          float64
	NeedsMoreData   bool
	LikelyUnpopular bool
}

// ComputeStats derives per-item statistics from the outcome log. The
// returned skipped count mirrors CalculateRatings: outcomes naming
// items outside the population.
func ComputeStats(items []string, outcomes []database.Outcome, p Params, th Thresholds) (map[string]ItemStats, int) {
	ratings, skipped := CalculateRatings(items, outcomes, p)

	comparisons := make(map[string]int, len(items))
	wins := make(map[string]int, len(items))
	for _, o := range outcomes {
		if _, ok := ratings[o.ItemA]; !ok {
			continue
		}
		if _, ok := ratings[o.ItemB]; !ok {
			continue
		}
		comparisons[o.ItemA]++
		comparisons[o.ItemB]++
		wins[o.Chosen]++
	}

	stats := make(map[string]ItemStats, len(items))
	for _, item := range items {
		c := comparisons[item]
		w := wins[item]

		winRate := 0.5
		if c > 0 {
			winRate = float64(w) / float64(c)
		}

		r := ratings[item]
		stats[item] = ItemStats{
			Comparisons:     c,
			Wins:            w,
			WinRate:         winRate,
			Rating:          r,
			NeedsMoreData:   c < th.LowData,
			LikelyUnpopular: c >= th.HighEvidence && r < th.WeakRating,
		}
	}
	return stats, skipped
}
