package pairing

import (
	"sort"

	"github.com/calehr/pairpick/internal/rating"
)

// Classification is a derived view over the item population. It never
// mutates the catalog: pruning is advisory and candidates are returned
// for human review, weakest first.
type Classification struct {
	Eligible        []string // population minus prune candidates, sorted by name
	Underexposed    []string // items that still need more comparisons, sorted by name
	PruneCandidates []string // sorted ascending by rating
}

// Classify splits the population by exposure and performance.
func Classify(stats map[string]rating.ItemStats) Classification {
	var c Classification

	for item, s := range stats {
		if s.LikelyUnpopular {
			c.PruneCandidates = append(c.PruneCandidates, item)
			continue
		}
		c.Eligible = append(c.Eligible, item)
		if s.NeedsMoreData {
			c.Underexposed = append(c.Underexposed, item)
		}
	}

	sort.Strings(c.Eligible)
	sort.Strings(c.Underexposed)
	sort.Slice(c.PruneCandidates, func(i, j int) bool {
		a, b := c.PruneCandidates[i], c.PruneCandidates[j]
		if stats[a].Rating != stats[b].Rating {
			return stats[a].Rating < stats[b].Rating
		}
		return a < b
	})

	return c
}
