package pairing

import (
	"math"
	"math/rand"
	"sort"

	"github.com/calehr/pairpick/internal/database"
	"github.com/calehr/pairpick/internal/rating"
)

// PairKey identifies an unordered pair; A is always the smaller name.
type PairKey struct {
	A, B string
}

// NewPairKey normalizes two item names into a PairKey.
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// CandidatePair is a scored unordered pair of eligible items.
type CandidatePair struct {
	ItemA               string
	ItemB               string
	Priority            float64
	AlreadyShown        bool
	CombinedComparisons int
}

// Key returns the normalized pair key.
func (p CandidatePair) Key() PairKey {
	return NewPairKey(p.ItemA, p.ItemB)
}

// Weights holds the additive priority score terms. Each term is
// independently tunable.
type Weights struct {
	Exposure     float64 // per item that still needs more data
	Novelty      float64 // pair has never been shown
	ClosenessMax float64 // full bonus at equal ratings, gone at a 10x-point gap
	SweetSpot    float64 // average comparison count in [3, 10]
	JitterMax    float64 // uniform random jitter folded into the score
}

// DefaultWeights returns the standard priority weights.
func DefaultWeights() Weights {
	return Weights{Exposure: 50, Novelty: 30, ClosenessMax: 20, SweetSpot: 10, JitterMax: 5}
}

// ShownPairs collects the unordered pairs that appear in the outcome log.
func ShownPairs(outcomes []database.Outcome) map[PairKey]bool {
	shown := make(map[PairKey]bool, len(outcomes))
	for _, o := range outcomes {
		shown[NewPairKey(o.ItemA, o.ItemB)] = true
	}
	return shown
}

// RankPairs enumerates every unordered pair of eligible items, scores
// each, and returns at most limit pairs sorted by descending priority.
// The jitter is part of the score, so it is also the tie-break; pass a
// nil rng (or zero JitterMax) to disable it for deterministic output.
//
// Enumeration is O(n²) in the eligible population. That is fine for
// the intended tens to low hundreds of items but will not scale to
// large catalogs.
func RankPairs(eligible []string, stats map[string]rating.ItemStats, shown map[PairKey]bool, limit int, w Weights, rng *rand.Rand) []CandidatePair {
	if len(eligible) < 2 {
		return nil
	}

	items := make([]string, len(eligible))
	copy(items, eligible)
	sort.Strings(items)

	pairs := make([]CandidatePair, 0, len(items)*(len(items)-1)/2)
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			alreadyShown := shown[NewPairKey(a, b)]

			pairs = append(pairs, CandidatePair{
				ItemA:               a,
				ItemB:               b,
				Priority:            scorePair(stats[a], stats[b], alreadyShown, w, rng),
				AlreadyShown:        alreadyShown,
				CombinedComparisons: stats[a].Comparisons + stats[b].Comparisons,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Priority > pairs[j].Priority
	})

	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// scorePair computes the additive priority score for one pair.
func scorePair(a, b rating.ItemStats, alreadyShown bool, w Weights, rng *rand.Rand) float64 {
	priority := 0.0

	// Exposure: push under-sampled items into rotation.
	if a.NeedsMoreData {
		priority += w.Exposure
	}
	if b.NeedsMoreData {
		priority += w.Exposure
	}

	// Novelty: unseen pairs beat repeats.
	if !alreadyShown {
		priority += w.Novelty
	}

	// Closeness: similar ratings make the outcome most informative.
	ratingGap := math.Abs(a.Rating - b.Rating)
	priority += math.Max(0, w.ClosenessMax-ratingGap/10)

	// Sweet spot: moderate exposure, neither cold start nor over-sampled.
	avgComparisons := float64(a.Comparisons+b.Comparisons) / 2
	if avgComparisons >= 3 && avgComparisons <= 10 {
		priority += w.SweetSpot
	}

	// Jitter keeps the same "optimal" pair from always surfacing first.
	if rng != nil && w.JitterMax > 0 {
		priority += rng.Float64() * w.JitterMax
	}

	return priority
}
