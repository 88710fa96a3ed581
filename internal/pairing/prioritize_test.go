package pairing

import (
	"math/rand"
	"testing"

	"github.com/calehr/pairpick/internal/database"
	"github.com/calehr/pairpick/internal/rating"
)

// noJitter disables the random term so scores are exact.
func noJitter() Weights {
	w := DefaultWeights()
	w.JitterMax = 0
	return w
}

func TestNewPairKeyNormalizes(t *testing.T) {
	if NewPairKey("b", "a") != NewPairKey("a", "b") {
		t.Error("pair keys must be order-independent")
	}
}

func TestShownPairs(t *testing.T) {
	shown := ShownPairs([]database.Outcome{
		{ItemA: "x", ItemB: "y", Chosen: "x"},
	})
	if !shown[NewPairKey("y", "x")] {
		t.Error("reversed lookup should hit the same pair")
	}
	if shown[NewPairKey("x", "z")] {
		t.Error("unseen pair reported as shown")
	}
}

func TestRankPairsEnumeratesAllPairs(t *testing.T) {
	eligible := []string{"a", "b", "c", "d"}
	stats := map[string]rating.ItemStats{}
	for _, it := range eligible {
		stats[it] = rating.ItemStats{Rating: 1500, Comparisons: 6}
	}

	pairs := RankPairs(eligible, stats, nil, 0, noJitter(), nil)
	if len(pairs) != 6 {
		t.Errorf("expected 6 unordered pairs for 4 items, got %d", len(pairs))
	}
}

func TestRankPairsScoreTerms(t *testing.T) {
	// Two well-sampled items at equal ratings, never shown together:
	// novelty 30 + closeness 20 + sweet spot 10.
	stats := map[string]rating.ItemStats{
		"a": {Rating: 1500, Comparisons: 6},
		"b": {Rating: 1500, Comparisons: 6},
	}

	pairs := RankPairs([]string{"a", "b"}, stats, nil, 0, noJitter(), nil)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Priority != 60 {
		t.Errorf("expected priority 60, got %v", pairs[0].Priority)
	}
	if pairs[0].AlreadyShown {
		t.Error("pair should not be marked as shown")
	}
	if pairs[0].CombinedComparisons != 12 {
		t.Errorf("expected combined comparisons 12, got %d", pairs[0].CombinedComparisons)
	}

	// Same pair already shown loses the novelty bonus.
	shown := map[PairKey]bool{NewPairKey("a", "b"): true}
	pairs = RankPairs([]string{"a", "b"}, stats, shown, 0, noJitter(), nil)
	if pairs[0].Priority != 30 {
		t.Errorf("expected priority 30 without novelty, got %v", pairs[0].Priority)
	}
	if !pairs[0].AlreadyShown {
		t.Error("pair should be marked as shown")
	}
}

func TestRankPairsExposureBonus(t *testing.T) {
	stats := map[string]rating.ItemStats{
		"cold1": {Rating: 1500, Comparisons: 0, NeedsMoreData: true},
		"cold2": {Rating: 1500, Comparisons: 0, NeedsMoreData: true},
		"warm":  {Rating: 1500, Comparisons: 6},
	}

	pairs := RankPairs([]string{"cold1", "cold2", "warm"}, stats, nil, 0, noJitter(), nil)

	// Both items underexposed: 50 + 50 + 30 + 20 = 150. The cold/warm
	// pairs carry only one exposure bonus and must rank below.
	top := pairs[0]
	if top.Key() != NewPairKey("cold1", "cold2") {
		t.Errorf("expected the all-cold pair first, got %s vs %s", top.ItemA, top.ItemB)
	}
	if top.Priority != 150 {
		t.Errorf("expected priority 150, got %v", top.Priority)
	}
	for _, p := range pairs[1:] {
		if p.Priority != 100 {
			t.Errorf("expected priority 100 for %s/%s, got %v", p.ItemA, p.ItemB, p.Priority)
		}
	}
}

func TestRankPairsClosenessDecay(t *testing.T) {
	closeness := func(gap float64) float64 {
		stats := map[string]rating.ItemStats{
			"a": {Rating: 1500, Comparisons: 6},
			"b": {Rating: 1500 + gap, Comparisons: 6},
		}
		pairs := RankPairs([]string{"a", "b"}, stats, nil, 0, noJitter(), nil)
		// Subtract novelty and sweet spot to isolate the closeness term.
		return pairs[0].Priority - 30 - 10
	}

	if got := closeness(0); got != 20 {
		t.Errorf("equal ratings should earn the full bonus, got %v", got)
	}
	if got := closeness(100); got != 10 {
		t.Errorf("100-point gap should earn 10, got %v", got)
	}
	if got := closeness(200); got != 0 {
		t.Errorf("200-point gap should earn 0, got %v", got)
	}
	if got := closeness(400); got != 0 {
		t.Errorf("closeness must never go negative, got %v", got)
	}
}

func TestRankPairsSweetSpot(t *testing.T) {
	sweetSpot := func(ca, cb int) bool {
		stats := map[string]rating.ItemStats{
			"a": {Rating: 1500, Comparisons: ca, NeedsMoreData: ca < 5},
			"b": {Rating: 1500, Comparisons: cb, NeedsMoreData: cb < 5},
		}
		pairs := RankPairs([]string{"a", "b"}, stats, nil, 0, noJitter(), nil)

		base := 30.0 + 20.0
		if ca < 5 {
			base += 50
		}
		if cb < 5 {
			base += 50
		}
		return pairs[0].Priority == base+10
	}

	if sweetSpot(1, 1) {
		t.Error("average 1 is below the sweet spot")
	}
	if !sweetSpot(3, 3) {
		t.Error("average 3 is inside the sweet spot")
	}
	if !sweetSpot(10, 10) {
		t.Error("average 10 is still inside the sweet spot")
	}
	if sweetSpot(11, 11) {
		t.Error("average 11 is past the sweet spot")
	}
}

func TestRankPairsLimit(t *testing.T) {
	eligible := []string{"a", "b", "c", "d", "e"}
	stats := map[string]rating.ItemStats{}
	for _, it := range eligible {
		stats[it] = rating.ItemStats{Rating: 1500, Comparisons: 6}
	}

	pairs := RankPairs(eligible, stats, nil, 3, noJitter(), nil)
	if len(pairs) != 3 {
		t.Errorf("expected limit to cap output at 3, got %d", len(pairs))
	}
}

func TestRankPairsJitterBounded(t *testing.T) {
	stats := map[string]rating.ItemStats{
		"a": {Rating: 1500, Comparisons: 6},
		"b": {Rating: 1500, Comparisons: 6},
	}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		pairs := RankPairs([]string{"a", "b"}, stats, nil, 0, DefaultWeights(), rng)
		jitter := pairs[0].Priority - 60
		if jitter < 0 || jitter >= 5 {
			t.Fatalf("jitter out of [0, 5): %v", jitter)
		}
	}
}

func TestRankPairsTooFewItems(t *testing.T) {
	if pairs := RankPairs([]string{"only"}, nil, nil, 0, noJitter(), nil); pairs != nil {
		t.Errorf("expected nil for a single item, got %v", pairs)
	}
}
