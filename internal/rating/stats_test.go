package rating

import (
	"math"
	"testing"

	"github.com/calehr/pairpick/internal/database"
)

func TestComputeStatsNoHistory(t *testing.T) {
	stats, skipped := ComputeStats([]string{"a"}, nil, DefaultParams(), DefaultThresholds())
	if skipped != 0 {
		t.Errorf("expected 0 skipped, got %d", skipped)
	}

	s := stats["a"]
	if s.Comparisons != 0 || s.Wins != 0 {
		t.Errorf("expected zero counts, got %+v", s)
	}
	if s.WinRate != 0.5 {
		t.Errorf("expected neutral win rate 0.5, got %v", s.WinRate)
	}
	if s.Rating != 1500 {
		t.Errorf("expected baseline rating, got %v", s.Rating)
	}
	if !s.NeedsMoreData {
		t.Error("item with no comparisons needs more data")
	}
	if s.LikelyUnpopular {
		t.Error("item with no evidence cannot be likely unpopular")
	}
}

func TestComputeStatsCounts(t *testing.T) {
	outcomes := []database.Outcome{
		outcome("a", "b", "a"),
		outcome("a", "c", "a"),
		outcome("b", "c", "c"),
	}
	stats, _ := ComputeStats([]string{"a", "b", "c"}, outcomes, DefaultParams(), DefaultThresholds())

	if s := stats["a"]; s.Comparisons != 2 || s.Wins != 2 || s.WinRate != 1.0 {
		t.Errorf("unexpected stats for a: %+v", s)
	}
	if s := stats["b"]; s.Comparisons != 2 || s.Wins != 0 || s.WinRate != 0 {
		t.Errorf("unexpected stats for b: %+v", s)
	}
	if s := stats["c"]; s.Comparisons != 2 || s.Wins != 1 || s.WinRate != 0.5 {
		t.Errorf("unexpected stats for c: %+v", s)
	}
}

func TestComputeStatsSkippedOutcomesNotCounted(t *testing.T) {
	outcomes := []database.Outcome{
		outcome("a", "ghost", "a"),
	}
	stats, skipped := ComputeStats([]string{"a", "b"}, outcomes, DefaultParams(), DefaultThresholds())
	if skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", skipped)
	}
	if stats["a"].Comparisons != 0 {
		t.Error("skipped outcome must not count as exposure")
	}
}

func TestLikelyUnpopularBoundary(t *testing.T) {
	// "x" loses to eight distinct opponents, landing well below the
	// default weak-rating threshold.
	items := []string{"x", "o1", "o2", "o3", "o4", "o5", "o6", "o7", "o8"}
	var outcomes []database.Outcome
	for _, opp := range items[1:] {
		outcomes = append(outcomes, outcome("x", opp, opp))
	}

	stats, _ := ComputeStats(items, outcomes[:7], DefaultParams(), DefaultThresholds())
	if stats["x"].LikelyUnpopular {
		t.Error("7 comparisons is not enough evidence for pruning")
	}

	stats, _ = ComputeStats(items, outcomes, DefaultParams(), DefaultThresholds())
	if s := stats["x"]; !s.LikelyUnpopular {
		t.Errorf("8 losses at rating %.1f should be likely unpopular", s.Rating)
	}

	// Strict less-than on the rating threshold: pin it exactly at x's
	// rating, then nudge it just above.
	th := DefaultThresholds()
	th.WeakRating = stats["x"].Rating
	atThreshold, _ := ComputeStats(items, outcomes, DefaultParams(), th)
	if atThreshold["x"].LikelyUnpopular {
		t.Error("rating exactly at threshold must not be likely unpopular")
	}

	th.WeakRating = math.Nextafter(th.WeakRating, math.Inf(1))
	belowThreshold, _ := ComputeStats(items, outcomes, DefaultParams(), th)
	if !belowThreshold["x"].LikelyUnpopular {
		t.Error("rating just below threshold should be likely unpopular")
	}
}

func TestNeedsMoreDataBoundary(t *testing.T) {
	// Build an item with exactly LowData comparisons against rotating
	// opponents and check the flag flips at the threshold.
	items := []string{"x", "o1", "o2", "o3", "o4", "o5"}
	var outcomes []database.Outcome
	opponents := []string{"o1", "o2", "o3", "o4", "o5"}

	for i, opp := range opponents {
		outcomes = append(outcomes, outcome("x", opp, "x"))

		stats, _ := ComputeStats(items, outcomes, DefaultParams(), DefaultThresholds())
		got := stats["x"].NeedsMoreData
		want := (i + 1) < 5
		if got != want {
			t.Errorf("after %d comparisons: needs_more_data = %v, want %v", i+1, got, want)
		}
	}
}
