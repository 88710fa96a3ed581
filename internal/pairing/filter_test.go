package pairing

import (
	"reflect"
	"testing"

	"github.com/calehr/pairpick/internal/rating"
)

func TestClassify(t *testing.T) {
	stats := map[string]rating.ItemStats{
		"fresh":  {Comparisons: 2, Rating: 1500, NeedsMoreData: true},
		"solid":  {Comparisons: 9, Rating: 1560},
		"weak":   {Comparisons: 8, Rating: 1420, LikelyUnpopular: true},
		"weaker": {Comparisons: 10, Rating: 1380, LikelyUnpopular: true},
	}

	c := Classify(stats)

	if want := []string{"fresh", "solid"}; !reflect.DeepEqual(c.Eligible, want) {
		t.Errorf("eligible = %v, want %v", c.Eligible, want)
	}
	if want := []string{"fresh"}; !reflect.DeepEqual(c.Underexposed, want) {
		t.Errorf("underexposed = %v, want %v", c.Underexposed, want)
	}
	// Prune candidates come back weakest first.
	if want := []string{"weaker", "weak"}; !reflect.DeepEqual(c.PruneCandidates, want) {
		t.Errorf("prune candidates = %v, want %v", c.PruneCandidates, want)
	}
}

func TestClassifyPruneCandidatesExcludedFromEligible(t *testing.T) {
	stats := map[string]rating.ItemStats{
		"a": {Comparisons: 8, Rating: 1400, LikelyUnpopular: true},
	}

	c := Classify(stats)
	if len(c.Eligible) != 0 {
		t.Errorf("prune candidate must not be eligible, got %v", c.Eligible)
	}
	if len(c.Underexposed) != 0 {
		t.Errorf("prune candidate must not be underexposed, got %v", c.Underexposed)
	}
}

func TestClassifyEmpty(t *testing.T) {
	c := Classify(nil)
	if len(c.Eligible) != 0 || len(c.Underexposed) != 0 || len(c.PruneCandidates) != 0 {
		t.Errorf("expected empty classification, got %+v", c)
	}
}
