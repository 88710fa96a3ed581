// Package sentiment tallies the explicit like/dislike feature tags
// attached to comparison outcomes. The tallies are kept separate from
// the rating fold: choosing an item says nothing about which of its
// features the choice was about, only the explicit tags do.
package sentiment

import (
	"sort"
	"strings"

	"github.com/calehr/pairpick/internal/database"
	"github.com/calehr/pairpick/internal/rating"
)

// Tally counts explicit mentions of one feature value.
type Tally struct {
	Likes    int
	Dislikes int
}

// Mentions returns the total number of explicit mentions.
func (t Tally) Mentions() int {
	return t.Likes + t.Dislikes
}

// Score returns the sentiment in [-1, 1]. It is only meaningful when
// Mentions() > 0; with no mentions it returns a neutral 0.
func (t Tally) Score() float64 {
	m := t.Mentions()
	if m == 0 {
		return 0
	}
	return float64(t.Likes-t.Dislikes) / float64(m)
}

// Aggregate folds the outcome log into per-feature tallies. Features
// are keyed by their full "category:value" tag.
func Aggregate(outcomes []database.Outcome) map[string]Tally {
	tallies := make(map[string]Tally)
	for _, o := range outcomes {
		for _, f := range o.LikedFeatures {
			t := tallies[f]
			t.Likes++
			tallies[f] = t
		}
		for _, f := range o.DislikedFeatures {
			t := tallies[f]
			t.Dislikes++
			tallies[f] = t
		}
	}
	return tallies
}

// FeatureSentiment is one row of the sentiment ranking.
type FeatureSentiment struct {
	Feature  string
	Likes    int
	Dislikes int
	Score    float64
}

// Ranking orders the tallied features by descending sentiment.
// Features with zero mentions are excluded: their score is undefined.
func Ranking(tallies map[string]Tally) []FeatureSentiment {
	ranked := make([]FeatureSentiment, 0, len(tallies))
	for f, t := range tallies {
		if t.Mentions() == 0 {
			continue
		}
		ranked = append(ranked, FeatureSentiment{
			Feature:  f,
			Likes:    t.Likes,
			Dislikes: t.Dislikes,
			Score:    t.Score(),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		mi, mj := ranked[i].Likes+ranked[i].Dislikes, ranked[j].Likes+ranked[j].Dislikes
		if mi != mj {
			return mi > mj
		}
		return ranked[i].Feature < ranked[j].Feature
	})
	return ranked
}

// ValueScore is the feature-level analysis for one value of a
// category: how often items carrying it won head-to-head contests,
// where those items sit in the full-history ratings, what the explicit
// sentiment says, and a combined auxiliary score. The combined score
// ranks feature values, never items.
type ValueScore struct {
	Value     string
	Items     int // items carrying this value
	Contests  int
	Wins      int
	WinRate   float64
	AvgRating float64
	MinRating float64
	MaxRating float64
	Mentions  int
	Sentiment float64
	Combined  float64 // 0.7 * WinRate + 0.3 * Sentiment
}

// AnalyzeCategory derives per-value scores for one feature category.
// Only outcomes where both items carry the category count as contests;
// the chosen item's value takes the win. Rating aggregates come from
// the full-history fold over the whole catalog, so a value's average
// reflects every comparison its items played, not just the contests.
// Explicit sentiment comes from the "category:value" tags in the log.
func AnalyzeCategory(category string, items []database.Item, outcomes []database.Outcome, p rating.Params) []ValueScore {
	values := make(map[string]string, len(items))
	byValue := make(map[string][]string)
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
		if v, ok := it.Tags[category]; ok {
			values[it.Name] = v
			byValue[v] = append(byValue[v], it.Name)
		}
	}

	ratings, _ := rating.CalculateRatings(names, outcomes, p)

	contests := make(map[string]int)
	wins := make(map[string]int)
	for _, o := range outcomes {
		va, okA := values[o.ItemA]
		vb, okB := values[o.ItemB]
		if !okA || !okB {
			continue
		}
		contests[va]++
		contests[vb]++
		wins[values[o.Chosen]]++
	}

	tallies := Aggregate(outcomes)
	prefix := category + ":"

	scores := make([]ValueScore, 0, len(byValue))
	seen := make(map[string]bool, len(byValue))
	for v, members := range byValue {
		t := tallies[prefix+v]
		s := ValueScore{
			Value:     v,
			Items:     len(members),
			Contests:  contests[v],
			Wins:      wins[v],
			Mentions:  t.Mentions(),
			Sentiment: t.Score(),
		}
		if s.Contests > 0 {
			s.WinRate = float64(s.Wins) / float64(s.Contests)
		}
		s.Combined = 0.7*s.WinRate + 0.3*s.Sentiment

		var sum float64
		for i, name := range members {
			r := ratings[name]
			sum += r
			if i == 0 || r < s.MinRating {
				s.MinRating = r
			}
			if i == 0 || r > s.MaxRating {
				s.MaxRating = r
			}
		}
		s.AvgRating = sum / float64(len(members))

		scores = append(scores, s)
		seen[v] = true
	}

	// Values mentioned in tags but never contested still show up, on
	// sentiment alone.
	for f, t := range tallies {
		v, ok := strings.CutPrefix(f, prefix)
		if !ok || seen[v] || t.Mentions() == 0 {
			continue
		}
		scores = append(scores, ValueScore{
			Value:     v,
			Mentions:  t.Mentions(),
			Sentiment: t.Score(),
			Combined:  0.3 * t.Score(),
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Combined != scores[j].Combined {
			return scores[i].Combined > scores[j].Combined
		}
		return scores[i].Value < scores[j].Value
	})
	return scores
}
