// Package report renders derived statistics into human-readable
// artifacts: a markdown summary and a CSV snapshot of the outcome log.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/calehr/pairpick/internal/database"
	"github.com/calehr/pairpick/internal/pairing"
	"github.com/calehr/pairpick/internal/rating"
	"github.com/calehr/pairpick/internal/sentiment"
)

const (
	standingsLimit = 10
	bottomLimit    = 5
)

// CategoryAnalysis is one feature category's per-value breakdown.
type CategoryAnalysis struct {
	Category string
	Scores   []sentiment.ValueScore
}

// Summary bundles everything the markdown report draws from.
type Summary struct {
	Items          []database.Item
	Stats          map[string]rating.ItemStats
	Classification pairing.Classification
	Sentiment      []sentiment.FeatureSentiment
	Analysis       []CategoryAnalysis
	TotalOutcomes  int
	Skipped        int
}

// ComposeSummary assembles the full markdown analysis.
func ComposeSummary(s Summary) string {
	sections := []string{
		fmt.Sprintf("# Preference Report\n\n%d items, %d recorded comparisons.", len(s.Items), s.TotalOutcomes),
		standingsSection(s),
		underexposedSection(s),
		pruneSection(s),
		sentimentSection(s.Sentiment),
	}
	if len(s.Analysis) > 0 {
		sections = append(sections, analysisSection(s.Analysis))
	}

	if s.Skipped > 0 {
		sections = append(sections, fmt.Sprintf("Note: %d outcomes reference items no longer in the catalog and were ignored.", s.Skipped))
	}

	return strings.Join(sections, "\n\n")
}

func standingsSection(s Summary) string {
	names := make([]string, 0, len(s.Stats))
	for name := range s.Stats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Stats[names[i]].Rating != s.Stats[names[j]].Rating {
			return s.Stats[names[i]].Rating > s.Stats[names[j]].Rating
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	b.WriteString("## Standings\n")
	for i, name := range names {
		if i >= standingsLimit {
			break
		}
		st := s.Stats[name]
		fmt.Fprintf(&b, "%d. **%s** — %.0f (%d/%d wins)\n", i+1, name, st.Rating, st.Wins, st.Comparisons)
	}

	if len(names) > standingsLimit+bottomLimit {
		b.WriteString("\n### Bottom of the table\n")
		for _, name := range names[len(names)-bottomLimit:] {
			st := s.Stats[name]
			fmt.Fprintf(&b, "- %s — %.0f (%d/%d wins)\n", name, st.Rating, st.Wins, st.Comparisons)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func underexposedSection(s Summary) string {
	if len(s.Classification.Underexposed) == 0 {
		return "## Needs more comparisons\n\nEvery item has enough data."
	}

	var b strings.Builder
	b.WriteString("## Needs more comparisons\n")
	for _, name := range s.Classification.Underexposed {
		fmt.Fprintf(&b, "- %s (%d so far)\n", name, s.Stats[name].Comparisons)
	}
	return strings.TrimRight(b.String(), "\n")
}

func pruneSection(s Summary) string {
	if len(s.Classification.PruneCandidates) == 0 {
		return "## Prune candidates\n\nNone."
	}

	tags := make(map[string]map[string]string, len(s.Items))
	for _, it := range s.Items {
		tags[it.Name] = it.Tags
	}

	var b strings.Builder
	b.WriteString("## Prune candidates\n\nWeakest first; review before removing.\n")
	for _, name := range s.Classification.PruneCandidates {
		st := s.Stats[name]
		line := fmt.Sprintf("- **%s** — %.0f after %d comparisons", name, st.Rating, st.Comparisons)
		if t := formatTags(tags[name]); t != "" {
			line += " (" + t + ")"
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func sentimentSection(ranked []sentiment.FeatureSentiment) string {
	if len(ranked) == 0 {
		return "## Feature sentiment\n\nNo explicit feature feedback recorded yet."
	}

	var b strings.Builder
	b.WriteString("## Feature sentiment\n")
	for _, f := range ranked {
		fmt.Fprintf(&b, "- %s: %+.2f (%d likes, %d dislikes)\n", f.Feature, f.Score, f.Likes, f.Dislikes)
	}
	return strings.TrimRight(b.String(), "\n")
}

func analysisSection(analysis []CategoryAnalysis) string {
	var b strings.Builder
	b.WriteString("## Feature analysis\n")
	for _, ca := range analysis {
		fmt.Fprintf(&b, "\n### %s\n", ca.Category)
		for _, v := range ca.Scores {
			fmt.Fprintf(&b, "- **%s** — combined %.2f, %d/%d contest wins, sentiment %+.2f",
				v.Value, v.Combined, v.Wins, v.Contests, v.Sentiment)
			if v.Items > 0 {
				fmt.Fprintf(&b, ", avg rating %.0f over %d items (%.0f to %.0f)",
					v.AvgRating, v.Items, v.MinRating, v.MaxRating)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+tags[k])
	}
	return strings.Join(parts, ", ")
}
