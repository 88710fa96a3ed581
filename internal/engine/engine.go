// Package engine ties the catalog, the outcome log, and the derived
// rating/pairing views together behind one orchestrator. All derived
// state is recomputed from the log on demand; nothing here caches
// ratings across calls except the session queue of upcoming pairs.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/calehr/pairpick/internal/config"
	"github.com/calehr/pairpick/internal/database"
	"github.com/calehr/pairpick/internal/pairing"
	"github.com/calehr/pairpick/internal/rating"
	"github.com/calehr/pairpick/internal/report"
	"github.com/calehr/pairpick/internal/sentiment"
)

// ErrNotEnoughItems is returned when fewer than two eligible items
// exist, so no comparison can be offered at all.
var ErrNotEnoughItems = errors.New("need at least two eligible items")

// Engine serves comparison pairs and records their outcomes.
type Engine struct {
	cfg       *config.Config
	db        *database.DB
	sessionID string
	queue     pairing.Queue
	rng       *rand.Rand
}

// New creates an engine with a fresh session identifier.
func New(cfg *config.Config, db *database.DB) *Engine {
	return &Engine{
		cfg:       cfg,
		db:        db,
		sessionID: uuid.NewString(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SessionID returns the identifier stamped on outcomes recorded
// through this engine.
func (e *Engine) SessionID() string {
	return e.sessionID
}

func (e *Engine) params() rating.Params {
	return rating.Params{
		KFactor:  e.cfg.Engine.KFactor,
		Baseline: e.cfg.Engine.BaselineRating,
	}
}

func (e *Engine) thresholds() rating.Thresholds {
	return rating.Thresholds{
		LowData:      e.cfg.Engine.LowDataThreshold,
		HighEvidence: e.cfg.Engine.HighEvidenceThreshold,
		WeakRating:   e.cfg.Engine.WeakRatingThreshold,
	}
}

func (e *Engine) weights() pairing.Weights {
	return pairing.Weights{
		Exposure:     e.cfg.Engine.ExposureBonus,
		Novelty:      e.cfg.Engine.NoveltyBonus,
		ClosenessMax: e.cfg.Engine.ClosenessBonusMax,
		SweetSpot:    e.cfg.Engine.SweetSpotBonus,
		JitterMax:    e.cfg.Engine.JitterMax,
	}
}

// State is one consistent snapshot of the catalog and everything
// derived from the outcome log.
type State struct {
	Items          []database.Item
	Outcomes       []database.Outcome
	Stats          map[string]rating.ItemStats
	Classification pairing.Classification
	Skipped        int
}

// State loads the catalog and replays the full outcome log.
func (e *Engine) State() (*State, error) {
	items, err := e.db.GetAllItems()
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	outcomes, err := e.db.GetAllOutcomes()
	if err != nil {
		return nil, fmt.Errorf("loading outcomes: %w", err)
	}

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}

	stats, skipped := rating.ComputeStats(names, outcomes, e.params(), e.thresholds())
	return &State{
		Items:          items,
		Outcomes:       outcomes,
		Stats:          stats,
		Classification: pairing.Classify(stats),
		Skipped:        skipped,
	}, nil
}

// NextPair returns the next comparison to show. filter names a feature
// category; when set, the queue is built only from items carrying that
// category. If the filtered queue comes up empty the engine falls back
// to a random pair from the full eligible population (fallback true)
// so a narrow filter never blocks comparisons.
func (e *Engine) NextPair(filter string) (pairing.CandidatePair, bool, error) {
	state, err := e.State()
	if err != nil {
		return pairing.CandidatePair{}, false, err
	}
	if len(state.Classification.Eligible) < 2 {
		return pairing.CandidatePair{}, false, ErrNotEnoughItems
	}

	build := func(ctx string) []pairing.CandidatePair {
		eligible := state.Classification.Eligible
		if ctx != "" {
			eligible = withCategory(eligible, state.Items, ctx)
		}
		shown := pairing.ShownPairs(state.Outcomes)
		return pairing.RankPairs(eligible, state.Stats, shown, e.cfg.Engine.QueueBatchSize, e.weights(), e.rng)
	}

	if pair, ok := e.queue.Next(filter, build); ok {
		return pair, false, nil
	}

	return e.randomPair(state), true, nil
}

// randomPair picks two distinct eligible items uniformly.
func (e *Engine) randomPair(state *State) pairing.CandidatePair {
	eligible := state.Classification.Eligible
	i := e.rng.Intn(len(eligible))
	j := e.rng.Intn(len(eligible) - 1)
	if j >= i {
		j++
	}

	a, b := eligible[i], eligible[j]
	shown := pairing.ShownPairs(state.Outcomes)
	return pairing.CandidatePair{
		ItemA:               a,
		ItemB:               b,
		AlreadyShown:        shown[pairing.NewPairKey(a, b)],
		CombinedComparisons: state.Stats[a].Comparisons + state.Stats[b].Comparisons,
	}
}

// withCategory keeps the items that carry the given feature category.
func withCategory(eligible []string, items []database.Item, category string) []string {
	tagged := make(map[string]bool, len(items))
	for _, it := range items {
		if _, ok := it.Tags[category]; ok {
			tagged[it.Name] = true
		}
	}

	var filtered []string
	for _, name := range eligible {
		if tagged[name] {
			filtered = append(filtered, name)
		}
	}
	return filtered
}

// RecordOutcome appends one outcome to the log. The session identifier
// is filled in when the caller left it empty. Recording invalidates
// the queued pairs: their priorities were computed against the old
// log.
func (e *Engine) RecordOutcome(o database.Outcome) (int64, error) {
	if o.SessionID == "" {
		o.SessionID = e.sessionID
	}

	id, err := e.db.InsertOutcome(o)
	if err != nil {
		return 0, err
	}
	e.queue.Invalidate()

	if err := e.maybeSnapshot(); err != nil {
		log.Printf("Snapshot failed: %v", err)
	}
	return id, nil
}

// maybeSnapshot writes a CSV snapshot of the log every snapshot_every
// outcomes. A failed snapshot never fails the recording; the log in
// sqlite stays the source of truth.
func (e *Engine) maybeSnapshot() error {
	every := e.cfg.Report.SnapshotEvery
	if every <= 0 {
		return nil
	}

	count, err := e.db.CountOutcomes()
	if err != nil {
		return err
	}
	if count == 0 || count%every != 0 {
		return nil
	}

	dir := filepath.Join(e.cfg.GetDataDir(), "snapshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	outcomes, err := e.db.GetAllOutcomes()
	if err != nil {
		return err
	}

	path := filepath.Join(dir, fmt.Sprintf("outcomes-%06d.csv", count))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := report.WriteSnapshotCSV(f, outcomes); err != nil {
		return err
	}
	log.Printf("Wrote snapshot with %d outcomes to %s", count, path)
	return nil
}

// Standing is one row of the rating table.
type Standing struct {
	Name  string
	Stats rating.ItemStats
}

// Standings returns all items sorted by descending rating.
func (e *Engine) Standings() ([]Standing, error) {
	state, err := e.State()
	if err != nil {
		return nil, err
	}
	return rankStandings(state.Stats), nil
}

func rankStandings(stats map[string]rating.ItemStats) []Standing {
	standings := make([]Standing, 0, len(stats))
	for name, st := range stats {
		standings = append(standings, Standing{Name: name, Stats: st})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Stats.Rating != standings[j].Stats.Rating {
			return standings[i].Stats.Rating > standings[j].Stats.Rating
		}
		return standings[i].Name < standings[j].Name
	})
	return standings
}

// Summary renders the full markdown report.
func (e *Engine) Summary() (string, error) {
	state, err := e.State()
	if err != nil {
		return "", err
	}

	return report.ComposeSummary(report.Summary{
		Items:          state.Items,
		Stats:          state.Stats,
		Classification: state.Classification,
		Sentiment:      sentiment.Ranking(sentiment.Aggregate(state.Outcomes)),
		Analysis:       e.analyzeAll(state),
		TotalOutcomes:  len(state.Outcomes),
		Skipped:        state.Skipped,
	}), nil
}

// analyzeAll runs the per-value analysis for every feature category the
// catalog carries.
func (e *Engine) analyzeAll(state *State) []report.CategoryAnalysis {
	seen := make(map[string]bool)
	var categories []string
	for _, it := range state.Items {
		for c := range it.Tags {
			if !seen[c] {
				seen[c] = true
				categories = append(categories, c)
			}
		}
	}
	sort.Strings(categories)

	analysis := make([]report.CategoryAnalysis, 0, len(categories))
	for _, c := range categories {
		analysis = append(analysis, report.CategoryAnalysis{
			Category: c,
			Scores:   sentiment.AnalyzeCategory(c, state.Items, state.Outcomes, e.params()),
		})
	}
	return analysis
}

// SentimentRanking returns the explicit feature sentiment, best first.
func (e *Engine) SentimentRanking() ([]sentiment.FeatureSentiment, error) {
	outcomes, err := e.db.GetAllOutcomes()
	if err != nil {
		return nil, err
	}
	return sentiment.Ranking(sentiment.Aggregate(outcomes)), nil
}

// AnalyzeCategory returns the per-value analysis for one feature
// category.
func (e *Engine) AnalyzeCategory(category string) ([]sentiment.ValueScore, error) {
	items, err := e.db.GetAllItems()
	if err != nil {
		return nil, err
	}
	outcomes, err := e.db.GetAllOutcomes()
	if err != nil {
		return nil, err
	}
	return sentiment.AnalyzeCategory(category, items, outcomes, e.params()), nil
}

// WriteSnapshot writes the current outcome log as CSV.
func (e *Engine) WriteSnapshot(w io.Writer) error {
	outcomes, err := e.db.GetAllOutcomes()
	if err != nil {
		return err
	}
	return report.WriteSnapshotCSV(w, outcomes)
}
