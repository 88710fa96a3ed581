package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calehr/pairpick/internal/config"
	"github.com/calehr/pairpick/internal/database"
	"github.com/calehr/pairpick/internal/pairing"
)

// testEngine builds an engine over a scratch database. Jitter is off
// so queue order is deterministic.
func testEngine(t *testing.T) (*Engine, *database.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Engine: config.Engine{
			KFactor:               32,
			BaselineRating:        1500,
			LowDataThreshold:      5,
			HighEvidenceThreshold: 8,
			WeakRatingThreshold:   1450,
			ExposureBonus:         50,
			NoveltyBonus:          30,
			ClosenessBonusMax:     20,
			SweetSpotBonus:        10,
			JitterMax:             0,
			QueueBatchSize:        100,
		},
		Output: config.Output{DataDir: t.TempDir()},
	}
	return New(cfg, db), db
}

func addItem(t *testing.T, db *database.DB, name string, tags map[string]string) {
	t.Helper()
	if _, err := db.InsertItem(name, tags, nil, nil); err != nil {
		t.Fatalf("failed to insert %s: %v", name, err)
	}
}

func TestNextPairColdStart(t *testing.T) {
	e, db := testEngine(t)
	addItem(t, db, "a", nil)
	addItem(t, db, "b", nil)
	addItem(t, db, "c", nil)

	pair, fallback, err := e.NextPair("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback {
		t.Error("expected a queued pair, not a fallback")
	}
	if pair.AlreadyShown {
		t.Error("no history: pair cannot have been shown")
	}
	// Fresh items earn both exposure bonuses plus novelty and closeness.
	if pair.Priority != 150 {
		t.Errorf("expected priority 150, got %v", pair.Priority)
	}
}

func TestNextPairNotEnoughItems(t *testing.T) {
	e, db := testEngine(t)
	addItem(t, db, "only", nil)

	if _, _, err := e.NextPair(""); err != ErrNotEnoughItems {
		t.Errorf("expected ErrNotEnoughItems, got %v", err)
	}
}

func TestRecordOutcomeUpdatesStandings(t *testing.T) {
	e, db := testEngine(t)
	addItem(t, db, "a", nil)
	addItem(t, db, "b", nil)
	addItem(t, db, "c", nil)

	if _, err := e.RecordOutcome(database.Outcome{ItemA: "a", ItemB: "b", Chosen: "a"}); err != nil {
		t.Fatalf("failed to record outcome: %v", err)
	}

	standings, err := e.Standings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(standings))
	}
	if standings[0].Name != "a" || standings[0].Stats.Rating <= 1500 {
		t.Errorf("winner should lead above baseline, got %+v", standings[0])
	}
	if standings[2].Name != "b" || standings[2].Stats.Rating >= 1500 {
		t.Errorf("loser should trail below baseline, got %+v", standings[2])
	}
	if standings[1].Name != "c" || standings[1].Stats.Rating != 1500 {
		t.Errorf("uninvolved item should sit at baseline, got %+v", standings[1])
	}
}

func TestRecordOutcomeStampsSession(t *testing.T) {
	e, db := testEngine(t)
	addItem(t, db, "a", nil)
	addItem(t, db, "b", nil)

	if _, err := e.RecordOutcome(database.Outcome{ItemA: "a", ItemB: "b", Chosen: "a"}); err != nil {
		t.Fatalf("failed to record outcome: %v", err)
	}

	outcomes, err := db.GetAllOutcomes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcomes[0].SessionID != e.SessionID() {
		t.Errorf("session = %q, want %q", outcomes[0].SessionID, e.SessionID())
	}
}

func TestNextPairFilterRestrictsToCategory(t *testing.T) {
	e, db := testEngine(t)
	addItem(t, db, "red", map[string]string{"color": "red"})
	addItem(t, db, "blue", map[string]string{"color": "blue"})
	addItem(t, db, "plain", nil)

	pair, fallback, err := e.NextPair("color")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback {
		t.Error("two tagged items exist; no fallback needed")
	}
	if pair.Key() != pairing.NewPairKey("blue", "red") {
		t.Errorf("expected the two color-tagged items, got %s vs %s", pair.ItemA, pair.ItemB)
	}
}

func TestNextPairFilterFallsBackToRandom(t *testing.T) {
	e, db := testEngine(t)
	addItem(t, db, "a", nil)
	addItem(t, db, "b", nil)

	// No item carries the category: the filtered queue is empty but a
	// pair must still come back.
	pair, fallback, err := e.NextPair("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fallback {
		t.Error("expected fallback for an impossible filter")
	}
	if pair.ItemA == pair.ItemB {
		t.Error("fallback produced a self-pair")
	}
	if pair.Key() != pairing.NewPairKey("a", "b") {
		t.Errorf("fallback must draw from the eligible population, got %s vs %s", pair.ItemA, pair.ItemB)
	}
}

func TestQueueAvoidsRepeatsAfterRecording(t *testing.T) {
	e, db := testEngine(t)
	addItem(t, db, "a", nil)
	addItem(t, db, "b", nil)
	addItem(t, db, "c", nil)

	first, _, err := e.NextPair("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.RecordOutcome(database.Outcome{ItemA: first.ItemA, ItemB: first.ItemB, Chosen: first.ItemA}); err != nil {
		t.Fatalf("failed to record outcome: %v", err)
	}

	// The rebuilt queue demotes the recorded pair below the two novel
	// ones.
	second, _, err := e.NextPair("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Key() == first.Key() {
		t.Errorf("just-recorded pair %v should not lead the rebuilt queue", first.Key())
	}
	if second.AlreadyShown {
		t.Error("expected a novel pair next")
	}
}

func TestSnapshotWrittenPeriodically(t *testing.T) {
	e, db := testEngine(t)
	e.cfg.Report.SnapshotEvery = 2
	addItem(t, db, "a", nil)
	addItem(t, db, "b", nil)

	for i := 0; i < 2; i++ {
		if _, err := e.RecordOutcome(database.Outcome{ItemA: "a", ItemB: "b", Chosen: "a"}); err != nil {
			t.Fatalf("failed to record outcome: %v", err)
		}
	}

	path := filepath.Join(e.cfg.GetDataDir(), "snapshots", "outcomes-000002.csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected snapshot at %s: %v", path, err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("expected header + 2 rows, got %d lines", lines)
	}
}

func TestSummary(t *testing.T) {
	e, db := testEngine(t)
	addItem(t, db, "a", nil)
	addItem(t, db, "b", nil)

	if _, err := e.RecordOutcome(database.Outcome{
		ItemA: "a", ItemB: "b", Chosen: "a",
		LikedFeatures: []string{"color:red"},
	}); err != nil {
		t.Fatalf("failed to record outcome: %v", err)
	}

	md, err := e.Summary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"# Preference Report", "**a**", "color:red"} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestAnalyzeCategory(t *testing.T) {
	e, db := testEngine(t)
	addItem(t, db, "r", map[string]string{"color": "red"})
	addItem(t, db, "b", map[string]string{"color": "blue"})

	if _, err := e.RecordOutcome(database.Outcome{ItemA: "r", ItemB: "b", Chosen: "r"}); err != nil {
		t.Fatalf("failed to record outcome: %v", err)
	}

	scores, err := e.AnalyzeCategory("color")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 2 || scores[0].Value != "red" {
		t.Errorf("expected red to lead, got %v", scores)
	}

	// One win with K=32 from even expectations moves red to 1516.
	red := scores[0]
	if red.Items != 1 || red.AvgRating != 1516 || red.MinRating != 1516 || red.MaxRating != 1516 {
		t.Errorf("unexpected red rating aggregates: %+v", red)
	}
	if blue := scores[1]; blue.AvgRating != 1484 {
		t.Errorf("blue avg = %v, want 1484", blue.AvgRating)
	}
}
