package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// InsertOutcome appends a comparison outcome to the log. The log is
// append-only; there is no update or delete path. Returns the new ID.
func (db *DB) InsertOutcome(o Outcome) (int64, error) {
	if o.ItemA == o.ItemB {
		return 0, fmt.Errorf("outcome pairs %q with itself", o.ItemA)
	}
	if o.Chosen != o.ItemA && o.Chosen != o.ItemB {
		return 0, fmt.Errorf("chosen item %q is not part of the pair (%q, %q)", o.Chosen, o.ItemA, o.ItemB)
	}

	if o.RecordedAt == "" {
		o.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}

	liked, err := marshalFeatures(o.LikedFeatures)
	if err != nil {
		return 0, err
	}
	disliked, err := marshalFeatures(o.DislikedFeatures)
	if err != nil {
		return 0, err
	}

	result, err := db.conn.Exec(
		`INSERT INTO outcomes
		(recorded_at, item_a, item_b, chosen, liked_features, disliked_features, feedback, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RecordedAt, o.ItemA, o.ItemB, o.Chosen, liked, disliked, o.Feedback, o.SessionID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetAllOutcomes returns the full outcome log in recorded order.
// Every derived statistic replays this sequence.
func (db *DB) GetAllOutcomes() ([]Outcome, error) {
	rows, err := db.conn.Query(
		`SELECT id, recorded_at, item_a, item_b, chosen, liked_features, disliked_features, feedback, session_id
		FROM outcomes ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOutcomes(rows)
}

// GetOutcomesForSession returns the outcomes recorded under a session ID.
func (db *DB) GetOutcomesForSession(sessionID string) ([]Outcome, error) {
	rows, err := db.conn.Query(
		`SELECT id, recorded_at, item_a, item_b, chosen, liked_features, disliked_features, feedback, session_id
		FROM outcomes WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOutcomes(rows)
}

// CountOutcomes returns the total number of recorded outcomes.
func (db *DB) CountOutcomes() (int, error) {
	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM outcomes").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanOutcomes(rows *sql.Rows) ([]Outcome, error) {
	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		var liked, disliked *string
		if err := rows.Scan(&o.ID, &o.RecordedAt, &o.ItemA, &o.ItemB, &o.Chosen,
			&liked, &disliked, &o.Feedback, &o.SessionID); err != nil {
			return nil, err
		}
		o.LikedFeatures = parseFeatures(liked)
		o.DislikedFeatures = parseFeatures(disliked)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func marshalFeatures(features []string) (*string, error) {
	if features == nil {
		return nil, nil
	}
	data, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

// parseFeatures decodes a feature list, treating malformed payloads as
// an empty set so one bad row never aborts a log replay.
func parseFeatures(featuresJSON *string) []string {
	if featuresJSON == nil || *featuresJSON == "" {
		return nil
	}
	var features []string
	if err := json.Unmarshal([]byte(*featuresJSON), &features); err != nil {
		return nil
	}
	return features
}
