package database

import (
	"database/sql"
	"fmt"
)

// UpsertFinalRating inserts or replaces the individual rating for an
// item. Re-rating an item overwrites the previous score.
func (db *DB) UpsertFinalRating(r FinalRating) error {
	if r.Overall < 1 || r.Overall > 10 {
		return fmt.Errorf("overall rating %d out of range 1-10", r.Overall)
	}

	liked, err := marshalFeatures(r.LikedFeatures)
	if err != nil {
		return err
	}
	disliked, err := marshalFeatures(r.DislikedFeatures)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO final_ratings
		(item, liked_features, disliked_features, overall, comments, session_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Item, liked, disliked, r.Overall, r.Comments, r.SessionID,
	)
	return err
}

// GetFinalRating returns the final rating for an item, or nil if the
// item has not been rated.
func (db *DB) GetFinalRating(item string) (*FinalRating, error) {
	row := db.conn.QueryRow(
		`SELECT item, liked_features, disliked_features, overall, comments, session_id, recorded_at
		FROM final_ratings WHERE item = ?`, item,
	)

	var r FinalRating
	var liked, disliked *string
	if err := row.Scan(&r.Item, &liked, &disliked, &r.Overall, &r.Comments, &r.SessionID, &r.RecordedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.LikedFeatures = parseFeatures(liked)
	r.DislikedFeatures = parseFeatures(disliked)
	return &r, nil
}

// GetAllFinalRatings returns all final ratings, highest score first.
func (db *DB) GetAllFinalRatings() ([]FinalRating, error) {
	rows, err := db.conn.Query(
		`SELECT item, liked_features, disliked_features, overall, comments, session_id, recorded_at
		FROM final_ratings ORDER BY overall DESC, item`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []FinalRating
	for rows.Next() {
		var r FinalRating
		var liked, disliked *string
		if err := rows.Scan(&r.Item, &liked, &disliked, &r.Overall, &r.Comments, &r.SessionID, &r.RecordedAt); err != nil {
			return nil, err
		}
		r.LikedFeatures = parseFeatures(liked)
		r.DislikedFeatures = parseFeatures(disliked)
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
