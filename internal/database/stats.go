package database

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM items").Scan(&s.TotalItems); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM items WHERE tags IS NOT NULL AND tags != '' AND tags != '{}'",
	).Scan(&s.TaggedItems); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM outcomes").Scan(&s.TotalOutcomes); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(DISTINCT session_id) FROM outcomes").Scan(&s.Sessions); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM final_ratings").Scan(&s.FinalRatings); err != nil {
		return nil, err
	}

	return s, nil
}
