package database

import (
	"database/sql"
	"encoding/json"
)

// InsertItem inserts a catalog item. Returns the ID on success, 0 if
// an item with the same name already exists.
func (db *DB) InsertItem(name string, tags map[string]string, sourceURL, notes *string) (int64, error) {
	var tagsJSON *string
	if tags != nil {
		data, err := json.Marshal(tags)
		if err != nil {
			return 0, err
		}
		s := string(data)
		tagsJSON = &s
	}

	result, err := db.conn.Exec(
		`INSERT INTO items (name, tags, source_url, notes) VALUES (?, ?, ?, ?)`,
		name, tagsJSON, sourceURL, notes,
	)
	if err != nil {
		// Duplicate name constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetAllItems returns all catalog items ordered by name.
func (db *DB) GetAllItems() ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, tags, source_url, notes, created_at FROM items ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetTaggedItems returns items that carry at least one feature tag.
// Untagged items are not yet part of the comparison population.
func (db *DB) GetTaggedItems() ([]Item, error) {
	items, err := db.GetAllItems()
	if err != nil {
		return nil, err
	}
	var tagged []Item
	for _, it := range items {
		if len(it.Tags) > 0 {
			tagged = append(tagged, it)
		}
	}
	return tagged, nil
}

// GetItem returns a single item by name.
func (db *DB) GetItem(name string) (*Item, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, tags, source_url, notes, created_at FROM items WHERE name = ?`, name,
	)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// SetItemTag sets one feature tag (category -> value) on an item.
func (db *DB) SetItemTag(name, category, value string) error {
	item, err := db.GetItem(name)
	if err != nil {
		return err
	}
	if item == nil {
		return sql.ErrNoRows
	}

	tags := item.Tags
	if tags == nil {
		tags = make(map[string]string)
	}
	tags[category] = value

	data, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec("UPDATE items SET tags = ? WHERE name = ?", string(data), name)
	return err
}

// ClearItemTags removes all feature tags from an item.
func (db *DB) ClearItemTags(name string) error {
	_, err := db.conn.Exec("UPDATE items SET tags = NULL WHERE name = ?", name)
	return err
}

// GetItemsNeedingNotes returns items with a source URL but no notes
// yet.
func (db *DB) GetItemsNeedingNotes() ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, tags, source_url, notes, created_at FROM items
		 WHERE source_url IS NOT NULL AND notes IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// UpdateItemNotes updates the descriptive notes on an item.
func (db *DB) UpdateItemNotes(name string, notes *string) error {
	_, err := db.conn.Exec("UPDATE items SET notes = ? WHERE name = ?", notes, name)
	return err
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		var tagsJSON *string
		if err := rows.Scan(&it.ID, &it.Name, &tagsJSON, &it.SourceURL, &it.Notes, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.Tags = parseTags(tagsJSON)
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanItem(row *sql.Row) (*Item, error) {
	var it Item
	var tagsJSON *string
	if err := row.Scan(&it.ID, &it.Name, &tagsJSON, &it.SourceURL, &it.Notes, &it.CreatedAt); err != nil {
		return nil, err
	}
	it.Tags = parseTags(tagsJSON)
	return &it, nil
}

// parseTags decodes a tag JSON object, treating malformed payloads as
// no tags rather than failing the read.
func parseTags(tagsJSON *string) map[string]string {
	if tagsJSON == nil || *tagsJSON == "" {
		return nil
	}
	var tags map[string]string
	if err := json.Unmarshal([]byte(*tagsJSON), &tags); err != nil {
		return nil
	}
	return tags
}
