// Package collect builds the item catalog from a local images
// directory and, optionally, from configured RSS/Atom feeds.
package collect

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/calehr/pairpick/internal/config"
	"github.com/calehr/pairpick/internal/database"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
}

// Result holds the results of a catalog import run.
type Result struct {
	TotalFound int
	NewItems   int
	Duplicates int
	Sources    map[string]int
}

// Collector imports catalog items from the configured sources.
type Collector struct {
	db         *database.DB
	imagesDir  string
	feedParser *FeedParser
}

// NewCollector creates a new catalog collector.
func NewCollector(cfg *config.Config, db *database.DB) *Collector {
	c := &Collector{
		db:        db,
		imagesDir: cfg.Catalog.ImagesDir,
	}

	if len(cfg.Catalog.Feeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Catalog.Feeds))
		for i, f := range cfg.Catalog.Feeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		c.feedParser = NewFeedParser(feeds)
	}

	return c
}

// Collect imports from the images directory and all configured feeds.
// Items are keyed by name; re-running an import never duplicates.
func (c *Collector) Collect() *Result {
	r := &Result{Sources: make(map[string]int)}

	if c.imagesDir != "" {
		c.collectImagesDir(r)
	}
	if c.feedParser != nil {
		c.collectFeeds(r)
	}

	log.Printf("Import complete: %d found, %d new, %d duplicates", r.TotalFound, r.NewItems, r.Duplicates)
	return r
}

func (c *Collector) collectImagesDir(r *Result) {
	entries, err := os.ReadDir(c.imagesDir)
	if err != nil {
		log.Printf("Failed to read images dir %s: %v", c.imagesDir, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !imageExtensions[ext] {
			continue
		}
		r.TotalFound++

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		id, err := c.db.InsertItem(name, nil, nil, nil)
		if err != nil {
			log.Printf("Failed to insert %s: %v", name, err)
			continue
		}
		if id > 0 {
			r.NewItems++
			r.Sources["local"]++
		} else {
			r.Duplicates++
		}
	}
}

func (c *Collector) collectFeeds(r *Result) {
	log.Println("Importing from feeds...")
	entries := c.feedParser.ParseAll()
	r.TotalFound += len(entries)

	for _, entry := range entries {
		var sourceURL, notes *string
		if entry.ImageURL != "" {
			sourceURL = &entry.ImageURL
		}
		if entry.Notes != "" {
			notes = &entry.Notes
		}

		id, err := c.db.InsertItem(entry.Name, nil, sourceURL, notes)
		if err != nil {
			log.Printf("Failed to insert %s: %v", entry.Name, err)
			continue
		}
		if id > 0 {
			r.NewItems++
			r.Sources[entry.Source]++
		} else {
			r.Duplicates++
		}
	}
}
