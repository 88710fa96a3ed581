package collect

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/calehr/pairpick/internal/database"
)

// NotesResult holds the results of a notes fetch run.
type NotesResult struct {
	Fetched int
	Failed  int
}

// NotesFetcher fills in descriptive notes for feed-imported items by
// fetching their source page and extracting the readable text.
type NotesFetcher struct {
	db     *database.DB
	client *http.Client
}

// NewNotesFetcher creates a new notes fetcher.
func NewNotesFetcher(db *database.DB, timeout time.Duration) *NotesFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &NotesFetcher{
		db: db,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchMissingNotes fetches notes for items that have a source URL but
// none yet. A domain that errors once is skipped for the rest of the
// run.
func (f *NotesFetcher) FetchMissingNotes() *NotesResult {
	items, err := f.db.GetItemsNeedingNotes()
	if err != nil {
		log.Printf("Error getting items needing notes: %v", err)
		return &NotesResult{}
	}

	if len(items) == 0 {
		log.Println("No items need notes")
		return &NotesResult{}
	}

	result := &NotesResult{}
	failedDomains := make(map[string]struct{})

	for _, item := range items {
		if item.SourceURL == nil {
			continue
		}

		u, _ := url.Parse(*item.SourceURL)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		notes, httpErr := f.fetchNotes(*item.SourceURL)
		if httpErr != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s, skipping remaining from %s", *item.SourceURL, domain)
			continue
		}

		if notes != "" {
			if err := f.db.UpdateItemNotes(item.Name, &notes); err != nil {
				log.Printf("Failed to store notes for %s: %v", item.Name, err)
				result.Failed++
				continue
			}
			result.Fetched++
			log.Printf("Fetched notes for: %s", item.Name)
		} else {
			result.Failed++
			log.Printf("No extractable content from: %s", *item.SourceURL)
		}
	}

	log.Printf("Notes fetch complete: %d fetched, %d failed", result.Fetched, result.Failed)
	return result
}

func (f *NotesFetcher) fetchNotes(pageURL string) (string, error) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "pairpick/1.0 (image catalog)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(pageURL)
	page, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(page.TextContent)
	if len(text) > 100 {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
