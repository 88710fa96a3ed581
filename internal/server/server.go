// Package server is the local web UI for running comparison sessions
// and browsing the derived statistics.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/calehr/pairpick/internal/config"
	"github.com/calehr/pairpick/internal/database"
	"github.com/calehr/pairpick/internal/engine"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for comparison sessions.
type Server struct {
	db        *database.DB
	eng       *engine.Engine
	imagesDir string
	pages     map[string]*template.Template
	mux       *http.ServeMux
}

// New creates a new Server.
func New(cfg *config.Config, db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "compare.html", "standings.html", "prune.html", "sentiment.html", "report.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		db:        db,
		eng:       engine.New(cfg, db),
		imagesDir: cfg.Catalog.ImagesDir,
		pages:     pages,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/compare", s.handleCompare)
	s.mux.HandleFunc("/compare/choose", s.handleChoose)
	s.mux.HandleFunc("/standings", s.handleStandings)
	s.mux.HandleFunc("/prune", s.handlePrune)
	s.mux.HandleFunc("/sentiment", s.handleSentiment)
	s.mux.HandleFunc("/report", s.handleReport)
	s.mux.HandleFunc("/item-image/", s.handleItemImage)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	stats, err := s.db.GetStats()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Stats": stats,
	})
}

// itemView is what the compare page shows for one side of the pair.
type itemView struct {
	Name  string
	Tags  map[string]string
	Notes *string
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	filter := strings.TrimSpace(r.URL.Query().Get("filter"))

	pair, fallback, err := s.eng.NextPair(filter)
	if err == engine.ErrNotEnoughItems {
		s.render(w, "compare.html", map[string]any{"Empty": true})
		return
	}
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a, err := s.loadItemView(pair.ItemA)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	b, err := s.loadItemView(pair.ItemB)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "compare.html", map[string]any{
		"ItemA":    a,
		"ItemB":    b,
		"Features": featureTags(a, b),
		"Filter":   filter,
		"Fallback": fallback,
	})
}

func (s *Server) loadItemView(name string) (*itemView, error) {
	item, err := s.db.GetItem(name)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return &itemView{Name: name}, nil
	}
	return &itemView{Name: item.Name, Tags: item.Tags, Notes: item.Notes}, nil
}

// featureTags lists the "category:value" tags of both items, for the
// like/dislike checkboxes.
func featureTags(views ...*itemView) []string {
	seen := make(map[string]bool)
	var features []string
	for _, v := range views {
		for category, value := range v.Tags {
			f := category + ":" + value
			if !seen[f] {
				seen[f] = true
				features = append(features, f)
			}
		}
	}
	sort.Strings(features)
	return features
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	filter := strings.TrimSpace(r.FormValue("filter"))
	redirect := "/compare"
	if filter != "" {
		redirect += "?filter=" + url.QueryEscape(filter)
	}

	if r.Method != http.MethodPost {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}

	o := database.Outcome{
		ItemA:            r.FormValue("item_a"),
		ItemB:            r.FormValue("item_b"),
		Chosen:           r.FormValue("chosen"),
		LikedFeatures:    r.Form["liked"],
		DislikedFeatures: r.Form["disliked"],
	}
	if feedback := strings.TrimSpace(r.FormValue("feedback")); feedback != "" {
		o.Feedback = &feedback
	}

	if _, err := s.eng.RecordOutcome(o); err != nil {
		http.Error(w, "Invalid outcome", http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := s.eng.Standings()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "standings.html", map[string]any{
		"Standings": standings,
	})
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	state, err := s.eng.State()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	type candidate struct {
		Name        string
		Rating      float64
		Comparisons int
		Tags        map[string]string
	}
	tags := make(map[string]map[string]string, len(state.Items))
	for _, it := range state.Items {
		tags[it.Name] = it.Tags
	}

	var candidates []candidate
	for _, name := range state.Classification.PruneCandidates {
		st := state.Stats[name]
		candidates = append(candidates, candidate{
			Name:        name,
			Rating:      st.Rating,
			Comparisons: st.Comparisons,
			Tags:        tags[name],
		})
	}

	s.render(w, "prune.html", map[string]any{
		"Candidates": candidates,
	})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	ranked, err := s.eng.SentimentRanking()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "sentiment.html", map[string]any{
		"Ranking": ranked,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.eng.Summary()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "report.html", map[string]any{
		"Summary": summary,
	})
}

// handleItemImage serves the item's local image when the images dir
// holds one, falling back to the remote source URL.
func (s *Server) handleItemImage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/item-image/")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}

	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"} {
		path := filepath.Join(s.imagesDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			http.ServeFile(w, r, path)
			return
		}
	}

	item, err := s.db.GetItem(name)
	if err == nil && item != nil && item.SourceURL != nil {
		http.Redirect(w, r, *item.SourceURL, http.StatusFound)
		return
	}
	http.NotFound(w, r)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(cfg *config.Config, db *database.DB, port int) error {
	srv, err := New(cfg, db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
