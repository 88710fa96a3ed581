package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/calehr/pairpick/internal/collect"
	"github.com/calehr/pairpick/internal/config"
	"github.com/calehr/pairpick/internal/database"
	"github.com/calehr/pairpick/internal/engine"
	"github.com/calehr/pairpick/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "pairpick",
	Short:   "Pairwise image preference ranking",
	Long:    "pairpick runs adaptive pairwise comparisons over an image catalog and derives Elo ratings, prune candidates, and feature sentiment from the outcome log.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(sentimentCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pairpick", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/pairpick/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your images directory and feeds.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Catalog:")
		fmt.Printf("  Items: %d\n", stats.TotalItems)
		fmt.Printf("  Tagged: %d\n", stats.TaggedItems)
		fmt.Println("\nComparisons:")
		fmt.Printf("  Outcomes: %d\n", stats.TotalOutcomes)
		fmt.Printf("  Sessions: %d\n", stats.Sessions)
		fmt.Println("\nFinal ratings:")
		fmt.Printf("  Recorded: %d\n", stats.FinalRatings)
		return nil
	},
}

// --- import command ---

var fetchNotes bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import catalog items from the images directory and feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Importing catalog items...")
		result := collect.NewCollector(cfg, db).Collect()

		fmt.Println("\nImport complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New items: %d\n", result.NewItems)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nItems by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}

		if fetchNotes {
			fmt.Println("\nFetching notes for feed items...")
			nr := collect.NewNotesFetcher(db, 15*time.Second).FetchMissingNotes()
			fmt.Printf("  Fetched: %d, failed: %d\n", nr.Fetched, nr.Failed)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&fetchNotes, "fetch-notes", false, "Fetch descriptive notes for feed-imported items")
}

// --- tag command ---

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage feature tags on catalog items",
}

var tagSetCmd = &cobra.Command{
	Use:   "set [item] [category] [value]",
	Short: "Set one feature tag on an item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.SetItemTag(args[0], args[1], args[2]); err != nil {
			return fmt.Errorf("tagging %s: %w", args[0], err)
		}
		fmt.Printf("Tagged %s: %s=%s\n", args[0], args[1], args[2])
		return nil
	},
}

var tagClearCmd = &cobra.Command{
	Use:   "clear [item]",
	Short: "Remove all feature tags from an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.ClearItemTags(args[0]); err != nil {
			return err
		}
		fmt.Printf("Cleared tags on %s\n", args[0])
		return nil
	},
}

func init() {
	tagCmd.AddCommand(tagSetCmd)
	tagCmd.AddCommand(tagClearCmd)
}

// --- next command ---

var nextFilter string

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next prioritized pair to compare",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pair, fallback, err := engine.New(cfg, db).NextPair(nextFilter)
		if err != nil {
			return err
		}

		fmt.Printf("%s  vs  %s\n", pair.ItemA, pair.ItemB)
		if fallback {
			fmt.Println("(random fallback: no pairs match the filter)")
		} else {
			fmt.Printf("priority %.1f, %d combined comparisons", pair.Priority, pair.CombinedComparisons)
			if pair.AlreadyShown {
				fmt.Print(", shown before")
			}
			fmt.Println()
		}
		fmt.Printf("\nRecord with: pairpick record %q %q\n", pair.ItemA, pair.ItemB)
		return nil
	},
}

func init() {
	nextCmd.Flags().StringVarP(&nextFilter, "filter", "f", "", "Only offer pairs where both items carry this feature category")
}

// --- record command ---

var (
	recordLiked    []string
	recordDisliked []string
	recordFeedback string
)

var recordCmd = &cobra.Command{
	Use:   "record [winner] [loser]",
	Short: "Record the outcome of a comparison",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		winner, loser := args[0], args[1]
		o := database.Outcome{
			ItemA:            winner,
			ItemB:            loser,
			Chosen:           winner,
			LikedFeatures:    recordLiked,
			DislikedFeatures: recordDisliked,
		}
		if recordFeedback != "" {
			o.Feedback = &recordFeedback
		}

		if _, err := engine.New(cfg, db).RecordOutcome(o); err != nil {
			return fmt.Errorf("recording outcome: %w", err)
		}
		fmt.Printf("Recorded: %s over %s\n", winner, loser)
		return nil
	},
}

func init() {
	recordCmd.Flags().StringSliceVar(&recordLiked, "liked", nil, "Liked feature tags (category:value)")
	recordCmd.Flags().StringSliceVar(&recordDisliked, "disliked", nil, "Disliked feature tags (category:value)")
	recordCmd.Flags().StringVar(&recordFeedback, "feedback", "", "Free-text feedback")
}

// --- rank command ---

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Show the current standings",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		standings, err := engine.New(cfg, db).Standings()
		if err != nil {
			return err
		}
		if len(standings) == 0 {
			fmt.Println("No items yet. Run 'pairpick import' first.")
			return nil
		}

		for i, s := range standings {
			flags := ""
			if s.Stats.NeedsMoreData {
				flags += " [needs data]"
			}
			if s.Stats.LikelyUnpopular {
				flags += " [prune?]"
			}
			fmt.Printf("%3d. %-30s %6.0f  %d/%d wins%s\n",
				i+1, s.Name, s.Stats.Rating, s.Stats.Wins, s.Stats.Comparisons, flags)
		}
		return nil
	},
}

// --- prune command ---

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "List prune candidates, weakest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		state, err := engine.New(cfg, db).State()
		if err != nil {
			return err
		}
		if len(state.Classification.PruneCandidates) == 0 {
			fmt.Println("No prune candidates.")
			return nil
		}

		fmt.Println("Prune candidates (weakest first):")
		for _, name := range state.Classification.PruneCandidates {
			st := state.Stats[name]
			fmt.Printf("  %-30s %6.0f after %d comparisons\n", name, st.Rating, st.Comparisons)
		}
		return nil
	},
}

// --- sentiment command ---

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Show feature sentiment from explicit like/dislike tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ranked, err := engine.New(cfg, db).SentimentRanking()
		if err != nil {
			return err
		}
		if len(ranked) == 0 {
			fmt.Println("No explicit feature feedback recorded yet.")
			return nil
		}

		for _, f := range ranked {
			fmt.Printf("  %-30s %+.2f  (%d likes, %d dislikes)\n", f.Feature, f.Score, f.Likes, f.Dislikes)
		}
		return nil
	},
}

// --- analyze command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [category]",
	Short: "Analyze one feature category: win rates, rating aggregates, sentiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		scores, err := engine.New(cfg, db).AnalyzeCategory(args[0])
		if err != nil {
			return err
		}
		if len(scores) == 0 {
			fmt.Printf("No data for category %q.\n", args[0])
			return nil
		}

		fmt.Printf("%-20s %5s %8s %8s %9s %9s %9s %10s %10s\n",
			"value", "items", "contests", "win rate", "avg elo", "min elo", "max elo", "sentiment", "combined")
		for _, s := range scores {
			fmt.Printf("%-20s %5d %8d %8.2f %9.0f %9.0f %9.0f %10.2f %10.2f\n",
				s.Value, s.Items, s.Contests, s.WinRate, s.AvgRating, s.MinRating, s.MaxRating, s.Sentiment, s.Combined)
		}
		return nil
	},
}

// --- rate command ---

var rateComments string

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Manage final 1-10 ratings for finalists",
}

var rateAddCmd = &cobra.Command{
	Use:   "add [item] [overall]",
	Short: "Record a final rating for an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		overall, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid rating: %s", args[1])
		}

		r := database.FinalRating{Item: args[0], Overall: overall}
		if rateComments != "" {
			r.Comments = &rateComments
		}
		if err := db.UpsertFinalRating(r); err != nil {
			return err
		}
		fmt.Printf("Rated %s: %d/10\n", args[0], overall)
		return nil
	},
}

var rateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List final ratings, best first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ratings, err := db.GetAllFinalRatings()
		if err != nil {
			return err
		}
		if len(ratings) == 0 {
			fmt.Println("No final ratings yet. Add one with: pairpick rate add")
			return nil
		}

		for _, r := range ratings {
			fmt.Printf("  %-30s %2d/10", r.Item, r.Overall)
			if r.Comments != nil && *r.Comments != "" {
				fmt.Printf("  %s", *r.Comments)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rateAddCmd.Flags().StringVar(&rateComments, "comments", "", "Free-text comments")
	rateCmd.AddCommand(rateAddCmd)
	rateCmd.AddCommand(rateListCmd)
}

// --- report command ---

var reportCSV string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the markdown report, or export the outcome log as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		eng := engine.New(cfg, db)

		if reportCSV != "" {
			f, err := os.Create(reportCSV)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := eng.WriteSnapshot(f); err != nil {
				return err
			}
			fmt.Printf("Wrote outcome log to %s\n", reportCSV)
			return nil
		}

		summary, err := eng.Summary()
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportCSV, "csv", "", "Write the outcome log to this CSV file instead")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg, db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func openDB() (*database.DB, error) {
	return database.OpenDefault(cfg.GetDataDir())
}
