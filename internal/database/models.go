package database

// Item is a catalog entry: an image identified by name, with feature
// tags (category -> value). Tags are set by the user and never mutated
// by the engine.
type Item struct {
	ID        int64
	Name      string
	Tags      map[string]string
	SourceURL *string
	Notes     *string
	CreatedAt *string
}

// Outcome is one completed pairwise comparison. Outcomes are
// append-only and form the sole source of truth for every derived
// statistic.
type Outcome struct {
	ID               int64
	RecordedAt       string
	ItemA            string
	ItemB            string
	Chosen           string
	LikedFeatures    []string // "category:value" pairs
	DislikedFeatures []string
	Feedback         *string
	SessionID        string
}

// FinalRating is an individual finalist score, independent of the
// pairwise log.
type FinalRating struct {
	Item             string
	LikedFeatures    []string
	DislikedFeatures []string
	Overall          int
	Comments         *string
	SessionID        string
	RecordedAt       *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalItems    int
	TaggedItems   int
	TotalOutcomes int
	Sessions      int
	FinalRatings  int
}
