package report

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/calehr/pairpick/internal/database"
)

// WriteSnapshotCSV writes the outcome log as a flat table, one row per
// comparison, in log order. Feature tags are joined with ";" so the
// file stays one-row-per-outcome.
func WriteSnapshotCSV(w io.Writer, outcomes []database.Outcome) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "item_a", "item_b", "chosen", "liked", "disliked", "feedback", "session_id"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, o := range outcomes {
		feedback := ""
		if o.Feedback != nil {
			feedback = *o.Feedback
		}
		row := []string{
			o.RecordedAt,
			o.ItemA,
			o.ItemB,
			o.Chosen,
			strings.Join(o.LikedFeatures, ";"),
			strings.Join(o.DislikedFeatures, ";"),
			feedback,
			o.SessionID,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
