// Package history defines the two read-only facts the core consumes: a
// learner's scored attempt in a subject area and a learner's rating of a
// content item.
package history

import (
	"strings"
	"time"

	"github.com/abhisek/prepcoach/internal/validation"
)

// Difficulty bounds shared by the predictor and the data source.
const (
	MinDifficulty = 1.0
	MaxDifficulty = 5.0
)

// PerformanceRecord is one historical result for a learner in a subject area.
type PerformanceRecord struct {
	LearnerID        string    `json:"learner_id" validate:"required"`
	SubjectArea      string    `json:"subject_area" validate:"required"`
	Accuracy         float64   `json:"accuracy" validate:"gte=0,lte=100"`
	TimeSpentSeconds float64   `json:"time_spent_seconds" validate:"gte=0"`
	Difficulty       float64   `json:"difficulty" validate:"gte=1,lte=5"`
	Attempts         int       `json:"attempts" validate:"gte=0"`
	ObservedAt       time.Time `json:"observed_at"`
}

// RatingEdge is one learner's affinity signal for one item.
type RatingEdge struct {
	LearnerID  string    `json:"learner_id" validate:"required"`
	ItemID     string    `json:"item_id" validate:"required"`
	Rating     float64   `json:"rating" validate:"gte=1,lte=5"`
	ObservedAt time.Time `json:"observed_at"`
}

// Rejected reports a row dropped during sanitizing and why.
type Rejected struct {
	Index int
	Err   error
}

// SanitizeRecords trims identifiers and drops rows that fail validation.
// The input slice is not modified.
func SanitizeRecords(in []PerformanceRecord) ([]PerformanceRecord, []Rejected) {
	out := make([]PerformanceRecord, 0, len(in))
	var rejected []Rejected
	for i, r := range in {
		r.LearnerID = strings.TrimSpace(r.LearnerID)
		r.SubjectArea = strings.TrimSpace(r.SubjectArea)
		if err := validation.Struct(r); err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		out = append(out, r)
	}
	return out, rejected
}

// SanitizeRatings is SanitizeRecords for rating edges.
func SanitizeRatings(in []RatingEdge) ([]RatingEdge, []Rejected) {
	out := make([]RatingEdge, 0, len(in))
	var rejected []Rejected
	for i, e := range in {
		e.LearnerID = strings.TrimSpace(e.LearnerID)
		e.ItemID = strings.TrimSpace(e.ItemID)
		if err := validation.Struct(e); err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		out = append(out, e)
	}
	return out, rejected
}

// ForLearner returns the records belonging to learnerID, in input order.
func ForLearner(records []PerformanceRecord, learnerID string) []PerformanceRecord {
	var out []PerformanceRecord
	for _, r := range records {
		if r.LearnerID == learnerID {
			out = append(out, r)
		}
	}
	return out
}

// Subjects returns the distinct subject areas present in records, in first-seen order.
func Subjects(records []PerformanceRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.SubjectArea] {
			seen[r.SubjectArea] = true
			out = append(out, r.SubjectArea)
		}
	}
	return out
}
