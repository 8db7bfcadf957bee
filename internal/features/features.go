// Package features turns a learner's raw history for one subject area into
// the fixed vector the predictor scores.
package features

import (
	"sort"

	"github.com/abhisek/prepcoach/internal/history"
	"github.com/abhisek/prepcoach/internal/stats"
)

// RecentWindowSize is the number of trailing accuracies kept in Vector.RecentWindow.
const RecentWindowSize = 5

// Vector is derived per call and never stored.
type Vector struct {
	AvgAccuracy          float64   `json:"avg_accuracy"`
	AvgTimeSpent         float64   `json:"avg_time_spent"`
	Consistency          float64   `json:"consistency"`
	ImprovementRate      float64   `json:"improvement_rate"`
	DifficultyPreference float64   `json:"difficulty_preference"`
	RecentWindow         []float64 `json:"recent_window"`
	AvgAttempts          float64   `json:"avg_attempts"`
	Samples              int       `json:"samples"`
}

// Extract builds the vector for (learnerID, subject). Consistency is scored
// over every subject the learner has attempted; the other fields use only
// the matching subject. records is not modified.
func Extract(records []history.PerformanceRecord, learnerID, subject string) Vector {
	learner := chronological(history.ForLearner(records, learnerID))

	var all, acc, times, diffs, attempts []float64
	for _, r := range learner {
		all = append(all, r.Accuracy)
		if r.SubjectArea != subject {
			continue
		}
		acc = append(acc, r.Accuracy)
		times = append(times, r.TimeSpentSeconds)
		diffs = append(diffs, r.Difficulty)
		attempts = append(attempts, float64(r.Attempts))
	}

	return Vector{
		AvgAccuracy:          stats.Mean(acc),
		AvgTimeSpent:         stats.Mean(times),
		Consistency:          stats.Consistency(all),
		ImprovementRate:      stats.ImprovementRate(acc),
		DifficultyPreference: stats.Mean(diffs),
		RecentWindow:         tail(acc, RecentWindowSize),
		AvgAttempts:          stats.Mean(attempts),
		Samples:              len(acc),
	}
}

// chronological returns a copy of records ordered by ObservedAt. Records with
// equal timestamps keep their input order.
func chronological(records []history.PerformanceRecord) []history.PerformanceRecord {
	out := make([]history.PerformanceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ObservedAt.Before(out[j].ObservedAt)
	})
	return out
}

func tail(values []float64, n int) []float64 {
	if len(values) > n {
		values = values[len(values)-n:]
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
