package store

import (
	"context"

	"github.com/abhisek/prepcoach/internal/history"
)

// source adapts the repositories to engine.DataSource.
type source struct {
	records *RecordRepo
	ratings *RatingRepo
}

func (s source) PerformanceRecords(ctx context.Context, learnerID string) ([]history.PerformanceRecord, error) {
	return s.records.ForLearner(ctx, learnerID)
}

func (s source) Ratings(ctx context.Context) ([]history.RatingEdge, error) {
	return s.ratings.All(ctx)
}
