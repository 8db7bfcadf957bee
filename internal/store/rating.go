package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/prepcoach/internal/history"
)

var ratingColumns = []string{"sequence", "observed_at", "learner_id", "item_id", "rating"}

// RatingRepo reads and writes rating edges. There is one edge per learner
// and item; writing an existing pair replaces it.
type RatingRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
	now func() time.Time
}

// Upsert stores edges in one transaction, last write wins per pair.
func (r *RatingRepo) Upsert(ctx context.Context, edges ...history.RatingEdge) error {
	if len(edges) == 0 {
		return nil
	}
	first, err := r.seq.Reserve(ctx, len(edges))
	if err != nil {
		return err
	}

	return inTx(ctx, r.drv, func(tx dialect.Tx) error {
		// One statement per edge: a multi-row upsert that names the same
		// pair twice is rejected by SQLite.
		for i, e := range edges {
			query, args := entsql.Dialect(dialect.SQLite).
				Insert(tableRatingEdges).
				Columns(ratingColumns...).
				Values(first+int64(i), observedAt(e.ObservedAt, r.now), e.LearnerID, e.ItemID, e.Rating).
				OnConflict(
					entsql.ConflictColumns("learner_id", "item_id"),
					entsql.ResolveWithNewValues(),
				).
				Query()
			var res sql.Result
			if err := tx.Exec(ctx, query, args, &res); err != nil {
				return fmt.Errorf("upsert rating %s/%s: %w", e.LearnerID, e.ItemID, err)
			}
		}
		return nil
	})
}

// All returns every edge ordered by learner then item.
func (r *RatingRepo) All(ctx context.Context) ([]history.RatingEdge, error) {
	return r.query(ctx, nil)
}

// ForLearner returns one learner's edges ordered by item.
func (r *RatingRepo) ForLearner(ctx context.Context, learnerID string) ([]history.RatingEdge, error) {
	return r.query(ctx, entsql.EQ("learner_id", learnerID))
}

// Count returns the number of stored edges.
func (r *RatingRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.drv, tableRatingEdges)
}

func (r *RatingRepo) query(ctx context.Context, pred *entsql.Predicate) ([]history.RatingEdge, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(ratingColumns[1:]...).
		From(entsql.Table(tableRatingEdges)).
		OrderBy("learner_id", "item_id")
	if pred != nil {
		sel.Where(pred)
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query rating edges: %w", err)
	}
	defer rows.Close()

	out := []history.RatingEdge{}
	for rows.Next() {
		var e history.RatingEdge
		if err := rows.Scan(&e.ObservedAt, &e.LearnerID, &e.ItemID, &e.Rating); err != nil {
			return nil, fmt.Errorf("scan rating edge: %w", err)
		}
		e.ObservedAt = e.ObservedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating edges: %w", err)
	}
	return out, nil
}
