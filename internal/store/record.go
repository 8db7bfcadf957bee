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

// insertBatch bounds the rows of one INSERT statement so the bound
// parameters stay well under SQLite's limit.
const insertBatch = 500

var recordColumns = []string{
	"sequence", "observed_at", "learner_id", "subject_area",
	"accuracy", "time_spent_seconds", "difficulty", "attempts",
}

// RecordRepo reads and appends performance records.
type RecordRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
	now func() time.Time
}

// Append stores records in one transaction. Records without an observation
// time are stamped with the current time. Callers are expected to have
// sanitized the rows.
func (r *RecordRepo) Append(ctx context.Context, records ...history.PerformanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	first, err := r.seq.Reserve(ctx, len(records))
	if err != nil {
		return err
	}

	return inTx(ctx, r.drv, func(tx dialect.Tx) error {
		for start := 0; start < len(records); start += insertBatch {
			end := min(start+insertBatch, len(records))
			ins := entsql.Dialect(dialect.SQLite).
				Insert(tablePerformanceRecords).
				Columns(recordColumns...)
			for i, rec := range records[start:end] {
				ins.Values(
					first+int64(start+i),
					observedAt(rec.ObservedAt, r.now),
					rec.LearnerID,
					rec.SubjectArea,
					rec.Accuracy,
					rec.TimeSpentSeconds,
					rec.Difficulty,
					rec.Attempts,
				)
			}
			query, args := ins.Query()
			var res sql.Result
			if err := tx.Exec(ctx, query, args, &res); err != nil {
				return fmt.Errorf("insert performance records: %w", err)
			}
		}
		return nil
	})
}

// ForLearner returns the learner's records oldest first. No records is an
// empty slice.
func (r *RecordRepo) ForLearner(ctx context.Context, learnerID string) ([]history.PerformanceRecord, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(recordColumns[1:]...).
		From(entsql.Table(tablePerformanceRecords)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("observed_at", "sequence").
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query performance records: %w", err)
	}
	defer rows.Close()

	out := []history.PerformanceRecord{}
	for rows.Next() {
		var rec history.PerformanceRecord
		if err := rows.Scan(
			&rec.ObservedAt,
			&rec.LearnerID,
			&rec.SubjectArea,
			&rec.Accuracy,
			&rec.TimeSpentSeconds,
			&rec.Difficulty,
			&rec.Attempts,
		); err != nil {
			return nil, fmt.Errorf("scan performance record: %w", err)
		}
		rec.ObservedAt = rec.ObservedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate performance records: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (r *RecordRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.drv, tablePerformanceRecords)
}

func count(ctx context.Context, drv *entsql.Driver, table string) (int, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Query()

	var rows entsql.Rows
	if err := drv.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	defer rows.Close()

	n, err := entsql.ScanInt(rows)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func observedAt(t time.Time, now func() time.Time) time.Time {
	if t.IsZero() {
		return now().UTC()
	}
	return t.UTC()
}

// inTx runs fn in a transaction, rolling back when it fails.
func inTx(ctx context.Context, drv *entsql.Driver, fn func(tx dialect.Tx) error) error {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
