package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// sequenceCounter hands out the global insertion sequence shared by every
// fact table. Performance records and rating edges live in separate tables,
// so per-table row IDs cannot order them against each other; the sequence
// can, and it breaks ties between records observed at the same instant.
//
// The counter is a single-row table updated with RETURNING so the increment
// is atomic in the database; the mutex serializes callers in this process.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequenceCounter(ctx context.Context, db *sql.DB) (*sequenceCounter, error) {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.ExecContext(ctx, `INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Reserve claims n consecutive sequence numbers and returns the first.
func (sc *sequenceCounter) Reserve(ctx context.Context, n int) (int64, error) {
	if n < 1 {
		return 0, fmt.Errorf("reserve %d sequence numbers", n)
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var first int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + ? WHERE id = 1 RETURNING next_val - ?`,
		n, n,
	).Scan(&first)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return first, nil
}

// Next returns a single sequence number.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	return sc.Reserve(ctx, 1)
}
