// Package microbatch queues same-shaped inserts and flushes them against a
// single transaction once a batch-size threshold is reached, so the ingest
// transaction's side-table writes (tags, authors, relationships, …) don't
// round-trip to the store one row at a time.
package microbatch

import (
	"context"
	"database/sql"
	"fmt"
)

type queued struct {
	query string
	args  []interface{}
}

// Insert batches same-shaped INSERT statements onto one *sql.Tx.
type Insert struct {
	tx        *sql.Tx
	batchSize int
	queue     []queued
	total     int
}

// NewInsert returns a new micro batcher writing through tx, flushing every
// batchSize queued statements.
func NewInsert(tx *sql.Tx, batchSize int) *Insert {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Insert{tx: tx, batchSize: batchSize}
}

// Queue enqueues one statement and its arguments, flushing the batch first
// if it has reached batchSize.
func (v *Insert) Queue(ctx context.Context, query string, args ...interface{}) error {
	if len(v.queue) >= v.batchSize {
		if err := v.flush(ctx); err != nil {
			return fmt.Errorf("failed to flush batch: %w", err)
		}
	}

	v.queue = append(v.queue, queued{query: query, args: args})
	v.total++
	return nil
}

// Done flushes any remaining queued statements. Callers must call Done once
// all statements have been queued.
func (v *Insert) Done(ctx context.Context) error {
	if len(v.queue) == 0 {
		return nil
	}
	return v.flush(ctx)
}

// Total returns the number of statements queued across the batcher's
// lifetime so far.
func (v *Insert) Total() int { return v.total }

func (v *Insert) flush(ctx context.Context) error {
	defer func() { v.queue = v.queue[:0] }()

	for i, q := range v.queue {
		if _, err := v.tx.ExecContext(ctx, q.query, q.args...); err != nil {
			return fmt.Errorf("exec %d: %w", i, err)
		}
	}
	return nil
}
