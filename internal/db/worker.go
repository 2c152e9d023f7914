package db

import (
	"context"
	"database/sql"
)

// TxFn is a unit of work executed inside a single transaction.
type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// queueDepth bounds how many write jobs can wait before Do blocks.
const queueDepth = 256

// Worker serializes all write transactions onto one goroutine.  SQLite with
// a single connection cannot interleave writers anyway; funnelling them
// through a queue keeps transaction scope explicit and lets callers bail
// out via their context.
type Worker struct {
	db   *sql.DB
	jobs chan job
	done chan struct{}
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:   db,
		jobs: make(chan job, queueDepth),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Close drains the queue and stops the worker.  In-flight jobs complete.
func (w *Worker) Close() {
	close(w.jobs)
	<-w.done
}

// Do runs fn inside a transaction on the worker goroutine and returns its
// result.  If the caller's context expires while the job is queued or
// executing, Do returns the context error; the transaction itself still
// runs to completion and its result is discarded.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)

	select {
	case w.jobs <- job{ctx: ctx, fn: fn, ch: ch}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	for j := range w.jobs {
		j.ch <- w.runOne(j)
	}
}

func (w *Worker) runOne(j job) error {
	tx, err := w.db.BeginTx(j.ctx, nil)
	if err != nil {
		return err
	}

	if err := j.fn(j.ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
