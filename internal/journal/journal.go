package journal

import (
	"context"
	"database/sql"
	"presencerelay/internal/session"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS presence_events (
    id          BIGSERIAL PRIMARY KEY,
    conn_id     TEXT        NOT NULL,
    kind        TEXT        NOT NULL,
    username    TEXT        NOT NULL DEFAULT '',
    occurred_at TIMESTAMPTZ NOT NULL
)`

const insertQ = `INSERT INTO presence_events (conn_id, kind, username, occurred_at)
                 VALUES ($1, $2, $3, $4)`

// Writer appends lifecycle transitions to Postgres in batches. It never
// blocks the caller; transitions arriving while the buffer is full are dropped.
type Writer struct {
	db       *sql.DB
	in       chan session.Transition
	batch    int
	interval time.Duration
	dropped  atomic.Int64
	done     chan struct{}
}

func NewWriter(db *sql.DB, batch int, interval time.Duration) *Writer {
	if batch <= 0 {
		batch = 100
	}
	return &Writer{
		db:       db,
		in:       make(chan session.Transition, batch*4),
		batch:    batch,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// EnsureSchema creates the journal table if needed.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Record implements session.Recorder.
func (w *Writer) Record(t session.Transition) {
	select {
	case w.in <- t:
	default:
		w.dropped.Add(1)
	}
}

// Dropped reports how many transitions were discarded on a full buffer.
func (w *Writer) Dropped() int64 { return w.dropped.Load() }

// Done is closed once Run has flushed its last batch and returned.
func (w *Writer) Done() <-chan struct{} { return w.done }

// Run drains the buffer until ctx is done, then flushes what is left.
// Callers must wait on Done before closing the database.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)
	tk := time.NewTicker(w.interval)
	defer tk.Stop()

	pending := make([]session.Transition, 0, w.batch)
	flush := func(ctx context.Context) {
		if len(pending) == 0 {
			return
		}
		if err := persist(ctx, w.db, pending); err != nil {
			zap.L().Warn("journal.persist", zap.Int("rows", len(pending)), zap.Error(err))
		}
		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
			pending = w.drain(pending)
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(fctx)
			cancel()
			return
		case t := <-w.in:
			pending = append(pending, t)
			if len(pending) >= w.batch {
				flush(ctx)
			}
		case <-tk.C:
			flush(ctx)
		}
	}
}

func (w *Writer) drain(pending []session.Transition) []session.Transition {
	for {
		select {
		case t := <-w.in:
			pending = append(pending, t)
		default:
			return pending
		}
	}
}

func persist(ctx context.Context, db *sql.DB, rows []session.Transition) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, insertQ, string(r.Conn), r.Kind, r.Name, r.At); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
