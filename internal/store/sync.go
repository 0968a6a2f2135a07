package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// IsProcessed reports whether a message key has already been ingested.
func (q *Queries) IsProcessed(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_messages WHERE message_key = $1)`, key,
	).Scan(&exists)
	return exists, err
}

// MarkProcessed records a message key. Marking twice is a no-op.
func (q *Queries) MarkProcessed(ctx context.Context, key, subject string, records, failures int) error {
	_, err := q.db.Exec(ctx, `
INSERT INTO processed_messages (message_key, subject, records, failures)
VALUES ($1, $2, $3, $4)
ON CONFLICT (message_key) DO NOTHING`,
		key, ToPgText(subject), records, failures,
	)
	return err
}

// LastSync returns the time of the last completed sync, or the zero time.
func (q *Queries) LastSync(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := q.db.QueryRow(ctx, `SELECT last_sync_at FROM sync_state WHERE id = 1`).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	return t, err
}

// SetLastSync stores the time of the last completed sync.
func (q *Queries) SetLastSync(ctx context.Context, t time.Time) error {
	_, err := q.db.Exec(ctx, `
INSERT INTO sync_state (id, last_sync_at) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET last_sync_at = EXCLUDED.last_sync_at`,
		ToPgTimestamptz(t),
	)
	return err
}
