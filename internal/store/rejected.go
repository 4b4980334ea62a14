package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobdetector/internal/domain"
)

// IsRejected reports whether a content hash was previously excluded by
// the classifier, so identical postings skip re-evaluation.
func (d *DB) IsRejected(ctx context.Context, contentHash string) (bool, error) {
	var one int
	err := d.Pool.QueryRowContext(ctx,
		`SELECT 1 FROM rejected_jobs WHERE content_hash = ? LIMIT 1;`, contentHash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkRejected records an exclusion; re-marking the same hash keeps the
// first reason.
func (d *DB) MarkRejected(ctx context.Context, r domain.Rejected) error {
	at := r.RejectedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := d.Pool.ExecContext(ctx,
		`INSERT OR IGNORE INTO rejected_jobs (content_hash, reason, rejected_at) VALUES (?, ?, ?);`,
		r.ContentHash, r.Reason, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("mark rejected: %w", err)
	}
	return nil
}
