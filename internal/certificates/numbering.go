package certificates

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SequenceKind selects a number series in the shared month-scoped counter
// table.
type SequenceKind string

const (
	SequenceReport SequenceKind = "CQ"
	SequenceOrder  SequenceKind = "OC"
)

// NextNumber allocates the next number in the (kind, year, month) partition,
// formatted as <kind>YYYYMMNNNN. It must run inside the caller's transaction:
// the sequence row is locked until commit, which is what serializes concurrent
// allocations within a month.
func NextNumber(ctx context.Context, tx *sql.Tx, kind SequenceKind, at time.Time) (string, error) {
	year, month := at.Year(), int(at.Month())

	// Bound the lock wait so a stalled allocation surfaces as 55P03 for the
	// caller's retry instead of queueing indefinitely. SET LOCAL expires with
	// the transaction.
	if _, err := tx.ExecContext(ctx, "SET LOCAL lock_timeout = '3s'"); err != nil {
		return "", fmt.Errorf("set number sequence lock timeout: %w", err)
	}

	// Seed the partition row so FOR UPDATE has something to lock.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO number_sequences(kind, year, month, counter)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (kind, year, month) DO NOTHING`,
		string(kind), year, month,
	); err != nil {
		return "", fmt.Errorf("seed number sequence: %w", err)
	}

	var counter int
	if err := tx.QueryRowContext(ctx, `
		SELECT counter FROM number_sequences
		WHERE kind = $1 AND year = $2 AND month = $3
		FOR UPDATE`,
		string(kind), year, month,
	).Scan(&counter); err != nil {
		return "", fmt.Errorf("lock number sequence: %w", err)
	}

	counter++
	if counter > 9999 {
		return "", fmt.Errorf("number space exhausted for %s %04d-%02d", kind, year, month)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE number_sequences SET counter = $4
		WHERE kind = $1 AND year = $2 AND month = $3`,
		string(kind), year, month, counter,
	); err != nil {
		return "", fmt.Errorf("advance number sequence: %w", err)
	}

	return FormatNumber(kind, year, month, counter), nil
}

// FormatNumber renders a sequence number as <kind>YYYYMMNNNN.
func FormatNumber(kind SequenceKind, year, month, counter int) string {
	return fmt.Sprintf("%s%04d%02d%04d", kind, year, month, counter)
}
