package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cashm/note-sorter/internal/domain"
)

// TallyRepo handles persistence for per-denomination counters.
type TallyRepo struct{}

// Get returns the current count for a denomination, or 0 if no row exists.
func (r *TallyRepo) Get(ctx context.Context, db *sql.DB, kind domain.TokenKind, value int) (int64, error) {
	const q = `SELECT count FROM tally_totals WHERE kind = ? AND value = ?`

	var count int64
	err := db.QueryRowContext(ctx, q, string(kind), value).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, domain.WrapEngineError(domain.ErrStoreQuery.Code, fmt.Sprintf("get tally %s/%d", kind, value), err)
	}
	return count, nil
}

// Increment bumps the counter for a denomination by exactly 1, creating the
// row at 0 first if absent, and returns the new count. The read and write
// run in one transaction; the tally channel is single-writer so this is a
// plain read-modify-write.
func (r *TallyRepo) Increment(ctx context.Context, db *sql.DB, kind domain.TokenKind, value int) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int64
	err = tx.QueryRowContext(ctx, `SELECT count FROM tally_totals WHERE kind = ? AND value = ?`,
		string(kind), value).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("read tally %s/%d: %w", kind, value, err)
	}

	count++
	now := time.Now().Unix()
	const upsert = `INSERT INTO tally_totals (kind, value, tally_key, count, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(kind, value) DO UPDATE SET count = excluded.count, updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, string(kind), value, domain.TallyKey(value), count, now); err != nil {
		return 0, domain.WrapEngineError(domain.ErrStoreWrite.Code, fmt.Sprintf("write tally %s/%d", kind, value), err)
	}

	if err := tx.Commit(); err != nil {
		return 0, domain.WrapEngineError(domain.ErrStoreWrite.Code, "commit tally", err)
	}
	return count, nil
}

// ListTotals returns all counters ordered by kind then value.
func (r *TallyRepo) ListTotals(ctx context.Context, db *sql.DB) ([]domain.TallyTotal, error) {
	const q = `SELECT kind, value, count FROM tally_totals ORDER BY kind, value`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, domain.WrapEngineError(domain.ErrStoreQuery.Code, "list totals", err)
	}
	defer rows.Close()

	var totals []domain.TallyTotal
	for rows.Next() {
		var t domain.TallyTotal
		var kind string
		if err := rows.Scan(&kind, &t.Value, &t.Count); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		t.Kind = domain.TokenKind(kind)
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
