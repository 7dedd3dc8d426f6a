package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cashm/note-sorter/internal/domain"
)

// JournalRepo handles persistence for the append-only sorting log.
type JournalRepo struct{}

// Append inserts one telemetry event. Events are never updated or deleted.
func (r *JournalRepo) Append(ctx context.Context, db *sql.DB, ev domain.TelemetryEvent) error {
	const q = `INSERT INTO sorting_log (id, value, confidence, status, created_at)
VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		ev.ID,
		ev.Value,
		ev.Confidence,
		string(ev.Status),
		ev.Timestamp,
	)
	if err != nil {
		return domain.WrapEngineError(domain.ErrStoreWrite.Code, "append journal event", err)
	}
	return nil
}

// ListRecent returns up to limit events, most recent first.
func (r *JournalRepo) ListRecent(ctx context.Context, db *sql.DB, limit int) ([]domain.TelemetryEvent, error) {
	const q = `SELECT id, value, confidence, status, created_at
FROM sorting_log
ORDER BY created_at DESC
LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, domain.WrapEngineError(domain.ErrStoreQuery.Code, "list journal", err)
	}
	defer rows.Close()

	var events []domain.TelemetryEvent
	for rows.Next() {
		var e domain.TelemetryEvent
		var status string
		if err := rows.Scan(&e.ID, &e.Value, &e.Confidence, &status, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		e.Status = domain.Status(status)
		events = append(events, e)
	}
	return events, rows.Err()
}
