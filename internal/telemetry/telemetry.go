// Package telemetry delivers sorting events to the journal and dashboard.
// Delivery is best-effort: failures are logged and never stop the cycle.
package telemetry

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cashm/note-sorter/internal/domain"
	"github.com/cashm/note-sorter/internal/store"
)

// Sink accepts append-only telemetry events.
type Sink interface {
	Emit(ctx context.Context, ev domain.TelemetryEvent) error
}

// NewEvent builds a journal event. confidence is the classifier's [0,1]
// score; the stored value is on the 0-100 scale the dashboard expects.
func NewEvent(value string, confidence float64, status domain.Status) domain.TelemetryEvent {
	return domain.TelemetryEvent{
		ID:         uuid.NewString(),
		Value:      value,
		Confidence: confidence * 100,
		Status:     status,
		Timestamp:  time.Now().Format(time.RFC3339Nano),
	}
}

// Journal persists events to the local SQLite sorting log.
type Journal struct {
	DB   *sql.DB
	Repo *store.JournalRepo
}

// NewJournal creates a journal sink over an open database.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{DB: db, Repo: &store.JournalRepo{}}
}

// Emit appends the event to the sorting log.
func (j *Journal) Emit(ctx context.Context, ev domain.TelemetryEvent) error {
	return j.Repo.Append(ctx, j.DB, ev)
}

// Fanout delivers each event to every sink, logging failures instead of
// propagating them.
type Fanout struct {
	Sinks  []Sink
	Logger *log.Logger
}

// NewFanout builds a fanout over the given sinks.
func NewFanout(logger *log.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = log.Default()
	}
	return &Fanout{Sinks: sinks, Logger: logger}
}

// Emit never returns a non-nil error; per-sink failures are logged.
func (f *Fanout) Emit(ctx context.Context, ev domain.TelemetryEvent) error {
	for _, s := range f.Sinks {
		if err := s.Emit(ctx, ev); err != nil {
			f.Logger.Printf("telemetry: emit %s/%s: %v", ev.Value, ev.Status, err)
		}
	}
	return nil
}
