package input

import (
	"context"
	"log"
	"time"

	"github.com/cashm/note-sorter/internal/cycle"
	"github.com/cashm/note-sorter/internal/domain"
)

// Dispatcher drains the intent queue on a single cooperative loop: at most
// one controller operation runs at a time, and a start intent arriving
// while a cycle is in progress is ignored, never queued behind it.
type Dispatcher struct {
	Queue      *Queue
	Controller *cycle.Controller
	Logger     *log.Logger

	// PollInterval bounds each queue wait so the loop stays responsive.
	PollInterval time.Duration
}

// NewDispatcher wires a dispatcher with the default 100ms poll.
func NewDispatcher(q *Queue, ctrl *cycle.Controller, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		Queue:        q,
		Controller:   ctrl,
		Logger:       logger,
		PollInterval: 100 * time.Millisecond,
	}
}

// Run loops until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.Logger.Printf("dispatcher: ready (Enter=start, v=view, h=home)")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		intent, ok := d.Queue.Poll(ctx, d.PollInterval)
		if !ok {
			continue
		}

		switch intent {
		case domain.IntentStart:
			if d.Controller.Busy() {
				d.Logger.Printf("dispatcher: ignoring start, sorting in progress")
				continue
			}
			if err := d.Controller.Run(ctx); err != nil {
				d.Logger.Printf("dispatcher: cycle ended with error: %v", err)
			}
		case domain.IntentView:
			if err := d.Controller.View(ctx); err != nil {
				d.Logger.Printf("dispatcher: view: %v", err)
			}
		case domain.IntentHome:
			if err := d.Controller.Home(ctx); err != nil {
				d.Logger.Printf("dispatcher: home: %v", err)
			}
		}
	}
}
