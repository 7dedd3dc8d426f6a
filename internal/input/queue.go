// Package input collects operator intents and routes them to the cycle
// controller, one at a time, on a single cooperative loop.
package input

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cashm/note-sorter/internal/domain"
)

// Debouncer suppresses rapid repeats of the same intent. Each intent kind
// keeps its own last-accepted timestamp.
type Debouncer struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[domain.Intent]time.Time
}

// NewDebouncer creates a debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		now:    time.Now,
		last:   make(map[domain.Intent]time.Time),
	}
}

// Allow reports whether the intent is outside its debounce window, and if
// so records it as accepted.
func (d *Debouncer) Allow(in domain.Intent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if prev, ok := d.last[in]; ok && now.Sub(prev) <= d.window {
		return false
	}
	d.last[in] = now
	return true
}

// Queue is the shared, debounced intent queue. All sources (keyboard,
// buttons, the HTTP API) feed it; the dispatcher drains it.
type Queue struct {
	ch     chan domain.Intent
	deb    *Debouncer
	logger *log.Logger
}

// NewQueue creates a queue with the given debounce window.
func NewQueue(window time.Duration, logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.Default()
	}
	return &Queue{
		ch:     make(chan domain.Intent, 8),
		deb:    NewDebouncer(window),
		logger: logger,
	}
}

// Offer enqueues an intent. Debounced repeats and overflow are dropped;
// the return value reports whether the intent was accepted.
func (q *Queue) Offer(in domain.Intent) bool {
	if !q.deb.Allow(in) {
		return false
	}
	select {
	case q.ch <- in:
		return true
	default:
		q.logger.Printf("input: queue full, dropping %s", in)
		return false
	}
}

// Poll waits up to timeout for one intent. The short timeout keeps the
// dispatcher responsive to both intents and their absence.
func (q *Queue) Poll(ctx context.Context, timeout time.Duration) (domain.Intent, bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case in := <-q.ch:
		return in, true
	case <-t.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}
