package input

import (
	"bufio"
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/cashm/note-sorter/internal/domain"
)

// LineReader translates operator keyboard lines into intents: an empty line
// starts a cycle, "v" views the compartments, "h" homes the gantry.
//
// It also serves as the pause Confirmer: while a confirmation wait is
// active, the next line is delivered to the waiter instead of the queue,
// matching the original operator flow where any keypress resumes sorting.
type LineReader struct {
	Queue  *Queue
	Logger *log.Logger

	mu     sync.Mutex
	waiter chan bool
}

// NewLineReader builds a reader feeding the given queue.
func NewLineReader(q *Queue, logger *log.Logger) *LineReader {
	if logger == nil {
		logger = log.Default()
	}
	return &LineReader{Queue: q, Logger: logger}
}

// Run consumes lines from src until EOF or context cancellation. Intended
// to run on its own goroutine with src = os.Stdin.
func (r *LineReader) Run(ctx context.Context, src io.Reader) {
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.ToLower(strings.TrimSpace(sc.Text()))

		if w := r.takeWaiter(); w != nil {
			w <- true
			continue
		}

		switch line {
		case "":
			r.Queue.Offer(domain.IntentStart)
		case "v":
			r.Queue.Offer(domain.IntentView)
		case "h":
			r.Queue.Offer(domain.IntentHome)
		default:
			r.Logger.Printf("input: invalid command %q (use Enter, 'v', or 'h')", line)
		}
	}
}

// Confirm blocks until the operator enters a line, or the context is
// cancelled (which counts as declining).
func (r *LineReader) Confirm(ctx context.Context) (bool, error) {
	w := make(chan bool, 1)
	r.mu.Lock()
	r.waiter = w
	r.mu.Unlock()

	select {
	case ok := <-w:
		return ok, nil
	case <-ctx.Done():
		r.mu.Lock()
		if r.waiter == w {
			r.waiter = nil
		}
		r.mu.Unlock()
		return false, ctx.Err()
	}
}

func (r *LineReader) takeWaiter() chan bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.waiter
	r.waiter = nil
	return w
}
