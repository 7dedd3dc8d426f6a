package tally

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cashm/note-sorter/internal/domain"
	"github.com/cashm/note-sorter/internal/link"
	"github.com/cashm/note-sorter/internal/store"
)

// Monitor listens on the coin detection channel and increments counters for
// every valid token. Nothing is ever written back on the channel.
type Monitor struct {
	PortName string
	Dialer   link.Dialer
	DB       *sql.DB
	Repo     *store.TallyRepo
	Logger   *log.Logger

	// Poll spaces out read attempts on an idle port.
	Poll time.Duration
}

// NewMonitor builds a monitor over the given endpoint.
func NewMonitor(portName string, dialer link.Dialer, db *sql.DB, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.Default()
	}
	return &Monitor{
		PortName: portName,
		Dialer:   dialer,
		DB:       db,
		Repo:     &store.TallyRepo{},
		Logger:   logger,
		Poll:     50 * time.Millisecond,
	}
}

// Run reads lines until the context is cancelled. On a transport failure it
// reconnects once; a second failure is surfaced to the caller.
func (m *Monitor) Run(ctx context.Context) error {
	port, err := m.Dialer(m.PortName)
	if err != nil {
		return domain.WrapEngineError(domain.ErrLinkUnavailable.Code, "open coin channel", err)
	}
	defer func() { port.Close() }()
	m.Logger.Printf("tally: listening on %s", m.PortName)

	reconnected := false
	buf := make([]byte, 256)
	var pending []byte

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := port.Read(buf)
		if err != nil && err != io.EOF {
			if reconnected {
				return domain.WrapEngineError(domain.ErrLinkUnavailable.Code, "coin channel", err)
			}
			reconnected = true
			m.Logger.Printf("tally: transport failure, reconnecting once: %v", err)
			port.Close()
			port, err = m.Dialer(m.PortName)
			if err != nil {
				return domain.WrapEngineError(domain.ErrLinkUnavailable.Code, "reopen coin channel", err)
			}
			pending = pending[:0]
			continue
		}
		pending = append(pending, buf[:n]...)

		for {
			idx := bytes.IndexByte(pending, '\n')
			if idx < 0 {
				break
			}
			line := string(pending[:idx])
			pending = pending[idx+1:]
			m.handle(ctx, line)
		}

		if n == 0 {
			time.Sleep(m.Poll)
		}
	}
}

// handle processes one inbound line. Unrecognized text is surfaced, never
// silently dropped; sub-2-character fragments are transport noise.
func (m *Monitor) handle(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	tok, err := ParseToken(line)
	if err != nil {
		if errors.Is(err, domain.ErrLineNoise) {
			m.Logger.Printf("tally: debug: stray %q", line)
		} else {
			m.Logger.Printf("tally: channel: %s", tok.Raw)
		}
		return
	}

	count, err := m.Repo.Increment(ctx, m.DB, tok.Kind, tok.Value)
	if err != nil {
		m.Logger.Printf("tally: increment %s/%d: %v", tok.Kind, tok.Value, err)
		return
	}
	m.Logger.Printf("tally: %s %s = %d", tok.Kind, domain.TallyKey(tok.Value), count)
}
