// Package link manages the serial connection to the sorting actuator.
//
// Commands are UTF-8 text lines; the actuator replies with free-form lines
// that are scanned for fixed terminal tokens. Every inbound line is logged
// before classification so the controller firmware stays observable.
package link

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cashm/note-sorter/internal/domain"
)

// pollQuantum is how long Send sleeps between read attempts when the port
// has no data. Small enough to stay responsive, large enough not to spin.
const pollQuantum = 50 * time.Millisecond

// Port is a line-oriented transport endpoint. Reads are expected to return
// promptly with whatever bytes are buffered; a read timeout surfaces as
// (0, nil) or (0, io.EOF), both of which mean "no data yet".
type Port interface {
	io.ReadWriteCloser
}

// Dialer opens a named transport endpoint.
type Dialer func(name string) (Port, error)

// Link is a live connection to the actuator controller.
type Link struct {
	port   Port
	logger *log.Logger

	// MaxWait overrides the per-command deadline when set.
	MaxWait time.Duration
}

// NewLink wraps an open port.
func NewLink(port Port, logger *log.Logger) *Link {
	if logger == nil {
		logger = log.Default()
	}
	return &Link{port: port, logger: logger}
}

// Close releases the underlying port.
func (l *Link) Close() error {
	if l == nil || l.port == nil {
		return nil
	}
	return l.port.Close()
}

// Send writes the command's line-terminated token and polls for inbound
// lines until a terminal response is classified or the command's deadline
// elapses. Unrecognized lines are logged and polling continues.
//
// Returns ResponseDone with nil error on success, ResponseError with
// ErrActuatorFault when the controller reports ERROR, ResponseTimeout with
// ErrSendTimeout on deadline expiry, and a wrapped ErrLinkUnavailable on
// transport I/O failure.
func (l *Link) Send(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	if l == nil || l.port == nil {
		return domain.ResponseUnrecognized, domain.ErrNoLink
	}

	if _, err := l.port.Write([]byte(cmd.Token() + "\n")); err != nil {
		return domain.ResponseUnrecognized, domain.WrapEngineError(domain.ErrLinkUnavailable.Code, "write command", err)
	}
	l.logger.Printf("link: sent %q", cmd.Token())

	wait := cmd.Timeout()
	if l.MaxWait > 0 {
		wait = l.MaxWait
	}
	deadline := time.Now().Add(wait)

	buf := make([]byte, 256)
	var pending []byte
	for {
		select {
		case <-ctx.Done():
			return domain.ResponseUnrecognized, fmt.Errorf("send %s interrupted: %w", cmd.Token(), ctx.Err())
		default:
		}

		n, err := l.port.Read(buf)
		if err != nil && err != io.EOF {
			return domain.ResponseUnrecognized, domain.WrapEngineError(domain.ErrLinkUnavailable.Code, "read response", err)
		}
		pending = append(pending, buf[:n]...)

		for {
			idx := bytes.IndexByte(pending, '\n')
			if idx < 0 {
				break
			}
			line := strings.TrimSpace(string(pending[:idx]))
			pending = pending[idx+1:]
			if line == "" {
				continue
			}
			l.logger.Printf("actuator: %s", line)

			switch Classify(cmd.Kind, line) {
			case domain.ResponseDone:
				return domain.ResponseDone, nil
			case domain.ResponseError:
				return domain.ResponseError, domain.ErrActuatorFault
			}
			// Unrecognized: keep polling until the deadline.
		}

		if time.Now().After(deadline) {
			return domain.ResponseTimeout, domain.ErrSendTimeout
		}
		if n == 0 {
			time.Sleep(pollQuantum)
		}
	}
}

// Classify maps one inbound line to a response for the given command kind.
// View and home moves complete only on their specific tokens; sorting moves
// complete on DONE or on the firmware's ready prompt.
func Classify(kind domain.CommandKind, line string) domain.Response {
	done := false
	switch kind {
	case domain.CmdViewCompartment:
		done = strings.Contains(line, "COMPARTMENT_VIEW_DONE")
	case domain.CmdHome:
		done = strings.Contains(line, "HOME_DONE")
	default:
		done = strings.Contains(line, "DONE") || strings.Contains(line, "Ready. Enter note value:")
	}
	if done {
		return domain.ResponseDone
	}
	if strings.Contains(line, "ERROR") {
		return domain.ResponseError
	}
	return domain.ResponseUnrecognized
}
