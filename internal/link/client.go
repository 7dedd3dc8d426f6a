package link

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cashm/note-sorter/internal/domain"
)

// Client owns the actuator connection for the process. It dials an ordered
// list of endpoints with a single success short-circuit, and re-attempts the
// connection exactly once when a send fails on transport I/O.
type Client struct {
	Ports   []string
	Dialer  Dialer
	Logger  *log.Logger
	MaxWait time.Duration // propagated to the link; zero keeps per-command deadlines

	// Settle pauses after a successful open so the controller board can
	// finish resetting. Zero means no pause.
	Settle time.Duration

	mu       sync.Mutex
	link     *Link
	endpoint string
	closed   bool
}

// NewClient builds a client over the given endpoint list.
func NewClient(ports []string, dialer Dialer, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{Ports: ports, Dialer: dialer, Logger: logger}
}

// Connect tries each endpoint in order until one opens. It does not retry
// beyond the list; on exhaustion the client stays disconnected and sends
// fail fast with ErrNoLink.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.link != nil {
		c.link.Close()
		c.link = nil
	}

	for _, name := range c.Ports {
		port, err := c.Dialer(name)
		if err != nil {
			c.Logger.Printf("link: open %s: %v", name, err)
			continue
		}
		if c.Settle > 0 {
			time.Sleep(c.Settle)
		}
		l := NewLink(port, c.Logger)
		l.MaxWait = c.MaxWait
		c.link = l
		c.endpoint = name
		c.Logger.Printf("link: connected on %s", name)
		return nil
	}
	c.endpoint = ""
	return domain.ErrLinkUnavailable
}

// Connected reports whether a live link exists.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link != nil
}

// Endpoint returns the name of the live endpoint, or "".
func (c *Client) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// Send forwards the command to the live link. On transport failure it
// reconnects once and retries the command; repeated failure is surfaced to
// the caller rather than retried indefinitely.
func (c *Client) Send(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ResponseUnrecognized, domain.ErrLinkClosed
	}
	if c.link == nil {
		return domain.ResponseUnrecognized, domain.ErrNoLink
	}

	resp, err := c.link.Send(ctx, cmd)
	if err == nil || !errors.Is(err, domain.ErrLinkUnavailable) {
		return resp, err
	}

	c.Logger.Printf("link: transport failure, reconnecting once: %v", err)
	if rerr := c.connectLocked(); rerr != nil {
		return domain.ResponseUnrecognized, domain.WrapEngineError(domain.ErrLinkUnavailable.Code, "reconnect", err)
	}
	return c.link.Send(ctx, cmd)
}

// Close releases the live link, if any. Further sends fail with
// ErrLinkClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.link == nil {
		return nil
	}
	err := c.link.Close()
	c.link = nil
	c.endpoint = ""
	return err
}
