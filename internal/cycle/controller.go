// Package cycle drives repeated capture -> classify -> decide -> act
// iterations until a stop condition.
package cycle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cashm/note-sorter/internal/capture"
	"github.com/cashm/note-sorter/internal/domain"
	"github.com/cashm/note-sorter/internal/policy"
	"github.com/cashm/note-sorter/internal/telemetry"
)

// Actuator sends one command and awaits its terminal response.
type Actuator interface {
	Send(ctx context.Context, cmd domain.Command) (domain.Response, error)
}

// Confirmer blocks for a single operator signal during a paused iteration.
// There is no timeout; the wait is operator-paced. A context cancellation
// is equivalent to declining.
type Confirmer interface {
	Confirm(ctx context.Context) (bool, error)
}

// Controller owns the cycle state. One cycle runs at a time; the busy flag
// is the sole mutual-exclusion point consulted by the input dispatcher.
type Controller struct {
	Camera     capture.Camera
	Classifier capture.Classifier
	Actuator   Actuator
	Confirmer  Confirmer
	Sink       telemetry.Sink
	Logger     *log.Logger

	// RetryDelay spaces out iterations after a capture/classify failure.
	RetryDelay time.Duration

	busy       atomic.Bool
	cycleCount atomic.Int64

	mu    sync.Mutex
	phase domain.Phase
}

// NewController wires a controller with defaults.
func NewController(cam capture.Camera, cls capture.Classifier, act Actuator, conf Confirmer, sink telemetry.Sink, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		Camera:     cam,
		Classifier: cls,
		Actuator:   act,
		Confirmer:  conf,
		Sink:       sink,
		Logger:     logger,
		RetryDelay: time.Second,
		phase:      domain.PhaseIdle,
	}
}

// Busy reports whether a sorting cycle is in progress.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Phase returns the controller's current phase.
func (c *Controller) Phase() domain.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// CycleCount returns the number of iterations run over the process lifetime.
func (c *Controller) CycleCount() int64 {
	return c.cycleCount.Load()
}

func (c *Controller) setPhase(p domain.Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

// Run executes the sorting cycle until a stop condition. It rejects a
// concurrent start with ErrCycleInProgress, and guarantees the busy flag is
// cleared on every exit path.
func (c *Controller) Run(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.ErrCycleInProgress
	}
	defer func() {
		c.setPhase(domain.PhaseTerminated)
		c.busy.Store(false)
	}()
	c.setPhase(domain.PhaseRunning)

	for {
		if err := ctx.Err(); err != nil {
			return domain.WrapEngineError(domain.ErrCycleInterrupted.Code, "cycle", err)
		}

		n := c.cycleCount.Add(1)
		c.Logger.Printf("cycle: iteration #%d", n)

		res, err := c.observe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return domain.WrapEngineError(domain.ErrCycleInterrupted.Code, "cycle", ctx.Err())
			}
			// Transient sensor noise must not end the cycle; retry.
			c.Logger.Printf("cycle: detection failed, retrying: %v", err)
			c.sleep(ctx, c.RetryDelay)
			continue
		}
		c.Logger.Printf("cycle: detected %s (%.1f%%)", res.Label, res.Confidence*100)

		action := policy.Decide(res)
		switch action.Kind {
		case domain.ActionStop:
			return c.stop(ctx, res, action.Reason)

		case domain.ActionReject:
			c.Logger.Printf("cycle: low confidence, check note placement and restart")
			c.emit(ctx, res, domain.StatusLowConfidenceInvalid)
			return nil

		case domain.ActionPause:
			c.setPhase(domain.PhasePaused)
			c.Logger.Printf("cycle: medium confidence, adjust note placement and confirm")
			ok, err := c.Confirmer.Confirm(ctx)
			if err != nil || !ok {
				c.Logger.Printf("cycle: confirmation declined, stopping")
				return nil
			}
			c.emit(ctx, res, domain.StatusMediumConfidenceAdjusted)
			c.setPhase(domain.PhaseRunning)

		case domain.ActionProceed:
			c.emit(ctx, res, domain.StatusSortingStarted)
			resp, err := c.Actuator.Send(ctx, domain.SortNote(action.Label))
			if err != nil || resp != domain.ResponseDone {
				c.emit(ctx, res, domain.StatusSortingFailed)
				if err == nil {
					err = domain.ErrSortingFailed
				}
				return fmt.Errorf("sort %s: %w", action.Label, err)
			}
			c.emit(ctx, res, domain.StatusSortingCompleted)
			c.Logger.Printf("cycle: %s note sorted, continuing", action.Label)
		}
	}
}

// stop handles the two sentinel outcomes. For cycle_complete the gantry is
// additionally parked at the visible position; a failed park is logged but
// does not change the terminal status.
func (c *Controller) stop(ctx context.Context, res domain.ClassificationResult, reason domain.StopReason) error {
	if reason == domain.StopSafety {
		c.Logger.Printf("cycle: invalid object detected, stopping for safety")
		c.emit(ctx, res, domain.StatusInvalidObjectDetected)
		return nil
	}

	c.Logger.Printf("cycle: no more notes, sorting complete")
	c.emit(ctx, res, domain.StatusSortingComplete)
	if _, err := c.Actuator.Send(ctx, domain.Command{Kind: domain.CmdNoNote}); err != nil {
		c.Logger.Printf("cycle: park move failed: %v", err)
	}
	return nil
}

// View moves the gantry to the compartment viewing position. Refused while
// a cycle is in progress.
func (c *Controller) View(ctx context.Context) error {
	if c.Busy() {
		return domain.ErrCycleInProgress
	}
	_, err := c.Actuator.Send(ctx, domain.Command{Kind: domain.CmdViewCompartment})
	return err
}

// Home returns the gantry to its home position.
func (c *Controller) Home(ctx context.Context) error {
	_, err := c.Actuator.Send(ctx, domain.Command{Kind: domain.CmdHome})
	return err
}

// observe captures a frame and classifies it.
func (c *Controller) observe(ctx context.Context) (domain.ClassificationResult, error) {
	ref, err := c.Camera.Capture(ctx)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("capture: %w", err)
	}
	res, err := c.Classifier.Classify(ctx, ref)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("classify: %w", err)
	}
	return res, nil
}

func (c *Controller) emit(ctx context.Context, res domain.ClassificationResult, status domain.Status) {
	ev := telemetry.NewEvent(string(res.Label), res.Confidence, status)
	if err := c.Sink.Emit(ctx, ev); err != nil {
		c.Logger.Printf("cycle: telemetry %s: %v", status, err)
	}
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
