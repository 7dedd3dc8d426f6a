package cycle

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/cashm/note-sorter/internal/domain"
)

// scriptCamera returns scripted refs/errors, then keeps returning the last
// entry.
type scriptCamera struct {
	mu    sync.Mutex
	refs  []string
	errs  []error
	calls int
}

func (c *scriptCamera) Capture(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	c.calls++
	if i >= len(c.refs) {
		i = len(c.refs) - 1
	}
	return c.refs[i], c.errs[i]
}

// scriptClassifier returns scripted results in order.
type scriptClassifier struct {
	mu      sync.Mutex
	results []domain.ClassificationResult
	calls   int
}

func (c *scriptClassifier) Classify(ctx context.Context, ref string) (domain.ClassificationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	c.calls++
	if i >= len(c.results) {
		i = len(c.results) - 1
	}
	res := c.results[i]
	res.ImageRef = ref
	return res, nil
}

// fakeActuator records sent commands and answers per a reply function.
type fakeActuator struct {
	mu    sync.Mutex
	sent  []domain.Command
	reply func(cmd domain.Command) (domain.Response, error)
}

func (a *fakeActuator) Send(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	a.mu.Lock()
	a.sent = append(a.sent, cmd)
	a.mu.Unlock()
	if a.reply == nil {
		return domain.ResponseDone, nil
	}
	return a.reply(cmd)
}

func (a *fakeActuator) commands() []domain.Command {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Command(nil), a.sent...)
}

type fakeConfirmer struct {
	ok  bool
	err error
}

func (c *fakeConfirmer) Confirm(ctx context.Context) (bool, error) {
	return c.ok, c.err
}

// memSink records emitted events.
type memSink struct {
	mu     sync.Mutex
	events []domain.TelemetryEvent
}

func (s *memSink) Emit(ctx context.Context, ev domain.TelemetryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *memSink) statuses() []domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Status, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Status
	}
	return out
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestController(cam *scriptCamera, cls *scriptClassifier, act *fakeActuator, conf *fakeConfirmer, sink *memSink) *Controller {
	ctrl := NewController(cam, cls, act, conf, sink, quietLogger())
	ctrl.RetryDelay = time.Millisecond
	return ctrl
}

func result(label domain.Label, conf float64) domain.ClassificationResult {
	return domain.ClassificationResult{Label: label, Confidence: conf}
}

func TestRun_NoNoteCompletesAndParks(t *testing.T) {
	cam := &scriptCamera{refs: []string{"f1.jpg"}, errs: []error{nil}}
	cls := &scriptClassifier{results: []domain.ClassificationResult{result(domain.LabelNoNote, 0.99)}}
	act := &fakeActuator{}
	sink := &memSink{}
	ctrl := newTestController(cam, cls, act, &fakeConfirmer{}, sink)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := sink.statuses()
	if len(got) != 1 || got[0] != domain.StatusSortingComplete {
		t.Errorf("statuses = %v, want [sorting_complete]", got)
	}

	cmds := act.commands()
	if len(cmds) != 1 || cmds[0].Kind != domain.CmdNoNote {
		t.Errorf("commands = %v, want one NO_NOTE", cmds)
	}

	if ctrl.Busy() {
		t.Error("busy flag still set after cycle end")
	}
	if ctrl.Phase() != domain.PhaseTerminated {
		t.Errorf("phase = %s, want terminated", ctrl.Phase())
	}
}

func TestRun_SortsThenCompletes(t *testing.T) {
	cam := &scriptCamera{refs: []string{"f1.jpg", "f2.jpg"}, errs: []error{nil, nil}}
	cls := &scriptClassifier{results: []domain.ClassificationResult{
		result("100", 0.95),
		result(domain.LabelNoNote, 0.90),
	}}
	act := &fakeActuator{}
	sink := &memSink{}
	ctrl := newTestController(cam, cls, act, &fakeConfirmer{}, sink)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []domain.Status{
		domain.StatusSortingStarted,
		domain.StatusSortingCompleted,
		domain.StatusSortingComplete,
	}
	got := sink.statuses()
	if len(got) != len(want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("status[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	cmds := act.commands()
	if len(cmds) != 2 {
		t.Fatalf("commands = %v, want sort + park", cmds)
	}
	if cmds[0].Kind != domain.CmdSortNote || cmds[0].Label != "100" {
		t.Errorf("first command = %+v, want sort 100", cmds[0])
	}
	if ctrl.CycleCount() != 2 {
		t.Errorf("cycle count = %d, want 2", ctrl.CycleCount())
	}
}

func TestRun_InvalidObjectStopsForSafety(t *testing.T) {
	cam := &scriptCamera{refs: []string{"f1.jpg"}, errs: []error{nil}}
	cls := &scriptClassifier{results: []domain.ClassificationResult{result(domain.LabelInvalidObject, 0.88)}}
	act := &fakeActuator{}
	sink := &memSink{}
	ctrl := newTestController(cam, cls, act, &fakeConfirmer{}, sink)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := sink.statuses()
	if len(got) != 1 || got[0] != domain.StatusInvalidObjectDetected {
		t.Errorf("statuses = %v, want [invalid_object_detected]", got)
	}
	// Safety stop sends nothing to the actuator.
	if cmds := act.commands(); len(cmds) != 0 {
		t.Errorf("commands = %v, want none", cmds)
	}
}

func TestRun_LowConfidenceRejects(t *testing.T) {
	cam := &scriptCamera{refs: []string{"f1.jpg"}, errs: []error{nil}}
	cls := &scriptClassifier{results: []domain.ClassificationResult{result("500", 0.40)}}
	act := &fakeActuator{}
	sink := &memSink{}
	ctrl := newTestController(cam, cls, act, &fakeConfirmer{}, sink)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := sink.statuses()
	if len(got) != 1 || got[0] != domain.StatusLowConfidenceInvalid {
		t.Errorf("statuses = %v, want [low_confidence_invalid]", got)
	}
	if cmds := act.commands(); len(cmds) != 0 {
		t.Errorf("commands = %v, want none", cmds)
	}
}

func TestRun_PauseConfirmedContinues(t *testing.T) {
	cam := &scriptCamera{refs: []string{"f1.jpg", "f2.jpg"}, errs: []error{nil, nil}}
	cls := &scriptClassifier{results: []domain.ClassificationResult{
		result("50", 0.65),
		result(domain.LabelNoNote, 0.95),
	}}
	act := &fakeActuator{}
	sink := &memSink{}
	ctrl := newTestController(cam, cls, act, &fakeConfirmer{ok: true}, sink)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []domain.Status{
		domain.StatusMediumConfidenceAdjusted,
		domain.StatusSortingComplete,
	}
	got := sink.statuses()
	if len(got) != len(want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("status[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRun_PauseDeclinedTerminates(t *testing.T) {
	cam := &scriptCamera{refs: []string{"f1.jpg"}, errs: []error{nil}}
	cls := &scriptClassifier{results: []domain.ClassificationResult{result("50", 0.65)}}
	act := &fakeActuator{}
	sink := &memSink{}
	ctrl := newTestController(cam, cls, act, &fakeConfirmer{ok: false}, sink)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Declining emits nothing beyond the pause notice in the log.
	if got := sink.statuses(); len(got) != 0 {
		t.Errorf("statuses = %v, want none", got)
	}
	if ctrl.Busy() {
		t.Error("busy flag still set after declined pause")
	}
}

func TestRun_ActuatorFailureTerminatesCycle(t *testing.T) {
	cam := &scriptCamera{refs: []string{"f1.jpg"}, errs: []error{nil}}
	cls := &scriptClassifier{results: []domain.ClassificationResult{result("1000", 0.95)}}
	act := &fakeActuator{reply: func(cmd domain.Command) (domain.Response, error) {
		return domain.ResponseTimeout, domain.ErrSendTimeout
	}}
	sink := &memSink{}
	ctrl := newTestController(cam, cls, act, &fakeConfirmer{}, sink)

	err := ctrl.Run(context.Background())
	if !errors.Is(err, domain.ErrSendTimeout) {
		t.Fatalf("err = %v, want ErrSendTimeout", err)
	}

	want := []domain.Status{domain.StatusSortingStarted, domain.StatusSortingFailed}
	got := sink.statuses()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if ctrl.Busy() {
		t.Error("busy flag still set after failed sort")
	}
}

func TestRun_CaptureFailureRetriesIteration(t *testing.T) {
	cam := &scriptCamera{
		refs: []string{"", "", "f3.jpg"},
		errs: []error{errors.New("camera busy"), errors.New("camera busy"), nil},
	}
	cls := &scriptClassifier{results: []domain.ClassificationResult{result(domain.LabelNoNote, 0.99)}}
	act := &fakeActuator{}
	sink := &memSink{}
	ctrl := newTestController(cam, cls, act, &fakeConfirmer{}, sink)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cam.calls != 3 {
		t.Errorf("capture calls = %d, want 3", cam.calls)
	}
	if got := sink.statuses(); len(got) != 1 || got[0] != domain.StatusSortingComplete {
		t.Errorf("statuses = %v, want [sorting_complete]", got)
	}
}

func TestRun_RejectsConcurrentStart(t *testing.T) {
	release := make(chan struct{})
	cam := &blockingCamera{release: release}
	cls := &scriptClassifier{results: []domain.ClassificationResult{result(domain.LabelNoNote, 0.99)}}
	act := &fakeActuator{}
	sink := &memSink{}
	ctrl := newTestController(&scriptCamera{refs: []string{"x"}, errs: []error{nil}}, cls, act, &fakeConfirmer{}, sink)
	ctrl.Camera = cam

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(context.Background()) }()

	// Wait until the first cycle holds the flag.
	deadline := time.After(2 * time.Second)
	for !ctrl.Busy() {
		select {
		case <-deadline:
			t.Fatal("first cycle never became busy")
		case <-time.After(time.Millisecond):
		}
	}

	if err := ctrl.Run(context.Background()); !errors.Is(err, domain.ErrCycleInProgress) {
		t.Fatalf("concurrent Run err = %v, want ErrCycleInProgress", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if ctrl.Busy() {
		t.Error("busy flag still set after first cycle ended")
	}
}

// blockingCamera parks Capture until released, then captures normally.
type blockingCamera struct {
	release <-chan struct{}
}

func (c *blockingCamera) Capture(ctx context.Context) (string, error) {
	<-c.release
	return "frame.jpg", nil
}

func TestView_RefusedWhileSorting(t *testing.T) {
	release := make(chan struct{})
	cam := &blockingCamera{release: release}
	cls := &scriptClassifier{results: []domain.ClassificationResult{result(domain.LabelNoNote, 0.99)}}
	act := &fakeActuator{}
	ctrl := newTestController(&scriptCamera{refs: []string{"x"}, errs: []error{nil}}, cls, act, &fakeConfirmer{}, &memSink{})
	ctrl.Camera = cam

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for !ctrl.Busy() {
		select {
		case <-deadline:
			t.Fatal("cycle never became busy")
		case <-time.After(time.Millisecond):
		}
	}

	if err := ctrl.View(context.Background()); !errors.Is(err, domain.ErrCycleInProgress) {
		t.Fatalf("View err = %v, want ErrCycleInProgress", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Idle again: view goes through.
	if err := ctrl.View(context.Background()); err != nil {
		t.Fatalf("View when idle: %v", err)
	}
	cmds := act.commands()
	last := cmds[len(cmds)-1]
	if last.Kind != domain.CmdViewCompartment {
		t.Errorf("last command = %+v, want view", last)
	}
}

func TestRun_InterruptUnwinds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cam := &scriptCamera{refs: []string{"f1.jpg"}, errs: []error{nil}}
	cls := &scriptClassifier{results: []domain.ClassificationResult{result("100", 0.95)}}
	ctrl := newTestController(cam, cls, &fakeActuator{}, &fakeConfirmer{}, &memSink{})

	err := ctrl.Run(ctx)
	if !errors.Is(err, domain.ErrCycleInterrupted) {
		t.Fatalf("err = %v, want ErrCycleInterrupted", err)
	}
	if ctrl.Busy() {
		t.Error("busy flag still set after interrupt")
	}
}
