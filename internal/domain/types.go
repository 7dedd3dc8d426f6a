// Package domain defines the core types for the note sorting engine.
package domain

import (
	"strconv"
	"time"
)

// Label is a classifier output: a note denomination or a sentinel.
type Label string

// Sentinel labels. They are not denominations but drive stop behavior.
const (
	LabelNoNote        Label = "no_note"
	LabelInvalidObject Label = "invalid_object"
)

// NoteDenominations is the closed set of note face values the system sorts.
var NoteDenominations = []int{20, 50, 100, 500, 1000, 5000}

// CoinDenominations is the closed set of coin face values the tally accepts.
var CoinDenominations = []int{1, 2, 5, 10}

// IsSentinel reports whether the label is one of the two stop sentinels.
func (l Label) IsSentinel() bool {
	return l == LabelNoNote || l == LabelInvalidObject
}

// IsDenomination reports whether the label names a recognized note value.
func (l Label) IsDenomination() bool {
	v, err := strconv.Atoi(string(l))
	if err != nil {
		return false
	}
	return ValidNote(v)
}

// IsValid reports whether the label belongs to the closed classifier set.
func (l Label) IsValid() bool {
	return l.IsSentinel() || l.IsDenomination()
}

// NoteLabel returns the label for a note face value.
func NoteLabel(value int) Label {
	return Label(strconv.Itoa(value))
}

// ValidCoin reports whether value is a recognized coin denomination.
func ValidCoin(value int) bool {
	for _, d := range CoinDenominations {
		if value == d {
			return true
		}
	}
	return false
}

// ValidNote reports whether value is a recognized note denomination.
func ValidNote(value int) bool {
	for _, d := range NoteDenominations {
		if value == d {
			return true
		}
	}
	return false
}

// TokenKind tags a parsed detection token.
type TokenKind string

const (
	TokenCoin         TokenKind = "coin"
	TokenNote         TokenKind = "note"
	TokenUnrecognized TokenKind = "unrecognized"
)

// DetectionToken is one classified line from the detection channel.
// Value is meaningful only for TokenCoin and TokenNote; Raw always holds
// the original text so unrecognized input can be surfaced.
type DetectionToken struct {
	Kind  TokenKind
	Value int
	Raw   string
}

// ClassificationResult is the classifier's verdict for one captured frame.
// Immutable after creation; one is produced per cycle iteration.
type ClassificationResult struct {
	Label      Label
	Confidence float64 // in [0,1]
	ImageRef   string
}

// ActionKind is the decision derived from a ClassificationResult.
type ActionKind string

const (
	ActionProceed ActionKind = "proceed"
	ActionPause   ActionKind = "pause"
	ActionReject  ActionKind = "reject"
	ActionStop    ActionKind = "stop"
)

// StopReason qualifies an ActionStop.
type StopReason string

const (
	StopCycleComplete StopReason = "cycle_complete"
	StopSafety        StopReason = "safety"
)

// Action is the decision policy's output. Label is set for Proceed, Pause
// and Reject; Reason is set for Stop.
type Action struct {
	Kind   ActionKind
	Label  Label
	Reason StopReason
}

// CommandKind identifies an actuator command.
type CommandKind string

const (
	CmdSortNote        CommandKind = "sort_note"
	CmdNoNote          CommandKind = "no_note"
	CmdViewCompartment CommandKind = "view_compartment"
	CmdHome            CommandKind = "home"
)

// Command is one line-terminated instruction to the sorting actuator.
type Command struct {
	Kind  CommandKind
	Label Label // set only for CmdSortNote
}

// SortNote builds a sorting command for a note denomination label.
func SortNote(label Label) Command {
	return Command{Kind: CmdSortNote, Label: label}
}

// Token returns the literal wire form of the command, without terminator.
func (c Command) Token() string {
	switch c.Kind {
	case CmdSortNote:
		return string(c.Label)
	case CmdNoNote:
		return "NO_NOTE"
	case CmdViewCompartment:
		return "VIEW_COMPARTMENT"
	case CmdHome:
		return "HOME"
	}
	return ""
}

// Timeout returns how long to await a terminal response for the command.
// Sorting moves take up to two minutes; view/home moves one.
func (c Command) Timeout() time.Duration {
	switch c.Kind {
	case CmdSortNote, CmdNoNote:
		return 120 * time.Second
	default:
		return 60 * time.Second
	}
}

// Response classifies the actuator's reply to a command.
type Response string

const (
	ResponseDone         Response = "done"
	ResponseError        Response = "error"
	ResponseTimeout      Response = "timeout"
	ResponseUnrecognized Response = "unrecognized"
)

// Phase represents the cycle controller's state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRunning    Phase = "running"
	PhasePaused     Phase = "paused"
	PhaseTerminated Phase = "terminated"
)

// IsTerminal reports whether the phase ends a cycle.
func (p Phase) IsTerminal() bool {
	return p == PhaseTerminated
}

// Status is the telemetry status enum pushed to the sorting journal.
type Status string

const (
	StatusSortingStarted           Status = "sorting_started"
	StatusSortingCompleted         Status = "sorting_completed"
	StatusSortingFailed            Status = "sorting_failed"
	StatusSortingComplete          Status = "sorting_complete"
	StatusInvalidObjectDetected    Status = "invalid_object_detected"
	StatusLowConfidenceInvalid     Status = "low_confidence_invalid"
	StatusMediumConfidenceAdjusted Status = "medium_confidence_adjusted"
)

// TelemetryEvent is one append-only record for the sorting journal.
// Confidence is on the 0-100 scale the dashboard expects.
type TelemetryEvent struct {
	ID         string  `json:"id"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Status     Status  `json:"status"`
	Timestamp  string  `json:"timestamp"` // ISO-8601
}

// Intent is a discrete operator request from buttons, keyboard, or the API.
type Intent string

const (
	IntentStart Intent = "start"
	IntentView  Intent = "view"
	IntentHome  Intent = "home"
)

// TallyTotal is one persisted per-denomination counter row.
type TallyTotal struct {
	Kind  TokenKind `json:"kind"`
	Value int       `json:"value"`
	Count int64     `json:"count"`
}

// TallyKey returns the stable per-denomination storage key, in the
// dashboard's path-safe form (Rs.100 becomes Rs_100).
func TallyKey(value int) string {
	return "Rs_" + strconv.Itoa(value)
}
