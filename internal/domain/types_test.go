package domain

import (
	"testing"
	"time"
)

func TestLabelSets(t *testing.T) {
	for _, v := range NoteDenominations {
		if !NoteLabel(v).IsValid() {
			t.Errorf("note label %d not valid", v)
		}
		if NoteLabel(v).IsSentinel() {
			t.Errorf("note label %d reported as sentinel", v)
		}
	}
	for _, l := range []Label{LabelNoNote, LabelInvalidObject} {
		if !l.IsValid() || !l.IsSentinel() {
			t.Errorf("sentinel %s not recognized", l)
		}
	}
	for _, l := range []Label{"2000", "7", "", "abc"} {
		if l.IsValid() {
			t.Errorf("label %q accepted outside the closed set", l)
		}
	}
}

func TestCommandToken(t *testing.T) {
	cases := []struct {
		cmd  Command
		want string
	}{
		{SortNote("100"), "100"},
		{Command{Kind: CmdNoNote}, "NO_NOTE"},
		{Command{Kind: CmdViewCompartment}, "VIEW_COMPARTMENT"},
		{Command{Kind: CmdHome}, "HOME"},
	}
	for _, tc := range cases {
		if got := tc.cmd.Token(); got != tc.want {
			t.Errorf("Token(%s) = %q, want %q", tc.cmd.Kind, got, tc.want)
		}
	}
}

func TestCommandTimeout(t *testing.T) {
	if got := SortNote("100").Timeout(); got != 120*time.Second {
		t.Errorf("sort timeout = %v, want 2m", got)
	}
	if got := (Command{Kind: CmdNoNote}).Timeout(); got != 120*time.Second {
		t.Errorf("park timeout = %v, want 2m", got)
	}
	if got := (Command{Kind: CmdViewCompartment}).Timeout(); got != 60*time.Second {
		t.Errorf("view timeout = %v, want 1m", got)
	}
	if got := (Command{Kind: CmdHome}).Timeout(); got != 60*time.Second {
		t.Errorf("home timeout = %v, want 1m", got)
	}
}

func TestPhaseIsTerminal(t *testing.T) {
	for _, p := range []Phase{PhaseIdle, PhaseRunning, PhasePaused} {
		if p.IsTerminal() {
			t.Errorf("phase %s reported terminal", p)
		}
	}
	if !PhaseTerminated.IsTerminal() {
		t.Error("terminated phase not reported terminal")
	}
}

func TestTallyKey(t *testing.T) {
	if got := TallyKey(100); got != "Rs_100" {
		t.Errorf("TallyKey(100) = %q, want Rs_100", got)
	}
	if got := TallyKey(5); got != "Rs_5" {
		t.Errorf("TallyKey(5) = %q, want Rs_5", got)
	}
}

func TestEngineErrorMatching(t *testing.T) {
	wrapped := WrapEngineError(ErrSendTimeout.Code, "send 100", ErrSendTimeout)
	if !wrapped.Is(ErrSendTimeout) {
		t.Error("wrapped error does not match its sentinel by code")
	}
	if wrapped.Is(ErrActuatorFault) {
		t.Error("wrapped error matches an unrelated sentinel")
	}
}
