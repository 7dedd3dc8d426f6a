package domain

import "fmt"

// EngineError is the unified error type for the engine.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// Is lets wrapped errors match the sentinel by code.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Code == e.Code
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// ---- Actuator link errors (-41010 to -41039) ----

var (
	ErrLinkUnavailable = &EngineError{Code: -41010, Message: "no actuator transport could be opened"}
	ErrNoLink          = &EngineError{Code: -41011, Message: "no live actuator link"}
	ErrSendTimeout     = &EngineError{Code: -41012, Message: "deadline elapsed with no terminal response"}
	ErrActuatorFault   = &EngineError{Code: -41013, Message: "actuator reported an error"}
	ErrLinkClosed      = &EngineError{Code: -41014, Message: "actuator link is closed"}
)

// ---- Cycle controller errors (-41040 to -41069) ----

var (
	ErrCycleInProgress  = &EngineError{Code: -41040, Message: "a sorting cycle is already in progress"}
	ErrCaptureFailed    = &EngineError{Code: -41041, Message: "image capture failed"}
	ErrClassifyFailed   = &EngineError{Code: -41042, Message: "classification failed"}
	ErrCycleInterrupted = &EngineError{Code: -41043, Message: "cycle interrupted by operator"}
	ErrSortingFailed    = &EngineError{Code: -41044, Message: "actuator failed to complete the sort"}
)

// ---- Detection token errors (-41070 to -41099) ----

var (
	ErrTokenInvalid = &EngineError{Code: -41070, Message: "detection token is not recognized"}
	ErrLineNoise    = &EngineError{Code: -41071, Message: "line too short, treated as transport noise"}
)

// ---- Store / config errors (-41100 to -41129) ----

var (
	ErrStoreInit     = &EngineError{Code: -41100, Message: "failed to initialize store"}
	ErrStoreQuery    = &EngineError{Code: -41101, Message: "store query failed"}
	ErrStoreWrite    = &EngineError{Code: -41102, Message: "store write failed"}
	ErrConfigInvalid = &EngineError{Code: -41103, Message: "invalid configuration"}
)

// ---- Boundary errors (-41130 to -41159) ----

var (
	ErrClassifierUnavailable = &EngineError{Code: -41130, Message: "classifier boundary unavailable"}
	ErrBadClassifierReply    = &EngineError{Code: -41131, Message: "classifier returned an out-of-contract reply"}
)
