package errors

import (
	"fmt"
)

// SIMDError is the interface implemented by all errors raised by the runtime
// object model and its bootstrap.
type SIMDError interface {
	error
	Kind() string // e.g., "Bootstrap", "Config", "Runtime", "Contract"
	// Message returns the specific error message without the kind prefix.
	Message() string
	Unwrap() error // For error wrapping support (errors.Is/As)
}

// --- Concrete Error Types ---

// BootstrapError represents a failure while wiring builtins into a realm.
// A realm whose bootstrap fails is discarded.
type BootstrapError struct {
	Initializer string // Name of the initializer that failed
	Msg         string
	Cause       error
}

func (e *BootstrapError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Bootstrap Error in %s: %s: %v", e.Initializer, e.Msg, e.Cause)
	}
	return fmt.Sprintf("Bootstrap Error in %s: %s", e.Initializer, e.Msg)
}
func (e *BootstrapError) Kind() string    { return "Bootstrap" }
func (e *BootstrapError) Message() string { return e.Msg }
func (e *BootstrapError) Unwrap() error   { return e.Cause }
func (e *BootstrapError) CausedBy(cause error) *BootstrapError {
	e.Cause = cause
	return e
}

// ConfigError represents an unreadable or invalid realm configuration.
type ConfigError struct {
	Path  string // Empty when the configuration did not come from a file
	Msg   string
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("Config Error in %s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("Config Error: %s", e.Msg)
}
func (e *ConfigError) Kind() string    { return "Config" }
func (e *ConfigError) Message() string { return e.Msg }
func (e *ConfigError) Unwrap() error   { return e.Cause }
func (e *ConfigError) CausedBy(cause error) *ConfigError {
	e.Cause = cause
	return e
}

// RuntimeError represents a script-visible error thrown by a native function.
// Name is the JavaScript error class ("TypeError", "RangeError", ...).
type RuntimeError struct {
	Name  string
	Msg   string
	Cause error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}
func (e *RuntimeError) Kind() string    { return "Runtime" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }

// ContractViolation is the panic payload for broken internal preconditions.
// These are engine bugs, never user errors. Only realm bootstrap recovers them,
// reporting a BootstrapError instead.
type ContractViolation struct {
	Op  string // Operation whose precondition failed
	Msg string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation in %s: %s", e.Op, e.Msg)
}
func (e *ContractViolation) Kind() string    { return "Contract" }
func (e *ContractViolation) Message() string { return e.Msg }
func (e *ContractViolation) Unwrap() error   { return nil }

// Assert panics with a ContractViolation when cond is false.
func Assert(cond bool, op, format string, args ...any) {
	if !cond {
		panic(&ContractViolation{Op: op, Msg: fmt.Sprintf(format, args...)})
	}
}
