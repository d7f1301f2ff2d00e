// Package cstn: error types.
// This file defines ConfigurationError, the only error kind the checking
// kernel surfaces to callers. Inconsistency and timeout are reported through
// RunStatus, never as errors; internal invariant violations panic.
package cstn

import "fmt"

// ConfigurationError reports an ill-formed network or an invalid structural
// operation: a duplicate node or edge name, a second observer for a
// proposition, an occupied endpoint pair, or a well-definedness violation
// found while preparing a check. It is fatal: the operation that raised it
// is never retried.
type ConfigurationError struct {
	// Op names the operation that failed, e.g. "Graph.AddNode".
	Op string

	// Detail describes what was wrong with the configuration.
	Detail string
}

// Error returns the formatted error message.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// configErrorf builds a ConfigurationError with a formatted detail message.
func configErrorf(op, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
