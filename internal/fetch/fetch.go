// Package fetch defines the shared lifecycle vocabulary for asynchronous
// data fetches: every provider query moves Idle -> Loading -> Succeeded or
// Failed, and failures surface a single human-readable message regardless
// of whether the network, the upstream status code, or the payload shape
// was at fault.
package fetch

import "fmt"

// Status is the lifecycle state of one asynchronous fetch.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Done reports whether the fetch has resolved either way.
func (s Status) Done() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Error is the single failure type surfaced by providers. Network errors,
// non-2xx responses, and malformed payloads all collapse into it; callers
// render Message verbatim and never branch on a finer taxonomy.
type Error struct {
	Source  string // provider name, e.g. "openweather"
	Message string
}

func (e *Error) Error() string {
	if e.Source == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// Errorf builds an Error from a format string.
func Errorf(source, format string, args ...any) *Error {
	return &Error{Source: source, Message: fmt.Sprintf(format, args...)}
}

// Wrap converts an arbitrary error into an *Error, preserving an existing
// one unchanged.
func Wrap(source string, err error) *Error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*Error); ok {
		return fe
	}
	return &Error{Source: source, Message: err.Error()}
}
