// Package gateway is the single entry point for device actions. It
// validates (tool, action, parameters) calls against a static schema
// table, resolves the target device, invokes the matching capability
// method and normalizes every outcome into an ActionResult.
package gateway

import (
	"fmt"
	"time"
)

// FailureKind classifies action failures.
type FailureKind string

// Failure kinds
const (
	FailureInvalidParameter FailureKind = "invalid_parameter"
	FailureNotFound         FailureKind = "not_found"
	FailureUnsupported      FailureKind = "unsupported_operation"
	FailureAuthExpired      FailureKind = "auth_expired"
	FailureUnreachable      FailureKind = "device_unreachable"
	FailureRateLimited      FailureKind = "rate_limited"
)

// Retryable reports whether a caller may usefully retry the same call.
func (k FailureKind) Retryable() bool {
	return k == FailureUnreachable || k == FailureRateLimited
}

// Failure describes a normalized action failure.
type Failure struct {
	Kind      FailureKind `json:"kind"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`

	// RetryAfterSeconds is a backoff hint, set only for rate_limited.
	RetryAfterSeconds float64 `json:"retry_after_seconds,omitempty"`
}

// ActionRequest is one inbound command. Immutable once dispatched.
type ActionRequest struct {
	Tool       string         `json:"tool"`
	Action     string         `json:"action"`
	Device     string         `json:"device"`
	Parameters map[string]any `json:"parameters"`
}

// ActionResult is the uniform response shape for every action.
type ActionResult struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   *Failure `json:"error,omitempty"`
}

// Succeed wraps a payload into a successful result.
func Succeed(data any) ActionResult {
	return ActionResult{Success: true, Data: data}
}

// Fail builds a failure result of the given kind.
func Fail(kind FailureKind, format string, args ...any) ActionResult {
	return ActionResult{
		Success: false,
		Error: &Failure{
			Kind:      kind,
			Message:   fmt.Sprintf(format, args...),
			Retryable: kind.Retryable(),
		},
	}
}

// FailRateLimited builds a rate-limited failure carrying a backoff hint.
func FailRateLimited(retryAfter time.Duration, format string, args ...any) ActionResult {
	return ActionResult{
		Success: false,
		Error: &Failure{
			Kind:              FailureRateLimited,
			Message:           fmt.Sprintf(format, args...),
			Retryable:         true,
			RetryAfterSeconds: retryAfter.Seconds(),
		},
	}
}

// ActionEvent is emitted after every dispatch for observers.
type ActionEvent struct {
	Device      string      `json:"device"`
	Tool        string      `json:"tool"`
	Action      string      `json:"action"`
	Success     bool        `json:"success"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
	At          time.Time   `json:"at"`
}

// EventSink receives action events. Implemented by the MQTT publisher.
type EventSink interface {
	ActionCompleted(evt ActionEvent)
}
