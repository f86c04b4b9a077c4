// Package errors provides structured error types for the build pipeline.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline failure taxonomy. Wrap them with AgentError to
// carry context; match them with errors.Is.
var (
	ErrTransientService    = errors.New("prompted-function service unavailable")
	ErrDecode              = errors.New("structured response does not match schema")
	ErrBuildFailure        = errors.New("build failed")
	ErrTooManyBugs         = errors.New("too many bugs")
	ErrProcess             = errors.New("server process error")
	ErrProbeFailure        = errors.New("endpoint probe failed")
	ErrOperatorRejection   = errors.New("operator rejected generated code")
	ErrStateNotImplemented = errors.New("agent state has no behavior")

	ErrTimeout      = errors.New("operation timed out")
	ErrRateLimit    = errors.New("rate limit exceeded")
	ErrUnavailable  = errors.New("service unavailable")
	ErrInvalidInput = errors.New("invalid input")
)

// AgentError is a failure raised while an agent executes. Kind is one of the
// sentinels above; Detail holds captured context such as stderr or the directive.
type AgentError struct {
	Kind   error
	Role   string
	Op     string
	Detail string
	Err    error
}

func (e *AgentError) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", e.Role, e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += "\n" + e.Detail
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *AgentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewAgentError creates an AgentError of the given kind.
func NewAgentError(kind error, role, op string, err error) *AgentError {
	return &AgentError{Kind: kind, Role: role, Op: op, Err: err}
}

// WithDetail attaches captured context and returns the same error.
func (e *AgentError) WithDetail(detail string) *AgentError {
	e.Detail = detail
	return e
}

// APIError represents an error from an LLM provider call.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504, 529:
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}

// IsFatal reports whether err ends the run. Only build failures and probe
// failures are handled locally; everything else reaching the Manager is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTooManyBugs) {
		return true
	}
	return !errors.Is(err, ErrBuildFailure) && !errors.Is(err, ErrProbeFailure)
}
