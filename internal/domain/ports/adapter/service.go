package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ServiceErrorKind classifies a downstream microservice failure. The kind
// decides retry and fallback behavior; everything else about the remote
// protocol stays opaque to the engine.
type ServiceErrorKind string

const (
	// Unavailable: connect failure or timeout. Retryable, triggers fallback.
	Unavailable ServiceErrorKind = "unavailable"
	// Rejected: 4xx. The payload was bad; retrying cannot help.
	Rejected ServiceErrorKind = "rejected"
	// ServerFault: 5xx. Retryable with backoff.
	ServerFault ServiceErrorKind = "server_fault"
	// ProtocolError: the response could not be decoded. Not retried.
	ProtocolError ServiceErrorKind = "protocol_error"
)

type ServiceError struct {
	Service string
	Kind    ServiceErrorKind
	Status  int // HTTP status when applicable
	Msg     string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (http %d): %s", e.Service, e.Kind, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Service, e.Kind, e.Msg)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// Retryable reports whether a bounded retry may succeed.
func (e *ServiceError) Retryable() bool {
	return e.Kind == Unavailable || e.Kind == ServerFault
}

// AsServiceError unwraps err into a *ServiceError if it is one.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ServiceClient is the uniform contract every downstream microservice
// adapter exposes. Implementations are stateless and safe for concurrent
// use across executors.
type ServiceClient interface {
	// Name identifies the service in logs, metrics and errors.
	Name() string

	// HealthCheck probes the service with a bounded latency (~5s). The
	// verdict may be served from a short-lived cache so a degraded
	// service is not hammered by every executor.
	HealthCheck(ctx context.Context) bool

	// Call posts payload to endpoint and decodes the JSON response into
	// out. Failures are reported as *ServiceError.
	Call(ctx context.Context, endpoint string, payload any, out any, timeout time.Duration) error
}
