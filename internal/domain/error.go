package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrForbidden          = errors.New("caller does not own this resource")
	ErrToolNotRegistered  = errors.New("tool type is not registered")
	ErrOperationInFlight  = errors.New("identical operation already in flight")
	ErrServiceUnavailable = errors.New("downstream service unavailable")
	ErrInvalidExecContext = errors.New("invalid executor/transaction context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
