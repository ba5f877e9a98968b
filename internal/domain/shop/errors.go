// internal/domain/shop/errors.go

package shop

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound             = errors.New("shop not found")
	ErrValidation           = errors.New("validation failed")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// ValidationError reports a missing or malformed field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes ValidationError match ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NetworkError wraps a failed request to the shop backend
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s shops: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is, or wraps, a NetworkError
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
