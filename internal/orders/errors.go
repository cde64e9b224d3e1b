package orders

import (
	"errors"
	"fmt"
)

// ErrValidation is the base kind for malformed order requests. All
// validation failures match it via errors.Is and cause no side effects.
var ErrValidation = errors.New("validation failed")

// Validation failures at order intake.
var (
	ErrUnsupportedSymbol = fmt.Errorf("%w: unsupported symbol", ErrValidation)
	ErrInvalidSide       = fmt.Errorf("%w: side must be buy or sell", ErrValidation)
	ErrInvalidPrice      = fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
)

// Lifecycle errors.
var (
	// ErrOrderNotFound is returned when no order with the given id is
	// owned by the requesting user.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidState is returned when cancelling an order that is no
	// longer open.
	ErrInvalidState = errors.New("order is not open")
)
