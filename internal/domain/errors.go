package domain

import "errors"

// Domain errors
var (
	// Event errors
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNotActive        = errors.New("event is not active")
	ErrEventEnded            = errors.New("event has already ended")
	ErrEventFull             = errors.New("event is full")
	ErrEventAlreadyCancelled = errors.New("event already cancelled")

	ErrQueueFull = errors.New("notification queue is full")

	// Ticket errors
	ErrTicketNotFound = errors.New("ticket not found")
	ErrAlreadyClaimed = errors.New("ticket already claimed for this event")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")

	// Capability errors
	ErrNotPermitted = errors.New("operation not permitted for this role")
	ErrNotOwner     = errors.New("event belongs to a different organizer")

	// Validation errors
	ErrInvalidEventID = errors.New("invalid event id")
	ErrInvalidUserID  = errors.New("invalid user id")
	ErrInvalidToken   = errors.New("invalid ticket token")
	ErrReasonRequired = errors.New("cancellation reason is required")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrAlreadyClaimed) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrEventAlreadyCancelled) ||
		errors.Is(err, ErrEventNotActive) ||
		errors.Is(err, ErrEventEnded)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrReasonRequired)
}

// IsPermissionError checks if the error is a capability error
func IsPermissionError(err error) bool {
	return errors.Is(err, ErrNotPermitted) || errors.Is(err, ErrNotOwner)
}
