package services

import "errors"

// Sentinel errors surfaced to controllers. Matched with errors.Is and
// translated to HTTP statuses at the transport edge; never retried here.
var (
	ErrBookingConflict = errors.New("booking_conflict")
	ErrBookingNotFound = errors.New("booking_not_found")
	ErrRoomNotFound    = errors.New("room_not_found")
	ErrUserNotFound    = errors.New("user_not_found")

	ErrDescriptionRequired = errors.New("description_required")
	ErrInvalidRecurrence   = errors.New("invalid_recurrence")

	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccessDenied       = errors.New("access_denied")
	ErrUsernameTaken      = errors.New("username_taken")
)
