package services

import "errors"

// Common service errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrUnauthorized  = errors.New("not authorized")
	ErrInvalidState  = errors.New("invalid state transition")
	ErrDuplicate     = errors.New("duplicate record")
	ErrLockHeld      = errors.New("resource is locked by another operation")
	ErrFrozen        = errors.New("approved settlement is immutable")
	ErrOpenPeriod    = errors.New("an open settlement already exists for this date")
	ErrNotDuplicated = errors.New("no duplicate settlements to merge")
)
