package domain

import "errors"

var (
	ErrFlightNotFound  = errors.New("flight not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrSessionNotFound = errors.New("chat session not found")
	ErrInvalidCriteria = errors.New("invalid search criteria")
	ErrDuplicateRef    = errors.New("booking reference already exists")
)
