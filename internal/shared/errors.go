package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a request failed boundary validation.
	ErrValidation = errors.New("validation failed")
	// ErrMalformedDate indicates a date that is not a zero-padded YYYY-MM-DD calendar date.
	ErrMalformedDate = errors.New("malformed date: expected YYYY-MM-DD")
	// ErrPersistence indicates the backing store could not complete a read or write.
	ErrPersistence = errors.New("persistence failure")
)
