package services

import "errors"

var (
	// ErrNotFound is returned when a requested resource does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a resource belongs to another user
	ErrForbidden = errors.New("access denied")
)
