package store

import "errors"

// Sentinel errors returned by the store. Match with errors.Is.
var (
	// ErrEmailTaken reports a signup attempt for an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound reports a lookup miss.
	ErrNotFound = errors.New("not found")
)
