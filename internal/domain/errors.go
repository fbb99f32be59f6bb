package domain

import "errors"

var (
	// ErrAuth means a submission token did not match any stored credential.
	ErrAuth = errors.New("invalid api key")
	// ErrDuplicateUser is returned when registering an existing username.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	// ErrSafetyBlocked is returned by a classifier whose provider refused to
	// answer on safety grounds.
	ErrSafetyBlocked = errors.New("classification blocked by safety filter")
)
