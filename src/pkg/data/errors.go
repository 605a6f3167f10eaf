package data

import "errors"

var (
	// ErrNotFound covers both missing documents and documents owned by someone else.
	ErrNotFound           = errors.New("not found")
	ErrInvalidDocument    = errors.New("invalid mind map")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidUser        = errors.New("invalid user data")
)
