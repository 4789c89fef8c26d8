package recovery

import "errors"

var (
	ErrAccountNotFound = errors.New("no account for email")
	ErrNoActiveRequest = errors.New("no active recovery request")
	ErrExpired         = errors.New("recovery code expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrInvalidCode     = errors.New("invalid recovery code")
	ErrNotVerified     = errors.New("recovery code not verified")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
)
