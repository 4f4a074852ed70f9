package auth

import "errors"

var (
	// Session decode failures. Callers treat both as "not authenticated".
	ErrMalformedCookie = errors.New("malformed session cookie")
	ErrInvalidUserID   = errors.New("invalid user id in session cookie")

	ErrInvalidPrincipal   = errors.New("invalid principal")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrAccountNotFound    = errors.New("account not found")
)
