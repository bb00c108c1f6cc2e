package service

import "errors"

var (
	// ErrConflict is returned when a username or email is already taken.
	ErrConflict = errors.New("username or email already in use")
	// ErrInvalidCredentials deliberately does not distinguish an unknown
	// username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfirmed means the account exists but its email has not been
	// confirmed, so login is not yet permitted.
	ErrNotConfirmed = errors.New("account not confirmed")
	// ErrNotFound is returned when the referenced user or confirmation
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExpired means the confirmation link was used after its window.
	ErrExpired = errors.New("confirmation link expired")
	// ErrAlreadyConfirmed means a resend was requested for an account
	// whose latest confirmation already succeeded.
	ErrAlreadyConfirmed = errors.New("account already confirmed")
	// ErrActiveConfirmationExists means the user still has an unexpired,
	// unconfirmed record; it must be force-expired before a new one is
	// created.
	ErrActiveConfirmationExists = errors.New("an active confirmation already exists")
)
