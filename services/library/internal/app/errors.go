package app

import "errors"

var (
	// ErrInvalidCredentials does not say which of the two fields was wrong.
	ErrInvalidCredentials = errors.New("Incorrect login id or password")

	ErrLoginIDAndPasswordRequired = errors.New("login id and password required")
	ErrLoginIDAlreadyExists       = errors.New("login id already exists")

	ErrRefreshTokenRequired = errors.New("refresh token required")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrUserNotFound         = errors.New("user not found")

	ErrTitleRequired = errors.New("title required")
	ErrBookNotFound  = errors.New("book not found")
	ErrForbidden     = errors.New("forbidden")
)

// InputError marks a request the caller must correct, such as a weak password.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }

func (e *InputError) Unwrap() error { return e.Err }
