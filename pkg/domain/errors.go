package domain

import (
	"errors"
	"strings"
)

// ErrorKind classifies failures surfaced to views.
type ErrorKind string

const (
	KindAuth            ErrorKind = "auth"
	KindValidation      ErrorKind = "validation"
	KindNetwork         ErrorKind = "network"
	KindExternalService ErrorKind = "external_service"
	// KindServer means the backend answered with a failure status outside the auth flows.
	KindServer ErrorKind = "server"
)

// Error is the typed failure returned by the client modules.
type Error struct {
	Kind    ErrorKind
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind) + " error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Status == 0 && t.Err == nil
}

var (
	ErrAuth            = &Error{Kind: KindAuth}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrExternalService = &Error{Kind: KindExternalService}
	ErrServer          = &Error{Kind: KindServer}

	// ErrLoginRequired is returned by protected operations when no user id is held.
	ErrLoginRequired = &Error{Kind: KindValidation, Message: "login required", Err: errLoginRequired}
)

var errLoginRequired = errors.New("no current user id in session storage")

// IsLoginRequired reports whether err means the caller must log in first.
func IsLoginRequired(err error) bool {
	return errors.Is(err, errLoginRequired)
}

// Validation builds a validation error with a user-facing message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// UserMessage converts any error to the text shown to the user.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if msg := strings.TrimSpace(e.Message); msg != "" {
			return msg
		}
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
