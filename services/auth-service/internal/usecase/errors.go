package usecase

import (
	"errors"

	"github.com/vasapolrittideah/landlordy-api/shared/validation"
)

// Error kinds. Every error returned by the usecases matches exactly one of
// them with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")
	ErrDependency     = errors.New("dependency failure")
)

// Error is a usecase failure carrying the message shown to the client.
type Error struct {
	Kind    error
	Message string
	Fields  []validation.FieldError
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Is matches sentinel *Error values by kind and message so that wrapped
// copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	ErrEmailTaken = &Error{Kind: ErrConflict, Message: "User with this email already exists"}

	ErrInvalidCredentials = &Error{Kind: ErrAuthentication, Message: "Invalid email or password"}
	ErrEmailNotVerified   = &Error{Kind: ErrAuthentication, Message: "Please verify your email before logging in"}
	ErrInvalidSession     = &Error{Kind: ErrAuthentication, Message: "Invalid or expired token"}
	ErrSessionAccountGone = &Error{Kind: ErrAuthentication, Message: "Invalid token - user not found"}
	ErrSessionUnverified  = &Error{Kind: ErrAuthentication, Message: "Email not verified"}

	ErrInvalidVerificationToken = &Error{Kind: ErrValidation, Message: "Invalid or expired verification token"}
	ErrInvalidResetToken        = &Error{Kind: ErrValidation, Message: "Invalid or expired password reset token"}
	ErrIncorrectPassword        = &Error{Kind: ErrValidation, Message: "Current password is incorrect"}

	ErrAccountNotFound = &Error{Kind: ErrNotFound, Message: "User not found"}
)

const genericFailureMessage = "Something went wrong"

func dependencyError(cause error) error {
	return &Error{Kind: ErrDependency, Message: genericFailureMessage, Cause: cause}
}

func validationError(err error) error {
	var verrs *validation.Errors
	if errors.As(err, &verrs) {
		return &Error{Kind: ErrValidation, Message: verrs.First(), Fields: verrs.Fields}
	}
	return &Error{Kind: ErrValidation, Message: "Invalid request", Cause: err}
}
