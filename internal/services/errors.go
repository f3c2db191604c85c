package services

import "errors"

// Kind classifies engine failures so transports can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindDependency:
		return "dependency_failure"
	default:
		return "internal"
	}
}

// Error is a classified, caller-facing failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and message so wrapped copies still compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

func (e *Error) wrap(err error) *Error {
	return &Error{Kind: e.Kind, Msg: e.Msg, Err: err}
}

var (
	ErrPasswordMismatch   = &Error{Kind: KindValidation, Msg: "Passwords do not match"}
	ErrContactRequired    = &Error{Kind: KindValidation, Msg: "Email or phone required"}
	ErrUsernameRequired   = &Error{Kind: KindValidation, Msg: "Username required"}
	ErrPasswordRequired   = &Error{Kind: KindValidation, Msg: "Password required"}
	ErrInvalidEmail       = &Error{Kind: KindValidation, Msg: "Invalid email address"}
	ErrUsernameTooLong    = &Error{Kind: KindValidation, Msg: "Username must be at most 50 characters"}
	ErrEmailTooLong       = &Error{Kind: KindValidation, Msg: "Email must be at most 100 characters"}
	ErrPhoneTooLong       = &Error{Kind: KindValidation, Msg: "Phone must be at most 15 characters"}
	ErrUserExists         = &Error{Kind: KindConflict, Msg: "User already exists"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Msg: "User not found"}
	ErrNotVerified        = &Error{Kind: KindForbidden, Msg: "Account not verified"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Msg: "Invalid credentials"}
	ErrInvalidOTP         = &Error{Kind: KindUnauthorized, Msg: "Invalid OTP"}
	ErrDeliveryFailed     = &Error{Kind: KindDependency, Msg: "Failed to send OTP"}
)

// KindOf returns the classification of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
