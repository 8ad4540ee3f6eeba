// Package apperror defines the error taxonomy shared by services, middleware
// and handlers. Every failure that leaves a service boundary is an *Error so
// the HTTP layer can pick a status code and a stable message without looking
// at collaborator errors.
package apperror

import (
	"errors"
	"net/http"
)

// Kind is the broad failure class.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindAuth
	KindUnauthorized
	KindNotFound
	KindDependency
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindConflict:
		return "ConflictError"
	case KindAuth:
		return "AuthError"
	case KindUnauthorized:
		return "Unauthorized"
	case KindNotFound:
		return "NotFoundError"
	case KindDependency:
		return "DependencyError"
	case KindInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// Code narrows a Kind. Auth errors always carry one.
type Code string

const (
	CodeMissingCredentials Code = "MissingCredentials"
	CodeInvalidCredentials Code = "InvalidCredentials"
	CodeUserNotFound       Code = "UserNotFound"
	CodeMissingToken       Code = "MissingToken"
	CodeInvalidToken       Code = "InvalidToken"
	CodeTokenReuseDetected Code = "TokenReuseDetected"

	CodeUploadFailed  Code = "UploadFailed"
	CodeCleanupFailed Code = "CleanupFailed"
)

// Error is a classified failure. Message is safe to show to clients; Err is
// the underlying cause and is only meant for logs.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Code so the package-level sentinels below can be used
// with errors.Is. A zero Kind or empty Code in the target acts as a wildcard.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != 0 && t.Kind != e.Kind {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return true
}

// Retryable reports whether the caller may retry the same request later.
func (e *Error) Retryable() bool { return e.Kind == KindDependency }

// Sentinels for errors.Is.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrDependency   = &Error{Kind: KindDependency}
	ErrInternal     = &Error{Kind: KindInternal}

	ErrMissingCredentials = &Error{Kind: KindAuth, Code: CodeMissingCredentials}
	ErrInvalidCredentials = &Error{Kind: KindAuth, Code: CodeInvalidCredentials}
	ErrUserNotFound       = &Error{Kind: KindAuth, Code: CodeUserNotFound}
	ErrMissingToken       = &Error{Kind: KindAuth, Code: CodeMissingToken}
	ErrInvalidToken       = &Error{Kind: KindAuth, Code: CodeInvalidToken}
	ErrTokenReuseDetected = &Error{Kind: KindAuth, Code: CodeTokenReuseDetected}

	ErrUploadFailed  = &Error{Kind: KindDependency, Code: CodeUploadFailed}
	ErrCleanupFailed = &Error{Kind: KindDependency, Code: CodeCleanupFailed}
)

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Auth(code Code, msg string, cause error) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: msg, Err: cause}
}

func Unauthorized(msg string, cause error) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg, Err: cause}
}

func Dependency(msg string, cause error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: cause}
}

// DependencyCode is Dependency with a Code, used by the media helper.
func DependencyCode(code Code, msg string, cause error) *Error {
	return &Error{Kind: KindDependency, Code: code, Message: msg, Err: cause}
}

func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// As extracts the *Error from err. Unclassified errors come back as Internal
// so nothing escapes without a kind.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("Something went wrong", err)
}

// HTTPStatus maps an error to the response status code.
func HTTPStatus(err error) int {
	e := As(err)
	if e == nil {
		return http.StatusOK
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindDependency:
		return http.StatusServiceUnavailable
	case KindAuth:
		switch e.Code {
		case CodeMissingCredentials, CodeInvalidCredentials, CodeUserNotFound, CodeInvalidToken, CodeTokenReuseDetected:
			return http.StatusBadRequest
		default:
			return http.StatusUnauthorized
		}
	default:
		return http.StatusInternalServerError
	}
}
