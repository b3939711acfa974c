package accounts

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials  = "InvalidCredentials"
	TextCodeWrongCredentials    = "WrongCredentials"
	TextCodeAccountNotActivated = "AccountNotActivated"
	TextCodeEmailAlreadyInUse   = "EmailAlreadyInUse"
	TextCodeUserNotFound        = "UserNotFound"
	TextCodeAccessDenied        = "AccessDenied"
	TextCodeInvalidToken        = "InvalidToken"
	TextCodeServerError         = "ServerError"
)

// ErrInvalidCredentials is returned when registration input fails shape validation.
var ErrInvalidCredentials = errors.New("invalid credentials payload", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrWrongCredentials is returned on login failure. Unknown email and wrong
// password produce this same value so callers cannot enumerate accounts.
var ErrWrongCredentials = errors.New("wrong credentials", errors.CategoryAuth).
	WithTextCode(TextCodeWrongCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotActivated is returned when an account exists but has not
// completed the activation flow.
var ErrAccountNotActivated = errors.New("account not activated", errors.CategoryAuth).
	WithTextCode(TextCodeAccountNotActivated).
	WithCode(errors.CodeForbidden)

// ErrEmailAlreadyInUse is returned when registering an email that belongs to
// an activated account.
var ErrEmailAlreadyInUse = errors.New("email already in use", errors.CategoryConflict).
	WithTextCode(TextCodeEmailAlreadyInUse).
	WithCode(errors.CodeConflict)

// ErrUserNotFound is returned when a profile lookup misses.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrAccessDenied is returned on an ownership violation.
var ErrAccessDenied = errors.New("access denied", errors.CategoryAuthz).
	WithTextCode(TextCodeAccessDenied).
	WithCode(errors.CodeForbidden)

// ErrInvalidToken collapses signature mismatch, malformed structure and
// expiry into a single kind so token verification leaks no oracle.
var ErrInvalidToken = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the internal hasher failure; the
// coordinator translates it to ErrWrongCredentials before it reaches a caller.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithTextCode(TextCodeWrongCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when an empty value reaches an operation
// that requires input, e.g. hashing an empty password.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// WireError maps any error to the stable wire code and HTTP status for the
// response body. Infra errors never surface internals: anything outside the
// closed taxonomy collapses to ServerError.
func WireError(err error) (string, int) {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return TextCodeServerError, http.StatusInternalServerError
	}

	switch rich.TextCode {
	case TextCodeInvalidCredentials:
		return TextCodeInvalidCredentials, http.StatusBadRequest
	case TextCodeWrongCredentials:
		return TextCodeWrongCredentials, http.StatusUnauthorized
	case TextCodeAccountNotActivated:
		return TextCodeAccountNotActivated, http.StatusForbidden
	case TextCodeEmailAlreadyInUse:
		return TextCodeEmailAlreadyInUse, http.StatusConflict
	case TextCodeUserNotFound:
		return TextCodeUserNotFound, http.StatusNotFound
	case TextCodeAccessDenied:
		return TextCodeAccessDenied, http.StatusForbidden
	case TextCodeInvalidToken:
		return TextCodeInvalidToken, http.StatusUnauthorized
	}

	return TextCodeServerError, http.StatusInternalServerError
}
