package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nulldatamap/xthevent/internal/common"
)

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps APIError in the "error" envelope.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

const (
	CodeInvalidRequest           = "INVALID_REQUEST"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeInvalidCredentials       = "INVALID_CREDENTIALS"
	CodeInvalidToken             = "INVALID_TOKEN"
	CodeForbidden                = "FORBIDDEN"
	CodeExpired                  = "EXPIRED"
	CodeNotFound                 = "NOT_FOUND"
	CodeConflict                 = "CONFLICT"
	CodeDuplicateEmail           = "DUPLICATE_EMAIL"
	CodeDuplicateSteamID         = "DUPLICATE_STEAM_ID"
	CodeAlreadyRegistered        = "ALREADY_REGISTERED"
	CodeNotPending               = "NOT_PENDING"
	CodeNotRegistered            = "NOT_REGISTERED"
	CodeEventInactive            = "EVENT_INACTIVE"
	CodeInvalidRegistrationToken = "INVALID_REGISTRATION_TOKEN"
	CodeRateLimited              = "RATE_LIMITED"
	CodeStoreUnavailable         = "STORE_UNAVAILABLE"
	CodeInternalError            = "INTERNAL_ERROR"
)

// storeRetryAfter is the Retry-After value, in seconds, sent with 503.
const storeRetryAfter = "1"

type httpError struct {
	status   int
	apiError APIError
}

func (e *httpError) Error() string {
	return e.apiError.Message
}

func newHTTPError(status int, code, message string) *httpError {
	return &httpError{status: status, apiError: APIError{Code: code, Message: message}}
}

// NewInvalidRequestError reports a malformed or invalid request body.
func NewInvalidRequestError(message string) error {
	return newHTTPError(http.StatusBadRequest, CodeInvalidRequest, message)
}

// NewUnauthorizedError reports a missing bearer token.
func NewUnauthorizedError() error {
	return newHTTPError(http.StatusUnauthorized, CodeUnauthorized, "authentication required")
}

// NewInternalError hides the cause of an unexpected failure.
func NewInternalError() error {
	return newHTTPError(http.StatusInternalServerError, CodeInternalError, "internal server error")
}

func newInvalidRegistrationTokenError() error {
	return newHTTPError(http.StatusNotFound, CodeInvalidRegistrationToken, "registration token is invalid or has expired")
}

func newForbiddenError(message string) error {
	return newHTTPError(http.StatusForbidden, CodeForbidden, message)
}

func newRateLimitedError() error {
	return newHTTPError(http.StatusTooManyRequests, CodeRateLimited, "too many requests")
}

// WriteError maps err onto a status code and writes the JSON error envelope.
// Errors that are not recognized become a 500 without their message.
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	if he.status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", storeRetryAfter)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		return newHTTPError(http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, common.ErrInvalidCredential):
		return newHTTPError(http.StatusUnauthorized, CodeInvalidCredentials, "invalid email or password")
	case errors.Is(err, common.ErrInvalidToken):
		return newHTTPError(http.StatusUnauthorized, CodeInvalidToken, "invalid session token")
	case errors.Is(err, common.ErrExpired):
		return newHTTPError(http.StatusGone, CodeExpired, "token has expired")
	case errors.Is(err, common.ErrDuplicateEmail):
		return newHTTPError(http.StatusConflict, CodeDuplicateEmail, "email is already registered")
	case errors.Is(err, common.ErrDuplicateSteamID):
		return newHTTPError(http.StatusConflict, CodeDuplicateSteamID, "steam id is already registered")
	case errors.Is(err, common.ErrAlreadyRegistered):
		return newHTTPError(http.StatusConflict, CodeAlreadyRegistered, "player is already registered for this event")
	case errors.Is(err, common.ErrNotPending):
		return newHTTPError(http.StatusConflict, CodeNotPending, "player has no pending signup for this event")
	case errors.Is(err, common.ErrNotRegistered):
		return newHTTPError(http.StatusNotFound, CodeNotRegistered, "player is not registered for this event")
	case errors.Is(err, common.ErrEventInactive):
		return newHTTPError(http.StatusLocked, CodeEventInactive, "event is not active")
	case errors.Is(err, common.ErrConflict):
		return newHTTPError(http.StatusConflict, CodeConflict, "conflict")
	case errors.Is(err, common.ErrNotFound):
		return newHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	case errors.Is(err, common.ErrStoreUnavailable):
		return newHTTPError(http.StatusServiceUnavailable, CodeStoreUnavailable, "store temporarily unavailable")
	default:
		return NewInternalError().(*httpError)
	}
}
