package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/listingform"
)

// APIError represents an API error response
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeNotAuthenticated  = "NOT_AUTHENTICATED"
	CodeInvalidCredential = "INVALID_CREDENTIAL"
	CodeMissingCredential = "MISSING_CREDENTIAL"
	CodeNotOwner          = "NOT_OWNER"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeListingNotFound   = "LISTING_NOT_FOUND"
	CodeNotFound          = "NOT_FOUND"
	CodeNameTaken         = "NAME_TAKEN"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeSyncUnavailable   = "SYNC_UNAVAILABLE"
	CodeForbidden         = "FORBIDDEN"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *listingform.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusUnprocessableEntity, APIError{
			Code:    CodeValidationFailed,
			Message: ve.Error(),
			Fields:  ve.Fields,
		}}
	}

	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeNotAuthenticated, Message: "Log in first"}}
	case errors.Is(err, model.ErrInvalidCredential):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidCredential, Message: "Invalid name or credential"}}
	case errors.Is(err, model.ErrMissingCredential):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeMissingCredential, Message: "Account has no credential set"}}
	case errors.Is(err, model.ErrNotOwner):
		return &httpError{http.StatusForbidden, APIError{Code: CodeNotOwner, Message: "Only the seller can modify this listing"}}
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeUserNotFound, Message: "User not found"}}
	case errors.Is(err, model.ErrListingNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeListingNotFound, Message: "Listing not found"}}
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeNotFound, Message: "Not found"}}
	case errors.Is(err, model.ErrNameTaken):
		return &httpError{http.StatusConflict, APIError{Code: CodeNameTaken, Message: "Name is already taken"}}
	case errors.Is(err, model.ErrValidationFailed):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeValidationFailed, Message: err.Error()}}
	case errors.Is(err, model.ErrSyncInitFailed):
		return &httpError{http.StatusServiceUnavailable, APIError{Code: CodeSyncUnavailable, Message: "Shared data is not available yet"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) error {
	return &httpError{http.StatusForbidden, APIError{Code: CodeForbidden, Message: message}}
}

// NewRateLimitedError creates a too-many-requests error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{Code: CodeRateLimited, Message: "Too many requests, slow down"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}

// WritePanic answers a request whose handler panicked
func WritePanic(w http.ResponseWriter, _ *http.Request, _ any) {
	WriteError(w, NewInternalError())
}
