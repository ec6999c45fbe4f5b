package server

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuth error codes from RFC 6749 §4.1.2.1 and §5.2, plus the RFC 6750
// bearer token code.
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidClient           = "invalid_client"
	ErrorCodeInvalidGrant            = "invalid_grant"
	ErrorCodeUnauthorizedClient      = "unauthorized_client"
	ErrorCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrorCodeUnsupportedResponseType = "unsupported_response_type"
	ErrorCodeInvalidScope            = "invalid_scope"
	ErrorCodeAccessDenied            = "access_denied"
	ErrorCodeInvalidToken            = "invalid_token"
	ErrorCodeServerError             = "server_error"
)

// Error is the tagged OAuth error value routed to the error encoder. When
// RedirectURI is set the error is delivered as a 302 redirect with error,
// error_description and state query parameters; otherwise it is a JSON
// body with the given HTTP status.
type Error struct {
	Code        string
	Description string
	Status      int
	RedirectURI string
	State       string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WithRedirect returns a copy of the error that will be delivered by
// redirecting to uri, echoing state when non-empty.
func (e *Error) WithRedirect(uri, state string) *Error {
	cp := *e
	cp.RedirectURI = uri
	cp.State = state
	return &cp
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var oautherr *Error
	if errors.As(err, &oautherr) {
		return oautherr, true
	}
	return nil, false
}

// ErrInvalidRequest indicates a missing or malformed parameter.
func ErrInvalidRequest(desc string) *Error {
	return &Error{Code: ErrorCodeInvalidRequest, Description: desc, Status: http.StatusBadRequest}
}

// ErrInvalidClient indicates an unknown client or failed client authentication.
func ErrInvalidClient(desc string) *Error {
	return &Error{Code: ErrorCodeInvalidClient, Description: desc, Status: http.StatusUnauthorized}
}

// ErrInvalidGrant indicates an invalid or expired code, token, or
// resource-owner credential.
func ErrInvalidGrant(desc string) *Error {
	return &Error{Code: ErrorCodeInvalidGrant, Description: desc, Status: http.StatusBadRequest}
}

// ErrUnauthorizedClient indicates the client is not registered for the
// requested grant or response type.
func ErrUnauthorizedClient(desc string) *Error {
	return &Error{Code: ErrorCodeUnauthorizedClient, Description: desc, Status: http.StatusBadRequest}
}

// ErrUnsupportedGrantType indicates an unknown grant_type.
func ErrUnsupportedGrantType(desc string) *Error {
	return &Error{Code: ErrorCodeUnsupportedGrantType, Description: desc, Status: http.StatusBadRequest}
}

// ErrUnsupportedResponseType indicates an unknown or forbidden response_type.
func ErrUnsupportedResponseType(desc string) *Error {
	return &Error{Code: ErrorCodeUnsupportedResponseType, Description: desc, Status: http.StatusBadRequest}
}

// ErrInvalidScope indicates a scope outside the client's declared set.
func ErrInvalidScope(desc string) *Error {
	return &Error{Code: ErrorCodeInvalidScope, Description: desc, Status: http.StatusBadRequest}
}

// ErrAccessDenied indicates the resource owner refused the request.
func ErrAccessDenied(desc string) *Error {
	return &Error{Code: ErrorCodeAccessDenied, Description: desc, Status: http.StatusForbidden}
}

// ErrInvalidToken indicates a bearer token that is unknown, expired, or
// bound to a disabled client or user.
func ErrInvalidToken(desc string) *Error {
	return &Error{Code: ErrorCodeInvalidToken, Description: desc, Status: http.StatusUnauthorized}
}

// ErrServerError indicates an internal failure. The description is generic;
// details belong in the log.
func ErrServerError(desc string) *Error {
	return &Error{Code: ErrorCodeServerError, Description: desc, Status: http.StatusInternalServerError}
}
