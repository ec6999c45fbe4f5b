package authd

import "github.com/openclave/authd/server"

// Error is the tagged OAuth error value produced by the protocol core and
// encoded by the HTTP layer.
type Error = server.Error

// OAuth error codes, re-exported for callers embedding the library.
const (
	ErrorCodeInvalidRequest          = server.ErrorCodeInvalidRequest
	ErrorCodeInvalidClient           = server.ErrorCodeInvalidClient
	ErrorCodeInvalidGrant            = server.ErrorCodeInvalidGrant
	ErrorCodeUnauthorizedClient      = server.ErrorCodeUnauthorizedClient
	ErrorCodeUnsupportedGrantType    = server.ErrorCodeUnsupportedGrantType
	ErrorCodeUnsupportedResponseType = server.ErrorCodeUnsupportedResponseType
	ErrorCodeInvalidScope            = server.ErrorCodeInvalidScope
	ErrorCodeAccessDenied            = server.ErrorCodeAccessDenied
	ErrorCodeInvalidToken            = server.ErrorCodeInvalidToken
	ErrorCodeServerError             = server.ErrorCodeServerError
)
