// Package authd implements the HTTP surface of an OAuth 2.0 authorization
// server: the authorization, login, consent and token endpoints, and the
// bearer-token middleware for protected resources. The protocol core lives
// in the server package; persistence behind the storage interfaces.
package authd

// TokenResponse is the JSON body of a successful token endpoint response
// (RFC 6749 §5.1).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ErrorResponse is the JSON body of an OAuth error response (RFC 6749 §5.2).
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// UserProfile is the JSON body served to protected-resource callers asking
// about the token's owner. Login is null for client-credentials tokens.
type UserProfile struct {
	ID          *string  `json:"id"`
	Login       *string  `json:"login"`
	Email       *string  `json:"email"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Scope       string   `json:"scope,omitempty"`
	ClientID    string   `json:"client_id"`
}

// LoginResponse is the JSON body returned to XHR login submissions.
type LoginResponse struct {
	LandingURL string `json:"landing-url"`
}
