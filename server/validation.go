package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/openclave/authd/pkce"
	"github.com/openclave/authd/storage"
)

// ValidateAuthorizeRequest checks an authorization request against the
// client's registration. The order of checks matters (RFC 6749 §4.1.2.1):
// failures before the redirect URI is known are delivered as JSON,
// response_type and scope failures as a redirect to the validated redirect
// URI, and PKCE parameter failures as JSON again. On success it returns the
// client and leaves req with its redirect URI and PKCE method normalized.
func (s *Server) ValidateAuthorizeRequest(ctx context.Context, req *storage.AuthorizeRequest) (*storage.Client, error) {
	// Unlike the token endpoint, an unknown client here is a malformed
	// request (400), not a failed authentication (401): nothing presented
	// credentials.
	if req.ClientID == "" {
		return nil, &Error{Code: ErrorCodeInvalidClient, Description: "client_id is required", Status: 400}
	}

	client, err := s.stores.Clients.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, &Error{Code: ErrorCodeInvalidClient, Description: "unknown client", Status: 400}
	}
	if !client.Enabled {
		return nil, &Error{Code: ErrorCodeInvalidClient, Description: "client is disabled", Status: 400}
	}

	// Resolve the redirect URI before anything that reports through it.
	if req.RedirectURI == "" {
		if len(client.RedirectURIs) != 1 {
			return nil, ErrInvalidRequest("redirect_uri is required")
		}
		req.RedirectURI = client.RedirectURIs[0]
	} else if !client.AllowsRedirectURI(req.RedirectURI) {
		return nil, ErrInvalidRequest("redirect_uri is not registered for this client")
	}

	// response_type and scope failures redirect back to the client.
	grant, ok := grantForResponseType(req.ResponseType)
	if !ok || !client.AllowsGrant(grant) {
		return nil, ErrUnsupportedResponseType(fmt.Sprintf("response_type %q is not supported for this client", req.ResponseType)).
			WithRedirect(req.RedirectURI, req.State)
	}

	if err := validateScope(client, req.Scope); err != nil {
		oautherr, _ := AsError(err)
		return nil, oautherr.WithRedirect(req.RedirectURI, req.State)
	}

	// PKCE parameters are malformed-request errors, not redirect errors.
	if req.CodeChallengeMethod != "" {
		if req.CodeChallengeMethod != pkce.MethodPlain && req.CodeChallengeMethod != pkce.MethodS256 {
			return nil, ErrInvalidRequest(fmt.Sprintf("unsupported code_challenge_method %q", req.CodeChallengeMethod))
		}
		if req.CodeChallenge == "" {
			return nil, ErrInvalidRequest("code_challenge is required when code_challenge_method is provided")
		}
		if !isURLSafeBase64(req.CodeChallenge) {
			return nil, ErrInvalidRequest("code_challenge is not URL-safe base64")
		}
	} else if req.CodeChallenge != "" {
		// RFC 7636 §4.3: the method defaults to plain when omitted.
		req.CodeChallengeMethod = pkce.MethodPlain
		if !isURLSafeBase64(req.CodeChallenge) {
			return nil, ErrInvalidRequest("code_challenge is not URL-safe base64")
		}
	}

	return client, nil
}

// grantForResponseType maps a response_type to the grant a client must be
// registered for.
func grantForResponseType(responseType string) (string, bool) {
	switch responseType {
	case ResponseTypeCode:
		return GrantAuthorizationCode, true
	case ResponseTypeToken:
		return GrantImplicit, true
	default:
		return "", false
	}
}

// validateScope ensures every requested scope is declared by the client.
// An empty request is allowed and means "no scope".
func validateScope(client *storage.Client, scope string) error {
	if scope == "" {
		return nil
	}
	declared := make(map[string]bool, len(client.Scopes))
	for _, sc := range client.Scopes {
		declared[sc] = true
	}
	for _, requested := range strings.Fields(scope) {
		if !declared[requested] {
			return ErrInvalidScope("requested scope is not declared by the client")
		}
	}
	return nil
}

// validateVerifier checks the code_verifier shape per RFC 7636 §4.1:
// 43-128 characters from the unreserved set.
func validateVerifier(verifier string) error {
	if len(verifier) < 43 || len(verifier) > 128 {
		return ErrInvalidGrant("code_verifier must be 43-128 characters")
	}
	for _, ch := range verifier {
		ok := (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '.' || ch == '_' || ch == '~'
		if !ok {
			return ErrInvalidGrant("code_verifier contains invalid characters")
		}
	}
	return nil
}

// isURLSafeBase64 reports whether s consists solely of unpadded URL-safe
// base64 characters.
func isURLSafeBase64(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		ok := (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '_'
		if !ok {
			return false
		}
	}
	return true
}
