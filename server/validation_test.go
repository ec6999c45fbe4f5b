package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/openclave/authd/internal/testutil"
	"github.com/openclave/authd/storage"
)

func setupValidationTest(t *testing.T) (*Server, *storage.Client) {
	t.Helper()
	srv, store, _ := newTestServer(t)

	client := testutil.NewTestClient("secret", "http://localhost", "photo:read")
	if err := store.PutClient(context.Background(), client); err != nil {
		t.Fatalf("PutClient() error = %v", err)
	}
	return srv, client
}

func TestValidateAuthorizeRequest(t *testing.T) {
	srv, client := setupValidationTest(t)
	ctx := context.Background()
	challenge, _ := testutil.GeneratePKCEPair()

	tests := []struct {
		name         string
		req          storage.AuthorizeRequest
		wantCode     string
		wantRedirect bool
	}{
		{
			name: "valid code request",
			req: storage.AuthorizeRequest{
				ResponseType: "code",
				ClientID:     client.ID,
				RedirectURI:  "http://localhost",
				Scope:        "photo:read",
				State:        "123ABC",
			},
		},
		{
			name: "valid implicit request",
			req: storage.AuthorizeRequest{
				ResponseType: "token",
				ClientID:     client.ID,
				RedirectURI:  "http://localhost",
			},
		},
		{
			name: "valid PKCE request",
			req: storage.AuthorizeRequest{
				ResponseType:        "code",
				ClientID:            client.ID,
				RedirectURI:         "http://localhost",
				CodeChallenge:       challenge,
				CodeChallengeMethod: "S256",
			},
		},
		{
			name:     "missing client_id",
			req:      storage.AuthorizeRequest{ResponseType: "code"},
			wantCode: ErrorCodeInvalidClient,
		},
		{
			name: "unknown client",
			req: storage.AuthorizeRequest{
				ResponseType: "code",
				ClientID:     "nope",
			},
			wantCode: ErrorCodeInvalidClient,
		},
		{
			name: "unregistered redirect URI",
			req: storage.AuthorizeRequest{
				ResponseType: "code",
				ClientID:     client.ID,
				RedirectURI:  "http://evil.example.com",
			},
			wantCode: ErrorCodeInvalidRequest,
		},
		{
			name: "unknown response type redirects",
			req: storage.AuthorizeRequest{
				ResponseType: "id_token",
				ClientID:     client.ID,
				RedirectURI:  "http://localhost",
				State:        "xyz",
			},
			wantCode:     ErrorCodeUnsupportedResponseType,
			wantRedirect: true,
		},
		{
			name: "undeclared scope redirects",
			req: storage.AuthorizeRequest{
				ResponseType: "code",
				ClientID:     client.ID,
				RedirectURI:  "http://localhost",
				Scope:        "profile",
			},
			wantCode:     ErrorCodeInvalidScope,
			wantRedirect: true,
		},
		{
			name: "unknown PKCE method",
			req: storage.AuthorizeRequest{
				ResponseType:        "code",
				ClientID:            client.ID,
				RedirectURI:         "http://localhost",
				CodeChallenge:       "invalid",
				CodeChallengeMethod: "unknown",
			},
			wantCode: ErrorCodeInvalidRequest,
		},
		{
			name: "malformed challenge",
			req: storage.AuthorizeRequest{
				ResponseType:        "code",
				ClientID:            client.ID,
				RedirectURI:         "http://localhost",
				CodeChallenge:       "not+base64url!",
				CodeChallengeMethod: "S256",
			},
			wantCode: ErrorCodeInvalidRequest,
		},
		{
			name: "method without challenge",
			req: storage.AuthorizeRequest{
				ResponseType:        "code",
				ClientID:            client.ID,
				RedirectURI:         "http://localhost",
				CodeChallengeMethod: "S256",
			},
			wantCode: ErrorCodeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := srv.ValidateAuthorizeRequest(ctx, &req)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateAuthorizeRequest() error = %v, want nil", err)
				}
				return
			}
			oautherr, ok := AsError(err)
			if !ok {
				t.Fatalf("ValidateAuthorizeRequest() error = %v, want *Error", err)
			}
			if oautherr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", oautherr.Code, tt.wantCode)
			}
			if (oautherr.RedirectURI != "") != tt.wantRedirect {
				t.Errorf("RedirectURI = %q, wantRedirect %v", oautherr.RedirectURI, tt.wantRedirect)
			}
		})
	}
}

func TestValidateAuthorizeRequest_UnknownPKCEMethodNamesIt(t *testing.T) {
	srv, client := setupValidationTest(t)

	req := &storage.AuthorizeRequest{
		ResponseType:        "code",
		ClientID:            client.ID,
		RedirectURI:         "http://localhost",
		CodeChallenge:       "invalid",
		CodeChallengeMethod: "unknown",
	}
	_, err := srv.ValidateAuthorizeRequest(context.Background(), req)
	oautherr, ok := AsError(err)
	if !ok {
		t.Fatalf("error = %v, want *Error", err)
	}
	if !strings.Contains(oautherr.Description, `"unknown"`) {
		t.Errorf("description %q does not name the offending method", oautherr.Description)
	}
}

func TestValidateAuthorizeRequest_DefaultRedirectURI(t *testing.T) {
	srv, client := setupValidationTest(t)

	req := &storage.AuthorizeRequest{
		ResponseType: "code",
		ClientID:     client.ID,
	}
	if _, err := srv.ValidateAuthorizeRequest(context.Background(), req); err != nil {
		t.Fatalf("ValidateAuthorizeRequest() error = %v", err)
	}
	if req.RedirectURI != "http://localhost" {
		t.Errorf("RedirectURI = %q, want the sole registered URI", req.RedirectURI)
	}
}

func TestValidateAuthorizeRequest_PlainMethodDefault(t *testing.T) {
	srv, client := setupValidationTest(t)

	req := &storage.AuthorizeRequest{
		ResponseType:  "code",
		ClientID:      client.ID,
		RedirectURI:   "http://localhost",
		CodeChallenge: "averylongplainchallengevalue",
	}
	if _, err := srv.ValidateAuthorizeRequest(context.Background(), req); err != nil {
		t.Fatalf("ValidateAuthorizeRequest() error = %v", err)
	}
	if req.CodeChallengeMethod != "plain" {
		t.Errorf("CodeChallengeMethod = %q, want plain by default", req.CodeChallengeMethod)
	}
}

func TestValidateAuthorizeRequest_ResponseTypeNotGranted(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	client := testutil.NewTestClient("secret", "http://localhost", "photo:read")
	client.Grants = []string{GrantAuthorizationCode} // no implicit
	if err := store.PutClient(ctx, client); err != nil {
		t.Fatalf("PutClient() error = %v", err)
	}

	req := &storage.AuthorizeRequest{
		ResponseType: "token",
		ClientID:     client.ID,
		RedirectURI:  "http://localhost",
	}
	_, err := srv.ValidateAuthorizeRequest(ctx, req)
	oautherr, ok := AsError(err)
	if !ok || oautherr.Code != ErrorCodeUnsupportedResponseType {
		t.Errorf("error = %v, want unsupported_response_type", err)
	}
}

func TestValidateScope(t *testing.T) {
	client := testutil.NewTestClient("secret", "http://localhost", "photo:read", "photo:write")

	tests := []struct {
		scope   string
		wantErr bool
	}{
		{scope: "", wantErr: false},
		{scope: "photo:read", wantErr: false},
		{scope: "photo:read photo:write", wantErr: false},
		{scope: "profile", wantErr: true},
		{scope: "photo:read profile", wantErr: true},
	}
	for _, tt := range tests {
		t.Run("scope="+tt.scope, func(t *testing.T) {
			err := validateScope(client, tt.scope)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateScope(%q) error = %v, wantErr %v", tt.scope, err, tt.wantErr)
			}
		})
	}
}

func TestValidateVerifier(t *testing.T) {
	tests := []struct {
		name     string
		verifier string
		wantErr  bool
	}{
		{name: "valid", verifier: strings.Repeat("a", 43), wantErr: false},
		{name: "too short", verifier: strings.Repeat("a", 42), wantErr: true},
		{name: "too long", verifier: strings.Repeat("a", 129), wantErr: true},
		{name: "bad characters", verifier: strings.Repeat("a", 42) + "!", wantErr: true},
		{name: "unreserved punctuation ok", verifier: strings.Repeat("a", 40) + "-._", wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateVerifier(tt.verifier)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateVerifier() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// Clock injection sanity: the server and store share one mock clock.
func TestServer_SharedClock(t *testing.T) {
	srv, _, clock := newTestServer(t)
	before := clock.Now()
	clock.Advance(time.Hour)
	if !srv.now().Equal(before.Add(time.Hour)) {
		t.Error("server clock did not advance with the mock")
	}
}
