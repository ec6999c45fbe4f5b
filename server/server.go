package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/openclave/authd/security"
	"github.com/openclave/authd/storage"
)

// Grant types understood by the token endpoint.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantImplicit          = "implicit"
	GrantPassword          = "password"
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

// Response types understood by the authorization endpoint.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// Stores bundles the storage dependencies injected into the Server.
type Stores struct {
	Users         storage.UserStore
	Clients       storage.ClientStore
	AuthCodes     storage.AuthCodeStore
	AccessTokens  storage.AccessTokenStore
	RefreshTokens storage.RefreshTokenStore
	Sessions      storage.SessionStore
}

// Server drives the OAuth 2.0 grant flows against the injected stores.
type Server struct {
	stores  Stores
	hasher  security.Hasher
	auditor *security.Auditor
	logger  *slog.Logger
	config  *Config
	now     security.Clock
}

// Option configures optional Server behavior.
type Option func(*Server)

// WithClock sets the time source. Tests use this to drive expiry.
func WithClock(now security.Clock) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithAuditor enables security audit logging.
func WithAuditor(auditor *security.Auditor) Option {
	return func(s *Server) {
		s.auditor = auditor
	}
}

// New creates a Server. Every store is required; config and logger fall
// back to defaults.
func New(stores Stores, config *Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if stores.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if stores.Clients == nil {
		return nil, fmt.Errorf("client store is required")
	}
	if stores.AuthCodes == nil {
		return nil, fmt.Errorf("auth code store is required")
	}
	if stores.AccessTokens == nil {
		return nil, fmt.Errorf("access token store is required")
	}
	if stores.RefreshTokens == nil {
		return nil, fmt.Errorf("refresh token store is required")
	}
	if stores.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	config = applyDefaults(config)

	hasher, err := security.NewHasher(config.PasswordKDF)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		stores: stores,
		hasher: hasher,
		logger: logger,
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv, nil
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Hasher returns the configured password hasher.
func (s *Server) Hasher() security.Hasher {
	return s.hasher
}

// NewSession mints and persists a fresh browser session with a CSRF token.
func (s *Server) NewSession(ctx context.Context) (*storage.Session, error) {
	now := s.now()
	session := &storage.Session{
		ID:        uuid.NewString(),
		CSRFToken: newSecret(),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(s.config.SessionTTL) * time.Second),
	}
	if err := s.stores.Sessions.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return session, nil
}

// Session retrieves a session by ID; expired sessions are absent.
func (s *Server) Session(ctx context.Context, id string) (*storage.Session, error) {
	return s.stores.Sessions.GetSession(ctx, id)
}

// RevokeClientTokens deletes all access and refresh tokens minted for the
// client, scoped to a single user when userID is non-empty. In-flight
// requests still fail closed: validation re-checks enabled flags on every
// request.
func (s *Server) RevokeClientTokens(ctx context.Context, clientID, userID string) error {
	if err := s.stores.AccessTokens.RevokeAccessTokens(ctx, clientID, userID); err != nil {
		return fmt.Errorf("revoking access tokens: %w", err)
	}
	if err := s.stores.RefreshTokens.RevokeRefreshTokens(ctx, clientID, userID); err != nil {
		return fmt.Errorf("revoking refresh tokens: %w", err)
	}
	return nil
}

// newSecret generates an opaque URL-safe credential with 256 bits of
// entropy, via oauth2.GenerateVerifier (crypto/rand underneath). Used for
// codes, tokens, client secrets and CSRF tokens alike.
func newSecret() string {
	return oauth2.GenerateVerifier()
}

// NewSecret generates an opaque credential for callers outside the
// package, such as client provisioning.
func NewSecret() string {
	return newSecret()
}

// safeTruncate truncates a string for logging without panicking on short
// input.
func safeTruncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
