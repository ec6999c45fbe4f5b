package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclave/authd/security"
	"github.com/openclave/authd/storage"
)

// Store is a PostgreSQL-backed implementation of every storage interface.
type Store struct {
	pool *pgxpool.Pool
	now  security.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for expiry predicates.
func WithClock(now security.Clock) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store on an existing connection pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a connection pool for connString and returns a store on it.
func Connect(ctx context.Context, connString string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return New(pool, opts...), nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Setup creates the schema if it does not exist.
func (s *Store) Setup(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("postgres: creating schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	login         TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	enabled       BOOLEAN NOT NULL DEFAULT TRUE,
	roles         TEXT[] NOT NULL DEFAULT '{}',
	permissions   TEXT[] NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
	id            TEXT PRIMARY KEY,
	secret_hash   TEXT NOT NULL DEFAULT '',
	info          TEXT NOT NULL DEFAULT '',
	homepage      TEXT NOT NULL DEFAULT '',
	approved      BOOLEAN NOT NULL DEFAULT FALSE,
	scopes        TEXT[] NOT NULL DEFAULT '{}',
	grants        TEXT[] NOT NULL DEFAULT '{}',
	redirect_uris TEXT[] NOT NULL DEFAULT '{}',
	enabled       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_codes (
	code                  TEXT PRIMARY KEY,
	client_id             TEXT NOT NULL,
	user_id               TEXT NOT NULL,
	scope                 TEXT NOT NULL DEFAULT '',
	redirect_uri          TEXT NOT NULL DEFAULT '',
	code_challenge        TEXT NOT NULL DEFAULT '',
	code_challenge_method TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL,
	expires_at            TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS access_tokens (
	secret     TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	user_id    TEXT NOT NULL DEFAULT '',
	scope      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS access_tokens_client_user ON access_tokens (client_id, user_id);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	secret     TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	user_id    TEXT NOT NULL DEFAULT '',
	scope      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS refresh_tokens_client_user ON refresh_tokens (client_id, user_id);

CREATE TABLE IF NOT EXISTS sessions (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL DEFAULT '',
	csrf_token        TEXT NOT NULL DEFAULT '',
	pending_authorize JSONB,
	created_at        TIMESTAMPTZ NOT NULL,
	expires_at        TIMESTAMPTZ NOT NULL
);
`

// ============================================================
// UserStore
// ============================================================

const userColumns = "id, login, email, password_hash, enabled, roles, permissions, created_at"

func (s *Store) GetUser(ctx context.Context, id string) (*storage.User, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*storage.User, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE login = $1", login)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*storage.User, error) {
	var u storage.User
	err := row.Scan(&u.ID, &u.Login, &u.Email, &u.PasswordHash, &u.Enabled, &u.Roles, &u.Permissions, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scanning user: %w", err)
	}
	return &u, nil
}

func (s *Store) PutUser(ctx context.Context, user *storage.User) error {
	if user == nil || user.ID == "" || user.Login == "" {
		return fmt.Errorf("postgres: invalid user")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			login = EXCLUDED.login,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			enabled = EXCLUDED.enabled,
			roles = EXCLUDED.roles,
			permissions = EXCLUDED.permissions`,
		user.ID, user.Login, user.Email, user.PasswordHash, user.Enabled,
		user.Roles, user.Permissions, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: saving user: %w", err)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: deleting user: %w", err)
	}
	return nil
}

// ============================================================
// ClientStore
// ============================================================

const clientColumns = "id, secret_hash, info, homepage, approved, scopes, grants, redirect_uris, enabled, created_at"

func (s *Store) GetClient(ctx context.Context, id string) (*storage.Client, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = $1", id)
	var c storage.Client
	err := row.Scan(&c.ID, &c.SecretHash, &c.Info, &c.Homepage, &c.Approved,
		&c.Scopes, &c.Grants, &c.RedirectURIs, &c.Enabled, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scanning client: %w", err)
	}
	return &c, nil
}

func (s *Store) PutClient(ctx context.Context, client *storage.Client) error {
	if client == nil || client.ID == "" {
		return fmt.Errorf("postgres: invalid client")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			secret_hash = EXCLUDED.secret_hash,
			info = EXCLUDED.info,
			homepage = EXCLUDED.homepage,
			approved = EXCLUDED.approved,
			scopes = EXCLUDED.scopes,
			grants = EXCLUDED.grants,
			redirect_uris = EXCLUDED.redirect_uris,
			enabled = EXCLUDED.enabled`,
		client.ID, client.SecretHash, client.Info, client.Homepage, client.Approved,
		client.Scopes, client.Grants, client.RedirectURIs, client.Enabled, client.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: saving client: %w", err)
	}
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: deleting client: %w", err)
	}
	return nil
}

// ============================================================
// AuthCodeStore
// ============================================================

const authCodeColumns = "code, client_id, user_id, scope, redirect_uri, code_challenge, code_challenge_method, created_at, expires_at"

func (s *Store) GetAuthCode(ctx context.Context, code string) (*storage.AuthCode, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+authCodeColumns+" FROM auth_codes WHERE code = $1 AND expires_at > $2",
		code, s.now())
	return scanAuthCode(row)
}

func (s *Store) PutAuthCode(ctx context.Context, code *storage.AuthCode) error {
	if code == nil || code.Code == "" {
		return fmt.Errorf("postgres: invalid authorization code")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_codes (`+authCodeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO NOTHING`,
		code.Code, code.ClientID, code.UserID, code.Scope, code.RedirectURI,
		code.CodeChallenge, code.CodeChallengeMethod, code.CreatedAt, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("postgres: saving authorization code: %w", err)
	}
	return nil
}

func (s *Store) DeleteAuthCode(ctx context.Context, code string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM auth_codes WHERE code = $1", code)
	if err != nil {
		return fmt.Errorf("postgres: deleting authorization code: %w", err)
	}
	return nil
}

// ConsumeAuthCode relies on DELETE ... RETURNING: the row disappears in
// the same statement that reads it, so only one concurrent caller wins.
func (s *Store) ConsumeAuthCode(ctx context.Context, code string) (*storage.AuthCode, error) {
	row := s.pool.QueryRow(ctx,
		"DELETE FROM auth_codes WHERE code = $1 AND expires_at > $2 RETURNING "+authCodeColumns,
		code, s.now())
	return scanAuthCode(row)
}

func scanAuthCode(row pgx.Row) (*storage.AuthCode, error) {
	var c storage.AuthCode
	err := row.Scan(&c.Code, &c.ClientID, &c.UserID, &c.Scope, &c.RedirectURI,
		&c.CodeChallenge, &c.CodeChallengeMethod, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scanning authorization code: %w", err)
	}
	return &c, nil
}

// ============================================================
// AccessTokenStore
// ============================================================

func (s *Store) GetAccessToken(ctx context.Context, secret string) (*storage.AccessToken, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT secret, client_id, user_id, scope, created_at, expires_at
		FROM access_tokens WHERE secret = $1 AND expires_at > $2`,
		secret, s.now())
	var t storage.AccessToken
	err := row.Scan(&t.Secret, &t.ClientID, &t.UserID, &t.Scope, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scanning access token: %w", err)
	}
	return &t, nil
}

func (s *Store) PutAccessToken(ctx context.Context, token *storage.AccessToken) error {
	if token == nil || token.Secret == "" {
		return fmt.Errorf("postgres: invalid access token")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO access_tokens (secret, client_id, user_id, scope, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (secret) DO NOTHING`,
		token.Secret, token.ClientID, token.UserID, token.Scope, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("postgres: saving access token: %w", err)
	}
	return nil
}

func (s *Store) DeleteAccessToken(ctx context.Context, secret string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM access_tokens WHERE secret = $1", secret)
	if err != nil {
		return fmt.Errorf("postgres: deleting access token: %w", err)
	}
	return nil
}

func (s *Store) RevokeAccessTokens(ctx context.Context, clientID, userID string) error {
	var err error
	if userID == "" {
		_, err = s.pool.Exec(ctx, "DELETE FROM access_tokens WHERE client_id = $1", clientID)
	} else {
		_, err = s.pool.Exec(ctx, "DELETE FROM access_tokens WHERE client_id = $1 AND user_id = $2", clientID, userID)
	}
	if err != nil {
		return fmt.Errorf("postgres: revoking access tokens: %w", err)
	}
	return nil
}

// ============================================================
// RefreshTokenStore
// ============================================================

func (s *Store) GetRefreshToken(ctx context.Context, secret string) (*storage.RefreshToken, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT secret, client_id, user_id, scope, created_at
		FROM refresh_tokens WHERE secret = $1`, secret)
	var t storage.RefreshToken
	err := row.Scan(&t.Secret, &t.ClientID, &t.UserID, &t.Scope, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scanning refresh token: %w", err)
	}
	return &t, nil
}

func (s *Store) PutRefreshToken(ctx context.Context, token *storage.RefreshToken) error {
	if token == nil || token.Secret == "" {
		return fmt.Errorf("postgres: invalid refresh token")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (secret, client_id, user_id, scope, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (secret) DO NOTHING`,
		token.Secret, token.ClientID, token.UserID, token.Scope, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: saving refresh token: %w", err)
	}
	return nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, secret string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM refresh_tokens WHERE secret = $1", secret)
	if err != nil {
		return fmt.Errorf("postgres: deleting refresh token: %w", err)
	}
	return nil
}

func (s *Store) RevokeRefreshTokens(ctx context.Context, clientID, userID string) error {
	var err error
	if userID == "" {
		_, err = s.pool.Exec(ctx, "DELETE FROM refresh_tokens WHERE client_id = $1", clientID)
	} else {
		_, err = s.pool.Exec(ctx, "DELETE FROM refresh_tokens WHERE client_id = $1 AND user_id = $2", clientID, userID)
	}
	if err != nil {
		return fmt.Errorf("postgres: revoking refresh tokens: %w", err)
	}
	return nil
}

// ============================================================
// SessionStore
// ============================================================

func (s *Store) GetSession(ctx context.Context, id string) (*storage.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, csrf_token, pending_authorize, created_at, expires_at
		FROM sessions WHERE id = $1 AND expires_at > $2`, id, s.now())
	var sess storage.Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.CSRFToken, &sess.PendingAuthorize, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scanning session: %w", err)
	}
	return &sess, nil
}

func (s *Store) PutSession(ctx context.Context, session *storage.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("postgres: invalid session")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, csrf_token, pending_authorize, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			csrf_token = EXCLUDED.csrf_token,
			pending_authorize = EXCLUDED.pending_authorize,
			expires_at = EXCLUDED.expires_at`,
		session.ID, session.UserID, session.CSRFToken, session.PendingAuthorize,
		session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("postgres: saving session: %w", err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: deleting session: %w", err)
	}
	return nil
}

// Cleanup deletes expired codes, tokens and sessions. Deployments run this
// periodically; correctness does not depend on it since every lookup
// filters on expiry.
func (s *Store) Cleanup(ctx context.Context) error {
	now := s.now()
	if _, err := s.pool.Exec(ctx, "DELETE FROM auth_codes WHERE expires_at <= $1", now); err != nil {
		return fmt.Errorf("postgres: cleaning up auth codes: %w", err)
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM access_tokens WHERE expires_at <= $1", now); err != nil {
		return fmt.Errorf("postgres: cleaning up access tokens: %w", err)
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= $1", now); err != nil {
		return fmt.Errorf("postgres: cleaning up sessions: %w", err)
	}
	return nil
}
