package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get operations when no record exists, and by
// token and code lookups when the record has expired. Callers must not
// distinguish "never existed" from "expired" when talking to clients.
var ErrNotFound = errors.New("storage: not found")

// UserStore persists resource owners.
type UserStore interface {
	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByLogin retrieves a user by login name.
	GetUserByLogin(ctx context.Context, login string) (*User, error)

	// PutUser saves a user, replacing any existing record with the same ID.
	PutUser(ctx context.Context, user *User) error

	// DeleteUser removes a user. Deleting a missing user is not an error.
	DeleteUser(ctx context.Context, id string) error
}

// ClientStore persists registered OAuth clients.
type ClientStore interface {
	GetClient(ctx context.Context, id string) (*Client, error)
	PutClient(ctx context.Context, client *Client) error
	DeleteClient(ctx context.Context, id string) error
}

// AuthCodeStore persists authorization codes. Expired codes are absent.
type AuthCodeStore interface {
	GetAuthCode(ctx context.Context, code string) (*AuthCode, error)
	PutAuthCode(ctx context.Context, code *AuthCode) error
	DeleteAuthCode(ctx context.Context, code string) error

	// ConsumeAuthCode atomically retrieves and deletes a code. Of any number
	// of concurrent calls for the same code, at most one succeeds; the rest
	// receive ErrNotFound. This is the redemption path for the single-use
	// guarantee.
	ConsumeAuthCode(ctx context.Context, code string) (*AuthCode, error)
}

// AccessTokenStore persists access tokens, indexed by secret. Expired
// tokens are absent.
type AccessTokenStore interface {
	GetAccessToken(ctx context.Context, secret string) (*AccessToken, error)
	PutAccessToken(ctx context.Context, token *AccessToken) error
	DeleteAccessToken(ctx context.Context, secret string) error

	// RevokeAccessTokens deletes all access tokens minted for the client,
	// scoped to a single user when userID is non-empty.
	RevokeAccessTokens(ctx context.Context, clientID, userID string) error
}

// RefreshTokenStore persists refresh tokens, indexed by secret.
type RefreshTokenStore interface {
	GetRefreshToken(ctx context.Context, secret string) (*RefreshToken, error)
	PutRefreshToken(ctx context.Context, token *RefreshToken) error
	DeleteRefreshToken(ctx context.Context, secret string) error

	// RevokeRefreshTokens deletes all refresh tokens minted for the client,
	// scoped to a single user when userID is non-empty.
	RevokeRefreshTokens(ctx context.Context, clientID, userID string) error
}

// SessionStore persists browser sessions. Expired sessions are absent.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*Session, error)
	PutSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, id string) error
}

// Store aggregates every store interface. Backends implement all of them
// on a single type so one value can be wired everywhere.
type Store interface {
	UserStore
	ClientStore
	AuthCodeStore
	AccessTokenStore
	RefreshTokenStore
	SessionStore
}
