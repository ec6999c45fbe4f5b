package storage

import (
	"time"
)

// User is a resource owner. Users authenticate with a login and password;
// the password is stored only as a KDF hash.
type User struct {
	ID           string
	Login        string
	Email        string
	PasswordHash string
	Enabled      bool
	Roles        []string
	Permissions  []string
	CreatedAt    time.Time
}

// Client is a registered OAuth application. The secret is stored only as a
// bcrypt hash; a client with an empty SecretHash is a public client and
// authenticates by ID alone.
type Client struct {
	ID         string
	SecretHash string
	Info       string
	Homepage   string

	// Approved waives the per-user consent step.
	Approved bool

	// Scopes, Grants and RedirectURIs declare what the client may request.
	Scopes       []string
	Grants       []string
	RedirectURIs []string

	Enabled   bool
	CreatedAt time.Time
}

// Public reports whether the client authenticates without a secret.
func (c *Client) Public() bool {
	return c.SecretHash == ""
}

// AllowsGrant reports whether the client is registered for the given grant.
func (c *Client) AllowsGrant(grant string) bool {
	for _, g := range c.Grants {
		if g == grant {
			return true
		}
	}
	return false
}

// AllowsRedirectURI reports whether uri exactly matches a registered
// redirect URI. Exact matching prevents open-redirect attacks.
func (c *Client) AllowsRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// AuthCode is a single-use credential bridging the authorization and token
// endpoints. A code carrying a CodeChallenge may only be redeemed together
// with the matching verifier.
type AuthCode struct {
	Code                string
	ClientID            string
	UserID              string
	Scope               string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

// AccessToken is an opaque bearer credential, indexed by its secret.
// UserID is empty for tokens minted by the client credentials grant.
type AccessToken struct {
	Secret    string
	ClientID  string
	UserID    string
	Scope     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RefreshToken is an opaque credential exchangeable for new access tokens.
// Refresh tokens do not expire; they die with their client or user.
type RefreshToken struct {
	Secret    string
	ClientID  string
	UserID    string
	Scope     string
	CreatedAt time.Time
}

// Session is the browser session the web runtime keys by cookie. The core
// writes UserID on login and parks the validated authorization request in
// PendingAuthorize while the user logs in and approves.
type Session struct {
	ID        string
	UserID    string
	CSRFToken string

	// PendingAuthorize holds the parked authorization request between the
	// authorize, login and consent steps. Nil when no flow is in progress.
	PendingAuthorize *AuthorizeRequest

	CreatedAt time.Time
	ExpiresAt time.Time
}

// AuthorizeRequest is the parsed and validated parameter set of an
// authorization request. It is re-validated when the flow resumes.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}
