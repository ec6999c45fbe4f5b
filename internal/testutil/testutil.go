// Package testutil provides fixtures and helpers shared by the test suites.
package testutil

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/openclave/authd/storage"
)

// MockClock is a controllable time source for deterministic expiry tests.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a clock frozen at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the current mock time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// GenerateRandomString returns a base64url string of the given length.
func GenerateRandomString(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("generating random string: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}

// GeneratePKCEPair returns a valid S256 (challenge, verifier) pair.
func GeneratePKCEPair() (challenge, verifier string) {
	verifier = GenerateRandomString(50)
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return challenge, verifier
}

// BcryptHash hashes a plaintext with a low cost suitable for tests.
func BcryptHash(plaintext string) string {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("hashing password: %v", err))
	}
	return string(out)
}

// NewTestUser creates an enabled user with the given login and password.
func NewTestUser(login, password string) *storage.User {
	return &storage.User{
		ID:           uuid.NewString(),
		Login:        login,
		Email:        login + "@example.com",
		PasswordHash: BcryptHash(password),
		Enabled:      true,
		Roles:        []string{"user"},
		Permissions:  []string{"photo:read"},
		CreatedAt:    time.Now(),
	}
}

// NewTestClient creates an enabled client registered for all grants, with
// the given plaintext secret and redirect URI. An empty secret makes it a
// public client.
func NewTestClient(secret, redirectURI string, scopes ...string) *storage.Client {
	secretHash := ""
	if secret != "" {
		secretHash = BcryptHash(secret)
	}
	return &storage.Client{
		ID:         uuid.NewString(),
		SecretHash: secretHash,
		Info:       "Test Client",
		Homepage:   "https://client.example.com",
		Scopes:     scopes,
		Grants: []string{
			"authorization_code",
			"implicit",
			"password",
			"client_credentials",
			"refresh_token",
		},
		RedirectURIs: []string{redirectURI},
		Enabled:      true,
		CreatedAt:    time.Now(),
	}
}
