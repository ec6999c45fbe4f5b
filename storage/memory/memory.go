package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openclave/authd/security"
	"github.com/openclave/authd/storage"
)

const defaultCleanupInterval = 1 * time.Minute

// Store is an in-memory implementation of every storage interface. All
// maps are guarded by a single RWMutex; no lock is held while calling out.
type Store struct {
	mu sync.RWMutex

	users        map[string]*storage.User // keyed by ID
	usersByLogin map[string]string        // login -> ID

	clients map[string]*storage.Client

	authCodes     map[string]*storage.AuthCode
	accessTokens  map[string]*storage.AccessToken
	refreshTokens map[string]*storage.RefreshToken
	sessions      map[string]*storage.Session

	now func() time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	logger          *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source. Tests use this to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithCleanupInterval sets how often expired records are purged in the
// background. Zero disables the background loop; expired records are then
// hidden from lookups but stay in memory, except that ConsumeAuthCode
// deletes an expired code it finds.
func WithCleanupInterval(d time.Duration) Option {
	return func(s *Store) {
		s.cleanupInterval = d
	}
}

// WithLogger sets the logger used by the cleanup loop.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an in-memory store and starts its cleanup loop.
func New(opts ...Option) *Store {
	s := &Store{
		users:           make(map[string]*storage.User),
		usersByLogin:    make(map[string]string),
		clients:         make(map[string]*storage.Client),
		authCodes:       make(map[string]*storage.AuthCode),
		accessTokens:    make(map[string]*storage.AccessToken),
		refreshTokens:   make(map[string]*storage.RefreshToken),
		sessions:        make(map[string]*storage.Session),
		now:             time.Now,
		cleanupInterval: defaultCleanupInterval,
		stopCleanup:     make(chan struct{}),
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cleanupInterval > 0 {
		go s.cleanupLoop()
	}
	return s
}

// Stop terminates the background cleanup loop. Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// ============================================================
// UserStore
// ============================================================

func (s *Store) GetUser(ctx context.Context, id string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByLogin[login]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) PutUser(ctx context.Context, user *storage.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("memory: invalid user")
	}
	if user.Login == "" {
		return fmt.Errorf("memory: user login is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A login belongs to at most one user.
	if existingID, ok := s.usersByLogin[user.Login]; ok && existingID != user.ID {
		return fmt.Errorf("memory: login %q already taken", user.Login)
	}
	if prev, ok := s.users[user.ID]; ok && prev.Login != user.Login {
		delete(s.usersByLogin, prev.Login)
	}
	s.users[user.ID] = cloneUser(user)
	s.usersByLogin[user.Login] = user.ID
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[id]; ok {
		delete(s.usersByLogin, user.Login)
		delete(s.users, id)
	}
	return nil
}

// ============================================================
// ClientStore
// ============================================================

func (s *Store) GetClient(ctx context.Context, id string) (*storage.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneClient(client), nil
}

func (s *Store) PutClient(ctx context.Context, client *storage.Client) error {
	if client == nil || client.ID == "" {
		return fmt.Errorf("memory: invalid client")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[client.ID] = cloneClient(client)
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clients, id)
	return nil
}

// ============================================================
// AuthCodeStore
// ============================================================

func (s *Store) GetAuthCode(ctx context.Context, code string) (*storage.AuthCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ac, ok := s.authCodes[code]
	if !ok || s.expired(ac.ExpiresAt) {
		return nil, storage.ErrNotFound
	}
	cp := *ac
	return &cp, nil
}

func (s *Store) PutAuthCode(ctx context.Context, code *storage.AuthCode) error {
	if code == nil || code.Code == "" {
		return fmt.Errorf("memory: invalid authorization code")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *code
	s.authCodes[code.Code] = &cp
	return nil
}

func (s *Store) DeleteAuthCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.authCodes, code)
	return nil
}

// ConsumeAuthCode deletes and returns the code under the write lock, so
// concurrent redemptions of the same code resolve to exactly one winner.
func (s *Store) ConsumeAuthCode(ctx context.Context, code string) (*storage.AuthCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.authCodes[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(s.authCodes, code)
	if s.expired(ac.ExpiresAt) {
		return nil, storage.ErrNotFound
	}
	cp := *ac
	return &cp, nil
}

// ============================================================
// AccessTokenStore
// ============================================================

func (s *Store) GetAccessToken(ctx context.Context, secret string) (*storage.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.accessTokens[secret]
	if !ok || s.expired(token.ExpiresAt) {
		return nil, storage.ErrNotFound
	}
	cp := *token
	return &cp, nil
}

func (s *Store) PutAccessToken(ctx context.Context, token *storage.AccessToken) error {
	if token == nil || token.Secret == "" {
		return fmt.Errorf("memory: invalid access token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *token
	s.accessTokens[token.Secret] = &cp
	return nil
}

func (s *Store) DeleteAccessToken(ctx context.Context, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accessTokens, secret)
	return nil
}

func (s *Store) RevokeAccessTokens(ctx context.Context, clientID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for secret, token := range s.accessTokens {
		if token.ClientID == clientID && (userID == "" || token.UserID == userID) {
			delete(s.accessTokens, secret)
		}
	}
	return nil
}

// ============================================================
// RefreshTokenStore
// ============================================================

func (s *Store) GetRefreshToken(ctx context.Context, secret string) (*storage.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.refreshTokens[secret]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *token
	return &cp, nil
}

func (s *Store) PutRefreshToken(ctx context.Context, token *storage.RefreshToken) error {
	if token == nil || token.Secret == "" {
		return fmt.Errorf("memory: invalid refresh token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *token
	s.refreshTokens[token.Secret] = &cp
	return nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.refreshTokens, secret)
	return nil
}

func (s *Store) RevokeRefreshTokens(ctx context.Context, clientID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for secret, token := range s.refreshTokens {
		if token.ClientID == clientID && (userID == "" || token.UserID == userID) {
			delete(s.refreshTokens, secret)
		}
	}
	return nil
}

// ============================================================
// SessionStore
// ============================================================

func (s *Store) GetSession(ctx context.Context, id string) (*storage.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || s.expired(session.ExpiresAt) {
		return nil, storage.ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *Store) PutSession(ctx context.Context, session *storage.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("memory: invalid session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// ============================================================
// Cleanup
// ============================================================

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var codes, tokens, sessions int
	for code, ac := range s.authCodes {
		if s.expired(ac.ExpiresAt) {
			delete(s.authCodes, code)
			codes++
		}
	}
	for secret, token := range s.accessTokens {
		if s.expired(token.ExpiresAt) {
			delete(s.accessTokens, secret)
			tokens++
		}
	}
	for id, session := range s.sessions {
		if s.expired(session.ExpiresAt) {
			delete(s.sessions, id)
			sessions++
		}
	}

	if codes+tokens+sessions > 0 {
		s.logger.Debug("Purged expired records",
			"auth_codes", codes,
			"access_tokens", tokens,
			"sessions", sessions)
	}
}

// expired reports whether a deadline has passed. Callers must hold at
// least a read lock.
func (s *Store) expired(at time.Time) bool {
	return security.Expired(at, s.now)
}

func cloneUser(u *storage.User) *storage.User {
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	cp.Permissions = append([]string(nil), u.Permissions...)
	return &cp
}

func cloneClient(c *storage.Client) *storage.Client {
	cp := *c
	cp.Scopes = append([]string(nil), c.Scopes...)
	cp.Grants = append([]string(nil), c.Grants...)
	cp.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	return &cp
}

func cloneSession(s *storage.Session) *storage.Session {
	cp := *s
	if s.PendingAuthorize != nil {
		pending := *s.PendingAuthorize
		cp.PendingAuthorize = &pending
	}
	return &cp
}
