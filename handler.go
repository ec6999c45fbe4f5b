package authd

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openclave/authd/instrumentation"
	"github.com/openclave/authd/security"
	"github.com/openclave/authd/server"
	"github.com/openclave/authd/storage"
)

const (
	sessionCookieName = "authd_session"
	tokenTypeBearer   = "Bearer"
)

// Paths holds the endpoint paths served by the Handler.
type Paths struct {
	Authorize string
	Login     string
	Approve   string
	Refuse    string
	Token     string
	Profile   string
}

// DefaultPaths returns the default endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		Authorize: "/authorize",
		Login:     "/login",
		Approve:   "/approve",
		Refuse:    "/refuse",
		Token:     "/token",
		Profile:   "/users/me",
	}
}

// Handler is the HTTP layer over the protocol core. It owns the browser
// session cookie, CSRF enforcement, content negotiation, and the encoding
// of protocol errors into redirects or JSON bodies.
type Handler struct {
	server      *server.Server
	logger      *slog.Logger
	rateLimiter *security.RateLimiter
	instr       *instrumentation.Instrumentation
	paths       Paths

	loginTmpl   *template.Template
	consentTmpl *template.Template
}

// HandlerOption configures optional Handler behavior.
type HandlerOption func(*Handler)

// WithRateLimiter applies per-IP rate limiting to the login and token
// endpoints.
func WithRateLimiter(rl *security.RateLimiter) HandlerOption {
	return func(h *Handler) {
		h.rateLimiter = rl
	}
}

// WithInstrumentation enables OpenTelemetry metrics and tracing.
func WithInstrumentation(instr *instrumentation.Instrumentation) HandlerOption {
	return func(h *Handler) {
		h.instr = instr
	}
}

// WithPaths overrides the default endpoint paths.
func WithPaths(paths Paths) HandlerOption {
	return func(h *Handler) {
		h.paths = paths
	}
}

// NewHandler creates the HTTP layer over srv.
func NewHandler(srv *server.Server, logger *slog.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		server:      srv,
		logger:      logger,
		paths:       DefaultPaths(),
		loginTmpl:   template.Must(template.New("login").Parse(loginPageTemplate)),
		consentTmpl: template.Must(template.New("consent").Parse(consentPageTemplate)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the OAuth endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc(h.paths.Authorize, h.ServeAuthorize)
	mux.HandleFunc(h.paths.Login, h.ServeLogin)
	mux.HandleFunc(h.paths.Approve, h.ServeApprove)
	mux.HandleFunc(h.paths.Refuse, h.ServeRefuse)
	mux.HandleFunc(h.paths.Token, h.ServeToken)
	mux.Handle(h.paths.Profile, h.Authenticate(http.HandlerFunc(h.ServeProfile)))
}

// ============================================================
// Authorization endpoint
// ============================================================

// ServeAuthorize handles GET /authorize. With query parameters it starts a
// new flow; without any it resumes the request parked in the session,
// which is how the flow re-enters after login.
func (h *Handler) ServeAuthorize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := h.startSpan(r, "oauth.http.authorize")
	defer h.endSpan(span)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := h.session(ctx, w, r, true)
	if err != nil {
		h.writeInternalError(w, "authorize", err)
		return
	}

	var req *storage.AuthorizeRequest
	if r.URL.RawQuery != "" {
		query := r.URL.Query()
		req = &storage.AuthorizeRequest{
			ResponseType:        query.Get("response_type"),
			ClientID:            query.Get("client_id"),
			RedirectURI:         query.Get("redirect_uri"),
			Scope:               query.Get("scope"),
			State:               query.Get("state"),
			CodeChallenge:       query.Get("code_challenge"),
			CodeChallengeMethod: query.Get("code_challenge_method"),
		}
	}

	outcome, err := h.server.Authorize(ctx, session, req)
	if err != nil {
		h.recordHTTP(ctx, "authorize", start, http.StatusBadRequest)
		instrumentation.SetSpanError(span, "authorization rejected")
		h.encodeError(w, r, err)
		return
	}

	switch {
	case outcome.NeedsLogin:
		h.recordHTTP(ctx, "authorize", start, http.StatusFound)
		http.Redirect(w, r, h.paths.Login, http.StatusFound)

	case outcome.NeedsConsent:
		h.recordHTTP(ctx, "authorize", start, http.StatusOK)
		h.renderConsent(w, session, outcome.Client)

	default:
		h.recordHTTP(ctx, "authorize", start, http.StatusFound)
		instrumentation.SetSpanSuccess(span)
		http.Redirect(w, r, outcome.RedirectURL, http.StatusFound)
	}
}

// ============================================================
// Login endpoint
// ============================================================

// ServeLogin handles GET (form) and POST (submission) on /login. The POST
// is CSRF-protected and content-negotiated: XHR callers get JSON, browsers
// get a redirect to the landing URL.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.serveLoginPage(w, r)
	case http.MethodPost:
		h.serveLoginSubmit(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) serveLoginPage(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r.Context(), w, r, true)
	if err != nil {
		h.writeInternalError(w, "login", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = h.loginTmpl.Execute(w, loginPageData{
		Action:    h.paths.Login,
		CSRFToken: session.CSRFToken,
		Error:     r.URL.Query().Get("error"),
	})
	if err != nil {
		h.logger.Error("Failed to render login page", "error", err)
	}
}

func (h *Handler) serveLoginSubmit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := h.startSpan(r, "oauth.http.login")
	defer h.endSpan(span)

	clientIP := security.GetClientIP(r, h.server.Config().TrustProxy, h.server.Config().TrustedProxyCount)
	if h.limited(ctx, w, clientIP, "login") {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	session, err := h.session(ctx, w, r, false)
	if err != nil {
		h.recordHTTP(ctx, "login", start, http.StatusForbidden)
		http.Error(w, "No session", http.StatusForbidden)
		return
	}
	if !h.checkCSRF(session, r.PostFormValue("csrf_token")) {
		h.recordHTTP(ctx, "login", start, http.StatusForbidden)
		instrumentation.SetSpanError(span, "csrf mismatch")
		http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		return
	}

	user, err := h.server.Login(ctx, session, r.PostFormValue("username"), r.PostFormValue("password"), clientIP)
	if err != nil {
		h.recordHTTP(ctx, "login", start, http.StatusUnauthorized)
		h.recordLogin(ctx, false)
		instrumentation.SetSpanError(span, "login failed")
		if isXHR(r) {
			h.writeJSONError(w, ErrorCodeAccessDenied, "invalid login credentials", http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, h.paths.Login+"?error=invalid+credentials", http.StatusFound)
		return
	}

	h.logger.Info("User logged in", "user_id", user.ID, "ip", clientIP)
	h.recordLogin(ctx, true)
	instrumentation.SetSpanSuccess(span)

	// With an authorization request parked, the flow re-enters at the
	// authorize endpoint; otherwise the user lands on the site root.
	landing := "/"
	if session.PendingAuthorize != nil {
		landing = h.paths.Authorize
	}

	if isXHR(r) {
		h.recordHTTP(ctx, "login", start, http.StatusOK)
		h.writeJSON(w, http.StatusOK, LoginResponse{LandingURL: landing})
		return
	}
	h.recordHTTP(ctx, "login", start, http.StatusFound)
	http.Redirect(w, r, landing, http.StatusFound)
}

// ============================================================
// Consent endpoints
// ============================================================

// ServeApprove handles POST /approve: the user consents to the parked
// authorization request. CSRF-protected.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "oauth.http.approve")
	defer h.endSpan(span)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	session, err := h.session(ctx, w, r, false)
	if err != nil {
		http.Error(w, "No session", http.StatusForbidden)
		return
	}
	if !h.checkCSRF(session, r.PostFormValue("csrf_token")) {
		instrumentation.SetSpanError(span, "csrf mismatch")
		http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		return
	}

	redirect, err := h.server.Approve(ctx, session)
	if err != nil {
		h.encodeError(w, r, err)
		return
	}
	instrumentation.SetSpanSuccess(span)
	http.Redirect(w, r, redirect, http.StatusFound)
}

// ServeRefuse handles GET /refuse: the user denies the parked request and
// the client receives an access_denied redirect.
func (h *Handler) ServeRefuse(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "oauth.http.refuse")
	defer h.endSpan(span)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := h.session(ctx, w, r, false)
	if err != nil {
		http.Error(w, "No session", http.StatusForbidden)
		return
	}

	denial, err := h.server.Refuse(ctx, session)
	if err != nil {
		h.encodeError(w, r, err)
		return
	}
	instrumentation.SetSpanSuccess(span)
	h.encodeError(w, r, denial)
}

// ============================================================
// Token endpoint
// ============================================================

// ServeToken handles POST /token. Client credentials arrive via HTTP Basic
// auth or the request body; the response is JSON and never cacheable.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := h.startSpan(r, "oauth.http.token")
	defer h.endSpan(span)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientIP := security.GetClientIP(r, h.server.Config().TrustProxy, h.server.Config().TrustedProxyCount)
	if h.limited(ctx, w, clientIP, "token") {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.writeJSONError(w, ErrorCodeInvalidRequest, "failed to parse request", http.StatusBadRequest)
		return
	}

	req := &server.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		Username:     r.PostFormValue("username"),
		Password:     r.PostFormValue("password"),
		Scope:        r.PostFormValue("scope"),
		RefreshToken: r.PostFormValue("refresh_token"),
	}

	// The exact key matters: a verifier under any other name is a missing
	// verifier, not an empty one.
	if verifier, ok := r.PostForm["code_verifier"]; ok {
		req.CodeVerifierSet = true
		if len(verifier) > 0 {
			req.CodeVerifier = verifier[0]
		}
	}

	req.ClientID, req.ClientSecret = clientCredentials(r)

	grant, err := h.server.Token(ctx, req)
	if err != nil {
		status := http.StatusBadRequest
		if oautherr, ok := server.AsError(err); ok {
			status = oautherr.Status
		}
		h.logger.Warn("Token request rejected",
			"grant_type", req.GrantType,
			"client_id", req.ClientID,
			"ip", clientIP,
			"error", err)
		h.recordHTTP(ctx, "token", start, status)
		instrumentation.SetSpanError(span, "token request rejected")
		h.encodeError(w, r, err)
		return
	}

	h.logger.Info("Token issued",
		"grant_type", req.GrantType,
		"client_id", req.ClientID,
		"ip", clientIP)
	h.recordHTTP(ctx, "token", start, http.StatusOK)
	h.recordTokenIssued(ctx, req.GrantType)
	instrumentation.SetSpanSuccess(span)

	h.writeTokenResponse(w, grant)
}

// clientCredentials extracts the client ID and secret from HTTP Basic auth
// (RFC 6749 §2.3.1: both values are form-urlencoded inside the header) or,
// failing that, from the request body.
func clientCredentials(r *http.Request) (string, string) {
	if id, secret, ok := r.BasicAuth(); ok {
		if decoded, err := url.QueryUnescape(id); err == nil {
			id = decoded
		}
		if decoded, err := url.QueryUnescape(secret); err == nil {
			secret = decoded
		}
		return id, secret
	}
	return r.PostFormValue("client_id"), r.PostFormValue("client_secret")
}

// ============================================================
// Protected resources
// ============================================================

type contextKey int

const grantContextKey contextKey = iota

// Grant is the resolved credential attached to authenticated requests.
// User is nil for client-credentials tokens.
type Grant struct {
	Token *storage.AccessToken
	User  *storage.User
}

// GrantFromContext returns the Grant attached by the Authenticate
// middleware, or nil.
func GrantFromContext(ctx context.Context) *Grant {
	grant, _ := ctx.Value(grantContextKey).(*Grant)
	return grant
}

// Authenticate is the bearer-token middleware for protected resources. It
// resolves the token, re-checks the owning client and user on every
// request, and attaches the Grant to the context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.startSpan(r, "oauth.http.validate_token")
		defer h.endSpan(span)

		secret, ok := bearerToken(r)
		if !ok {
			h.recordTokenValidation(ctx, false)
			w.Header().Set("WWW-Authenticate", tokenTypeBearer)
			h.writeJSONError(w, ErrorCodeInvalidToken, "missing or malformed Authorization header", http.StatusUnauthorized)
			return
		}

		token, user, err := h.server.Authenticate(ctx, secret)
		if err != nil {
			h.recordTokenValidation(ctx, false)
			instrumentation.SetSpanError(span, "token rejected")
			h.writeBearerError(w, err)
			return
		}

		h.recordTokenValidation(ctx, true)
		instrumentation.SetSpanSuccess(span)
		ctx = context.WithValue(ctx, grantContextKey, &Grant{Token: token, User: user})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], tokenTypeBearer) || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ServeProfile returns the profile of the token's owner. Client-credentials
// tokens have no owner; id, login and email are null for them and roles and
// permissions are omitted.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	grant := GrantFromContext(r.Context())
	if grant == nil {
		h.writeJSONError(w, ErrorCodeInvalidToken, "no credential attached to request", http.StatusUnauthorized)
		return
	}

	profile := UserProfile{
		ClientID: grant.Token.ClientID,
		Scope:    grant.Token.Scope,
	}
	if grant.User != nil {
		profile.ID = &grant.User.ID
		profile.Login = &grant.User.Login
		profile.Email = &grant.User.Email
		profile.Roles = grant.User.Roles
		profile.Permissions = grant.User.Permissions
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// ============================================================
// Sessions and CSRF
// ============================================================

// session resolves the browser session from the request cookie. With
// create set, a missing or expired session is replaced by a fresh one and
// the cookie is set on the response.
func (h *Handler) session(ctx context.Context, w http.ResponseWriter, r *http.Request, create bool) (*storage.Session, error) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		session, err := h.server.Session(ctx, cookie.Value)
		if err == nil {
			return session, nil
		}
		if err != storage.ErrNotFound {
			return nil, err
		}
	}

	if !create {
		return nil, storage.ErrNotFound
	}

	session, err := h.server.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// checkCSRF compares the submitted token against the session's in constant
// time.
func (h *Handler) checkCSRF(session *storage.Session, submitted string) bool {
	if submitted == "" || session.CSRFToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(session.CSRFToken)) == 1
}

// isXHR reports whether the login submission came from script rather than
// a browser form.
func isXHR(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// ============================================================
// Error encoding and responses
// ============================================================

// encodeError is the single exit path for protocol errors: a 302 redirect
// carrying error, error_description and state when the error has a
// validated redirect URI, a JSON body otherwise. Anything that is not an
// *Error is an internal failure and becomes a generic 500.
func (h *Handler) encodeError(w http.ResponseWriter, r *http.Request, err error) {
	oautherr, ok := server.AsError(err)
	if !ok {
		h.writeInternalError(w, r.URL.Path, err)
		return
	}

	if oautherr.RedirectURI != "" {
		query := url.Values{}
		query.Set("error", oautherr.Code)
		if oautherr.Description != "" {
			query.Set("error_description", oautherr.Description)
		}
		if oautherr.State != "" {
			query.Set("state", oautherr.State)
		}
		security.SetSecurityHeaders(w, h.server.Config().Issuer)
		http.Redirect(w, r, appendQuery(oautherr.RedirectURI, query), http.StatusFound)
		return
	}

	h.writeJSONError(w, oautherr.Code, oautherr.Description, oautherr.Status)
}

// writeBearerError rejects a protected-resource request. The OAuth bearer
// error rides in the WWW-Authenticate header (RFC 6750 §3); the body
// carries the request-level error.
func (h *Handler) writeBearerError(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf("%s error=%q", tokenTypeBearer, ErrorCodeInvalidToken))

	oautherr, ok := server.AsError(err)
	if !ok {
		h.writeInternalError(w, "protected resource", err)
		return
	}
	h.writeJSONError(w, oautherr.Code, oautherr.Description, oautherr.Status)
}

func (h *Handler) writeInternalError(w http.ResponseWriter, endpoint string, err error) {
	h.logger.Error("Internal error", "endpoint", endpoint, "error", err)
	h.writeJSONError(w, ErrorCodeServerError, "internal server error", http.StatusInternalServerError)
}

func (h *Handler) writeJSONError(w http.ResponseWriter, code, description string, status int) {
	security.SetSecurityHeaders(w, h.server.Config().Issuer)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, ErrorDescription: description})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	security.SetSecurityHeaders(w, h.server.Config().Issuer)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeTokenResponse(w http.ResponseWriter, grant *server.TokenGrant) {
	h.writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  grant.AccessToken,
		TokenType:    grant.TokenType,
		ExpiresIn:    grant.ExpiresIn,
		RefreshToken: grant.RefreshToken,
		Scope:        grant.Scope,
	})
}

// limited applies the per-IP rate limiter. Returns true when the request
// was rejected.
func (h *Handler) limited(ctx context.Context, w http.ResponseWriter, clientIP, endpoint string) bool {
	if h.rateLimiter == nil || h.rateLimiter.Allow(clientIP) {
		return false
	}
	h.logger.Warn("Rate limit exceeded", "ip", clientIP, "endpoint", endpoint)
	h.recordRateLimited(ctx, endpoint)
	w.Header().Set("Retry-After", "60")
	h.writeJSONError(w, ErrorCodeInvalidRequest, "rate limit exceeded, try again later", http.StatusTooManyRequests)
	return true
}

// ============================================================
// Instrumentation plumbing
// ============================================================

func (h *Handler) startSpan(r *http.Request, name string) (context.Context, instrumentation.Span) {
	if h.instr == nil {
		return r.Context(), nil
	}
	return h.instr.StartSpan(r.Context(), name)
}

func (h *Handler) endSpan(span instrumentation.Span) {
	if span != nil {
		span.End()
	}
}

func (h *Handler) recordHTTP(ctx context.Context, endpoint string, start time.Time, status int) {
	if h.instr != nil {
		h.instr.Metrics().RecordHTTPRequest(ctx, endpoint, status, time.Since(start))
	}
}

func (h *Handler) recordTokenIssued(ctx context.Context, grantType string) {
	if h.instr != nil {
		h.instr.Metrics().RecordTokenIssued(ctx, grantType)
	}
}

func (h *Handler) recordLogin(ctx context.Context, success bool) {
	if h.instr != nil {
		h.instr.Metrics().RecordLogin(ctx, success)
	}
}

func (h *Handler) recordTokenValidation(ctx context.Context, valid bool) {
	if h.instr != nil {
		h.instr.Metrics().RecordTokenValidation(ctx, valid)
	}
}

func (h *Handler) recordRateLimited(ctx context.Context, endpoint string) {
	if h.instr != nil {
		h.instr.Metrics().RecordRateLimitExceeded(ctx, endpoint)
	}
}

// appendQuery attaches parameters to a redirect URI, preserving any the
// client registered in it.
func appendQuery(redirectURI string, params url.Values) string {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI + "?" + params.Encode()
	}
	query := parsed.Query()
	for key, values := range params {
		for _, v := range values {
			query.Set(key, v)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// ============================================================
// Pages
// ============================================================

type loginPageData struct {
	Action    string
	CSRFToken string
	Error     string
}

type consentPageData struct {
	ClientInfo string
	Scope      string
	CSRFToken  string
	ApproveURL string
	RefuseURL  string
}

func (h *Handler) renderConsent(w http.ResponseWriter, session *storage.Session, client *storage.Client) {
	scope := ""
	if session.PendingAuthorize != nil {
		scope = session.PendingAuthorize.Scope
	}
	info := client.Info
	if info == "" {
		info = client.ID
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := h.consentTmpl.Execute(w, consentPageData{
		ClientInfo: info,
		Scope:      scope,
		CSRFToken:  session.CSRFToken,
		ApproveURL: h.paths.Approve,
		RefuseURL:  h.paths.Refuse,
	})
	if err != nil {
		h.logger.Error("Failed to render consent page", "error", err)
	}
}

const loginPageTemplate = `<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
<h1>Sign in</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="{{.Action}}">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
<label>Username <input type="text" name="username" autocomplete="username"></label>
<label>Password <input type="password" name="password" autocomplete="current-password"></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`

const consentPageTemplate = `<!DOCTYPE html>
<html>
<head><title>Authorize application</title></head>
<body>
<h1>Authorize {{.ClientInfo}}</h1>
{{if .Scope}}<p>The application requests access to: <code>{{.Scope}}</code></p>{{end}}
<form method="post" action="{{.ApproveURL}}">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
<button type="submit">Approve</button>
</form>
<p><a href="{{.RefuseURL}}">Deny</a></p>
</body>
</html>
`
