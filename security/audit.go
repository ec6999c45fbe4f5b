package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor logs security-relevant events. User identifiers are hashed
// before they reach the log stream.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a security auditor.
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{logger: logger, enabled: enabled}
}

// Event is a security audit event.
type Event struct {
	Type      string
	UserID    string
	ClientID  string
	IPAddress string
	Details   map[string]any
	Timestamp time.Time
}

// Audit event types.
const (
	EventAuthFailure       = "auth_failure"
	EventLoginSucceeded    = "login_succeeded"
	EventTokenIssued       = "token_issued"
	EventTokenRejected     = "token_rejected"
	EventConsentRefused    = "consent_refused"
	EventRateLimitExceeded = "rate_limit_exceeded"
)

// LogEvent logs an event with hashed PII.
func (a *Auditor) LogEvent(event Event) {
	if !a.enabled {
		return
	}

	event.Timestamp = time.Now()
	a.logger.Info("security_audit",
		"event_type", event.Type,
		"user_id_hash", hashForLogging(event.UserID),
		"client_id", event.ClientID,
		"ip_address", event.IPAddress,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogAuthFailure logs a failed authentication attempt.
func (a *Auditor) LogAuthFailure(userID, clientID, ipAddress, reason string) {
	a.LogEvent(Event{
		Type:      EventAuthFailure,
		UserID:    userID,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details:   map[string]any{"reason": reason},
	})
}

// LogLogin logs a successful resource-owner login.
func (a *Auditor) LogLogin(userID, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventLoginSucceeded,
		UserID:    userID,
		IPAddress: ipAddress,
	})
}

// LogTokenIssued logs a minted token.
func (a *Auditor) LogTokenIssued(userID, clientID, grantType, scope string) {
	a.LogEvent(Event{
		Type:     EventTokenIssued,
		UserID:   userID,
		ClientID: clientID,
		Details:  map[string]any{"grant_type": grantType, "scope": scope},
	})
}

// LogTokenRejected logs a bearer token rejected at validation time.
func (a *Auditor) LogTokenRejected(clientID, reason string) {
	a.LogEvent(Event{
		Type:     EventTokenRejected,
		ClientID: clientID,
		Details:  map[string]any{"reason": reason},
	})
}

// LogRateLimitExceeded logs a rate limit violation.
func (a *Auditor) LogRateLimitExceeded(ipAddress, userID string) {
	a.LogEvent(Event{
		Type:      EventRateLimitExceeded,
		UserID:    userID,
		IPAddress: ipAddress,
	})
}

// hashForLogging hashes sensitive data so logs can be correlated without
// exposing the identifier itself.
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
