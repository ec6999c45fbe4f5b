// Package security provides the security primitives shared across the
// authorization server: password hashing, per-identifier rate limiting,
// client IP extraction, token expiry checks, security response headers,
// and audit logging with PII protection.
package security
