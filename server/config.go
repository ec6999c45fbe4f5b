package server

import (
	"github.com/openclave/authd/security"
)

// Config holds the protocol configuration. Zero values are replaced with
// secure defaults by New.
type Config struct {
	// Issuer is the server's base URL, used for security headers (HSTS is
	// sent when it is an https URL).
	Issuer string

	// AuthCodeTTL is how long authorization codes are valid, in seconds.
	// Default: 600 (10 minutes). RFC 6749 recommends at most 10 minutes.
	AuthCodeTTL int64

	// AccessTokenTTL is how long access tokens are valid, in seconds.
	// Default: 3600 (1 hour).
	AccessTokenTTL int64

	// SessionTTL is how long browser sessions are valid, in seconds.
	// Default: 86400 (24 hours).
	SessionTTL int64

	// PasswordKDF selects the password hashing function: "bcrypt"
	// (default), "argon2", or "scrypt".
	PasswordKDF string

	// TrustProxy enables trusting X-Forwarded-For and X-Real-IP headers.
	// Only enable behind a reverse proxy you operate.
	TrustProxy bool

	// TrustedProxyCount is the number of trusted proxies in front of this
	// server, used with TrustProxy. Default: 1.
	TrustedProxyCount int
}

// applyDefaults fills in zero values.
func applyDefaults(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}
	if config.AuthCodeTTL == 0 {
		config.AuthCodeTTL = 600
	}
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = 3600
	}
	if config.SessionTTL == 0 {
		config.SessionTTL = 86400
	}
	if config.PasswordKDF == "" {
		config.PasswordKDF = security.KDFBcrypt
	}
	if config.TrustedProxyCount == 0 {
		config.TrustedProxyCount = 1
	}
	return config
}
