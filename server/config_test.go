package server

import (
	"testing"

	"github.com/openclave/authd/security"
)

func TestApplyDefaults(t *testing.T) {
	config := applyDefaults(nil)

	if config.AuthCodeTTL != 600 {
		t.Errorf("AuthCodeTTL = %d, want 600", config.AuthCodeTTL)
	}
	if config.AccessTokenTTL != 3600 {
		t.Errorf("AccessTokenTTL = %d, want 3600", config.AccessTokenTTL)
	}
	if config.SessionTTL != 86400 {
		t.Errorf("SessionTTL = %d, want 86400", config.SessionTTL)
	}
	if config.PasswordKDF != security.KDFBcrypt {
		t.Errorf("PasswordKDF = %q, want bcrypt", config.PasswordKDF)
	}
	if config.TrustedProxyCount != 1 {
		t.Errorf("TrustedProxyCount = %d, want 1", config.TrustedProxyCount)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	config := applyDefaults(&Config{
		AccessTokenTTL: 120,
		PasswordKDF:    security.KDFArgon2,
	})

	if config.AccessTokenTTL != 120 {
		t.Errorf("AccessTokenTTL = %d, want 120", config.AccessTokenTTL)
	}
	if config.PasswordKDF != security.KDFArgon2 {
		t.Errorf("PasswordKDF = %q, want argon2", config.PasswordKDF)
	}
}
