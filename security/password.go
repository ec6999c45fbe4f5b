package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// Hasher derives and verifies password hashes using a memory-hard KDF.
// Verification is constant-time on the derived output.
type Hasher interface {
	// Hash derives a self-describing hash string from a plaintext password.
	Hash(password string) (string, error)

	// Verify reports whether the plaintext matches the stored hash.
	Verify(password, hash string) bool
}

// KDF names accepted by NewHasher.
const (
	KDFBcrypt = "bcrypt"
	KDFArgon2 = "argon2"
	KDFScrypt = "scrypt"
)

// NewHasher returns the hasher for the named KDF. An empty name selects
// bcrypt.
func NewHasher(kdf string) (Hasher, error) {
	switch kdf {
	case "", KDFBcrypt:
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	case KDFArgon2:
		return Argon2Hasher{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32}, nil
	case KDFScrypt:
		return ScryptHasher{N: 32768, R: 8, P: 1, KeyLen: 32}, nil
	default:
		return nil, fmt.Errorf("security: unknown password KDF %q", kdf)
	}
}

// BcryptHasher hashes passwords with bcrypt. bcrypt embeds its own salt
// and cost in the hash string and compares in constant time.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("security: bcrypt: %w", err)
	}
	return string(out), nil
}

func (h BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Argon2Hasher hashes passwords with Argon2id. The hash string encodes the
// parameters and salt: $argon2id$t=<t>,m=<m>,p=<p>$<salt>$<key>.
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("security: argon2 salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.Time, h.Memory, h.Threads, h.KeyLen)
	return fmt.Sprintf("$argon2id$t=%d,m=%d,p=%d$%s$%s",
		h.Time, h.Memory, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (h Argon2Hasher) Verify(password, hash string) bool {
	var t, m uint32
	var p uint8
	params, salt, key, ok := splitKDFHash(hash, "$argon2id$")
	if !ok {
		return false
	}
	if _, err := fmt.Sscanf(params, "t=%d,m=%d,p=%d", &t, &m, &p); err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// ScryptHasher hashes passwords with scrypt. The hash string encodes the
// parameters and salt: $scrypt$n=<N>,r=<r>,p=<p>$<salt>$<key>.
type ScryptHasher struct {
	N      int
	R      int
	P      int
	KeyLen int
}

func (h ScryptHasher) Hash(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("security: scrypt salt: %w", err)
	}
	key, err := scrypt.Key([]byte(password), salt, h.N, h.R, h.P, h.KeyLen)
	if err != nil {
		return "", fmt.Errorf("security: scrypt: %w", err)
	}
	return fmt.Sprintf("$scrypt$n=%d,r=%d,p=%d$%s$%s",
		h.N, h.R, h.P,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (h ScryptHasher) Verify(password, hash string) bool {
	var n, r, p int
	params, salt, key, ok := splitKDFHash(hash, "$scrypt$")
	if !ok {
		return false
	}
	if _, err := fmt.Sscanf(params, "n=%d,r=%d,p=%d", &n, &r, &p); err != nil {
		return false
	}
	computed, err := scrypt.Key([]byte(password), salt, n, r, p, len(key))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// splitKDFHash splits "<prefix><params>$<salt>$<key>" into its parts.
func splitKDFHash(hash, prefix string) (params string, salt, key []byte, ok bool) {
	rest, found := strings.CutPrefix(hash, prefix)
	if !found {
		return "", nil, nil, false
	}
	parts := strings.Split(rest, "$")
	if len(parts) != 3 {
		return "", nil, nil, false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, nil, false
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", nil, nil, false
	}
	return parts[0], salt, key, true
}
