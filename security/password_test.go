package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testHashers(t *testing.T) map[string]Hasher {
	t.Helper()
	// Cheap parameters keep the suite fast; production uses the defaults
	// from NewHasher.
	return map[string]Hasher{
		KDFBcrypt: BcryptHasher{Cost: bcrypt.MinCost},
		KDFArgon2: Argon2Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32},
		KDFScrypt: ScryptHasher{N: 1024, R: 8, P: 1, KeyLen: 32},
	}
}

func TestHasher_RoundTrip(t *testing.T) {
	for name, hasher := range testHashers(t) {
		t.Run(name, func(t *testing.T) {
			hash, err := hasher.Hash("correct horse battery staple")
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if !hasher.Verify("correct horse battery staple", hash) {
				t.Error("Verify() = false for the right password")
			}
			if hasher.Verify("wrong password", hash) {
				t.Error("Verify() = true for the wrong password")
			}
			if hasher.Verify("correct horse battery staple", "garbage") {
				t.Error("Verify() = true for a garbage hash")
			}
		})
	}
}

func TestHasher_SaltsDiffer(t *testing.T) {
	for name, hasher := range testHashers(t) {
		t.Run(name, func(t *testing.T) {
			first, err := hasher.Hash("pass")
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			second, err := hasher.Hash("pass")
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if first == second {
				t.Error("two hashes of the same password are identical; salt is not random")
			}
		})
	}
}

func TestArgon2Hasher_HashFormat(t *testing.T) {
	hasher := Argon2Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}
	hash, err := hasher.Hash("pass")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$t=1,m=8192,p=1$") {
		t.Errorf("hash %q does not encode its parameters", hash)
	}
}

func TestNewHasher(t *testing.T) {
	tests := []struct {
		kdf     string
		wantErr bool
	}{
		{kdf: "", wantErr: false},
		{kdf: KDFBcrypt, wantErr: false},
		{kdf: KDFArgon2, wantErr: false},
		{kdf: KDFScrypt, wantErr: false},
		{kdf: "md5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run("kdf="+tt.kdf, func(t *testing.T) {
			_, err := NewHasher(tt.kdf)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewHasher(%q) error = %v, wantErr %v", tt.kdf, err, tt.wantErr)
			}
		})
	}
}

func TestHasher_CrossKDFVerifyFails(t *testing.T) {
	bcryptHash, err := (BcryptHasher{Cost: bcrypt.MinCost}).Hash("pass")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	scryptHasher := ScryptHasher{N: 1024, R: 8, P: 1, KeyLen: 32}
	if scryptHasher.Verify("pass", bcryptHash) {
		t.Error("scrypt Verify() accepted a bcrypt hash")
	}
}
