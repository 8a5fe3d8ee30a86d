package core

import (
	"strings"
	"testing"
)

func TestHashToken(t *testing.T) {
	token := "gdk_0123456789abcdef0123456789abcdef01234567"

	hash, err := HashToken(token)
	if err != nil {
		t.Fatalf("HashToken() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("HashToken() hash should start with $argon2id$, got %s", hash)
	}

	hash2, err := HashToken(token)
	if err != nil {
		t.Fatalf("HashToken() second call error = %v", err)
	}
	if hash == hash2 {
		t.Error("HashToken() should produce different hashes due to random salt")
	}
}

func TestNewBridgeToken(t *testing.T) {
	token, hash, err := NewBridgeToken()
	if err != nil {
		t.Fatalf("NewBridgeToken() error = %v", err)
	}

	if _, err := ParseToken(token); err != nil {
		t.Errorf("ParseToken(%q) error = %v", token, err)
	}
	if err := VerifyToken(token, hash); err != nil {
		t.Errorf("VerifyToken() with issued token error = %v", err)
	}
	if err := VerifyToken(token+"x", hash); err != ErrHashMismatch {
		t.Errorf("VerifyToken() with wrong token error = %v, want ErrHashMismatch", err)
	}
}

func TestVerifyToken_InvalidHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not argon2id", "$bcrypt$invalid"},
		{"missing parts", "$argon2id$v=19$m=65536"},
		{"wrong version", "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$a2V5"},
		{"invalid base64", "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$!!!invalid!!!"},
		{"empty key", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := VerifyToken("any-token", tt.hash); err != ErrInvalidHash {
				t.Errorf("VerifyToken() error = %v, want ErrInvalidHash", err)
			}
		})
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		ok    bool
	}{
		{"valid", "gdk_" + strings.Repeat("a1", 20), true},
		{"wrong prefix", "eph_" + strings.Repeat("a1", 20), false},
		{"short", "gdk_abc", false},
		{"not hex", "gdk_" + strings.Repeat("zz", 20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token)
			if tt.ok && err != nil {
				t.Errorf("ParseToken() error = %v", err)
			}
			if !tt.ok && err != ErrInvalidToken {
				t.Errorf("ParseToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestGenerateTokenSecret(t *testing.T) {
	secret1, err := GenerateTokenSecret(24)
	if err != nil {
		t.Fatalf("GenerateTokenSecret() error = %v", err)
	}
	if len(secret1) != 24 {
		t.Errorf("GenerateTokenSecret() length = %d, want 24", len(secret1))
	}

	secret2, err := GenerateTokenSecret(24)
	if err != nil {
		t.Fatalf("GenerateTokenSecret() second call error = %v", err)
	}
	if secret1 == secret2 {
		t.Error("GenerateTokenSecret() should produce different secrets")
	}
}
