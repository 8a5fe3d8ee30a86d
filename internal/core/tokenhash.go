package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Bridge tokens authenticate front ends talking to the local HTTP bridge.
// Only the argon2id hash is kept in the config file.

const (
	tokenPrefix    = "gdk_"
	tokenSecretLen = 40
	saltLen        = 16
)

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}

var defaultParams = argonParams{time: 1, memory: 64 * 1024, threads: 4, keyLen: 32}

var (
	ErrInvalidHash  = errors.New("invalid hash format")
	ErrInvalidToken = errors.New("invalid token format")
	ErrHashMismatch = errors.New("token does not match hash")
)

// NewBridgeToken returns a fresh token and its hash for the config file.
func NewBridgeToken() (token, hash string, err error) {
	secret, err := GenerateTokenSecret(tokenSecretLen)
	if err != nil {
		return "", "", err
	}
	token = tokenPrefix + secret
	hash, err = HashToken(token)
	if err != nil {
		return "", "", err
	}
	return token, hash, nil
}

// ParseToken checks the token shape and returns its secret part.
func ParseToken(token string) (string, error) {
	secret, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok || len(secret) != tokenSecretLen {
		return "", ErrInvalidToken
	}
	if _, err := hex.DecodeString(secret); err != nil {
		return "", ErrInvalidToken
	}
	return secret, nil
}

// HashToken hashes token with argon2id and a random salt, in PHC form:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func HashToken(token string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	p := defaultParams
	key := argon2.IDKey([]byte(token), salt, p.time, p.memory, p.threads, p.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyToken returns nil when token matches encoded, ErrHashMismatch
// when it does not and ErrInvalidHash when encoded is malformed.
func VerifyToken(token, encoded string) error {
	p, salt, want, err := decodeHash(encoded)
	if err != nil {
		return err
	}

	got := argon2.IDKey([]byte(token), salt, p.time, p.memory, p.threads, p.keyLen)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrHashMismatch
	}
	return nil
}

func decodeHash(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrInvalidHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}

// GenerateTokenSecret returns length random hex characters.
func GenerateTokenSecret(length int) (string, error) {
	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}
