// Package signing produces OpenPGP commit signatures from an armored
// secret keyring on disk.
package signing

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

var (
	ErrKeyNotFound       = errors.New("signing key not found")
	ErrPassphraseMissing = errors.New("signing key is encrypted and no passphrase was given")
)

// Keyring signs commit payloads with keys from an armored keyring.
type Keyring struct {
	entities openpgp.EntityList
}

// Load reads an armored secret keyring from path.
func Load(path string) (*Keyring, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyring: %w", err)
	}
	return Parse(data)
}

// Parse reads an armored secret keyring.
func Parse(armored []byte) (*Keyring, error) {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(armored))
	if err != nil {
		return nil, fmt.Errorf("parse keyring: %w", err)
	}
	return &Keyring{entities: entities}, nil
}

// Sign returns an armored detached signature over payload, made with the
// key matching keyID. keyID may be a long or short key ID, a fingerprint,
// or an email address of one of the key's identities.
func (k *Keyring) Sign(payload []byte, keyID, passphrase string) ([]byte, error) {
	entity := k.find(keyID)
	if entity == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}

	if err := unlock(entity, passphrase); err != nil {
		return nil, err
	}

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(payload), &packet.Config{}); err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig.Bytes(), nil
}

func (k *Keyring) find(keyID string) *openpgp.Entity {
	want := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(keyID), "0x"))
	if want == "" {
		return nil
	}

	for _, e := range k.entities {
		if e.PrivateKey == nil {
			continue
		}
		pk := e.PrimaryKey
		if pk.KeyIdString() == want || pk.KeyIdShortString() == want ||
			fmt.Sprintf("%X", pk.Fingerprint) == want {
			return e
		}
		for _, ident := range e.Identities {
			if ident.UserId != nil && strings.EqualFold(ident.UserId.Email, keyID) {
				return e
			}
		}
	}
	return nil
}

func unlock(e *openpgp.Entity, passphrase string) error {
	if !e.PrivateKey.Encrypted {
		return nil
	}
	if passphrase == "" {
		return ErrPassphraseMissing
	}
	if err := e.DecryptPrivateKeys([]byte(passphrase)); err != nil {
		return fmt.Errorf("unlock signing key: %w", err)
	}
	return nil
}
