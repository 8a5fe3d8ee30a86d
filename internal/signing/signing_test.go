package signing

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntity(t *testing.T, passphrase string) (*openpgp.Entity, []byte) {
	t.Helper()

	e, err := openpgp.NewEntity("Ada", "", "ada@example.com", nil)
	require.NoError(t, err)
	if passphrase != "" {
		require.NoError(t, e.EncryptPrivateKeys([]byte(passphrase), nil))
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, e.SerializePrivateWithoutSigning(w, nil))
	require.NoError(t, w.Close())

	return e, buf.Bytes()
}

func verify(t *testing.T, e *openpgp.Entity, payload, sig []byte) {
	t.Helper()
	signer, err := openpgp.CheckArmoredDetachedSignature(
		openpgp.EntityList{e}, bytes.NewReader(payload), bytes.NewReader(sig), nil)
	require.NoError(t, err)
	assert.Equal(t, e.PrimaryKey.KeyId, signer.PrimaryKey.KeyId)
}

func TestKeyring_Sign(t *testing.T) {
	e, armored := newEntity(t, "")
	k, err := Parse(armored)
	require.NoError(t, err)

	payload := []byte("tree abc\n\ncommit message\n")

	ids := map[string]string{
		"long id":  e.PrimaryKey.KeyIdString(),
		"short id": e.PrimaryKey.KeyIdShortString(),
		"lower 0x": "0x" + strings.ToLower(e.PrimaryKey.KeyIdString()),
		"email":    "ADA@example.com",
	}
	for name, id := range ids {
		t.Run(name, func(t *testing.T) {
			sig, err := k.Sign(payload, id, "")
			require.NoError(t, err)
			assert.Contains(t, string(sig), "BEGIN PGP SIGNATURE")
			verify(t, e, payload, sig)
		})
	}
}

func TestKeyring_SignUnknownKey(t *testing.T) {
	_, armored := newEntity(t, "")
	k, err := Parse(armored)
	require.NoError(t, err)

	_, err = k.Sign([]byte("x"), "DEADBEEFDEADBEEF", "")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = k.Sign([]byte("x"), "", "")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyring_EncryptedKey(t *testing.T) {
	e, armored := newEntity(t, "hunter2")
	path := filepath.Join(t.TempDir(), "keyring.asc")
	require.NoError(t, os.WriteFile(path, armored, 0o600))

	t.Run("missing passphrase", func(t *testing.T) {
		k, err := Load(path)
		require.NoError(t, err)
		_, err = k.Sign([]byte("x"), "ada@example.com", "")
		assert.ErrorIs(t, err, ErrPassphraseMissing)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		k, err := Load(path)
		require.NoError(t, err)
		_, err = k.Sign([]byte("x"), "ada@example.com", "nope")
		assert.Error(t, err)
	})

	t.Run("correct passphrase", func(t *testing.T) {
		k, err := Load(path)
		require.NoError(t, err)
		payload := []byte("payload")
		sig, err := k.Sign(payload, "ada@example.com", "hunter2")
		require.NoError(t, err)
		verify(t, e, payload, sig)
	})
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("not a keyring"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.asc"))
	assert.Error(t, err)
}
