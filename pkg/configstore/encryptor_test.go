package configstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var encryptorKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewAESEncryptorRejectsBadKeyLength(t *testing.T) {
	for _, size := range []int{0, 16, 24, 31, 33} {
		_, err := NewAESEncryptor(make([]byte, size))
		assert.Error(t, err, "key of %d bytes must be rejected", size)
	}
}

func TestAESEncryptorRoundTrip(t *testing.T) {
	enc, err := NewAESEncryptor(encryptorKey)
	require.NoError(t, err)

	tests := []string{"", "secret", "with\nnewlines\r", "unicode: ü"}
	for _, plaintext := range tests {
		ciphertext, err := enc.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ciphertext)

		got, err := enc.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestAESEncryptorNonDeterministic(t *testing.T) {
	enc, err := NewAESEncryptor(encryptorKey)
	require.NoError(t, err)

	a, err := enc.Encrypt("secret")
	require.NoError(t, err)
	b, err := enc.Encrypt("secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "each encryption uses a fresh nonce")
}

func TestAESEncryptorDecryptFailures(t *testing.T) {
	enc, err := NewAESEncryptor(encryptorKey)
	require.NoError(t, err)

	t.Run("not base64", func(t *testing.T) {
		_, err := enc.Decrypt("%%%not-base64%%%")
		assert.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := enc.Decrypt("aGk=")
		assert.Error(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewAESEncryptor([]byte("ffffffffffffffffffffffffffffffff"))
		require.NoError(t, err)
		ciphertext, err := other.Encrypt("secret")
		require.NoError(t, err)

		_, err = enc.Decrypt(ciphertext)
		assert.Error(t, err)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		ciphertext, err := enc.Encrypt("secret")
		require.NoError(t, err)
		tampered := "A" + ciphertext[1:]
		if tampered == ciphertext {
			tampered = "B" + ciphertext[1:]
		}
		_, err = enc.Decrypt(tampered)
		assert.Error(t, err)
	})
}
