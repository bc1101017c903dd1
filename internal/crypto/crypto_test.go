package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	encoded, err := GenerateKey()
	require.NoError(t, err)
	sealer, err := NewSealerFromBase64(encoded)
	require.NoError(t, err)
	return sealer
}

func TestNewSealer(t *testing.T) {
	t.Run("accepts a 32-byte key", func(t *testing.T) {
		sealer, err := NewSealer(make([]byte, KeySize))
		require.NoError(t, err)
		assert.NotNil(t, sealer)
	})

	t.Run("rejects short and long keys", func(t *testing.T) {
		for _, size := range []int{0, 16, 31, 33, 64} {
			sealer, err := NewSealer(make([]byte, size))
			assert.ErrorIs(t, err, ErrInvalidKeySize)
			assert.Nil(t, sealer)
		}
	})
}

func TestNewSealerFromBase64(t *testing.T) {
	t.Run("accepts an encoded 32-byte key", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString(make([]byte, KeySize))
		sealer, err := NewSealerFromBase64(encoded)
		require.NoError(t, err)
		assert.NotNil(t, sealer)
	})

	t.Run("rejects malformed base64", func(t *testing.T) {
		_, err := NewSealerFromBase64("not-valid-base64!!!")
		assert.Error(t, err)
	})

	t.Run("rejects wrong decoded size", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString(make([]byte, 16))
		_, err := NewSealerFromBase64(encoded)
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})
}

func TestSealOpen(t *testing.T) {
	sealer := newTestSealer(t)

	t.Run("round-trips a token", func(t *testing.T) {
		token := "9|aBcDeFgHiJkLmNoPqRsTuVwXyZ0123456789"
		sealed, err := sealer.Seal(token)
		require.NoError(t, err)
		assert.NotEqual(t, token, sealed)

		opened, err := sealer.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, token, opened)
	})

	t.Run("empty string passes through", func(t *testing.T) {
		sealed, err := sealer.Seal("")
		require.NoError(t, err)
		assert.Empty(t, sealed)

		opened, err := sealer.Open("")
		require.NoError(t, err)
		assert.Empty(t, opened)
	})

	t.Run("same plaintext seals differently each time", func(t *testing.T) {
		first, err := sealer.Seal("token")
		require.NoError(t, err)
		second, err := sealer.Seal("token")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestOpenErrors(t *testing.T) {
	sealer := newTestSealer(t)

	t.Run("malformed base64", func(t *testing.T) {
		_, err := sealer.Open("not-valid-base64!!!")
		assert.Error(t, err)
	})

	t.Run("payload shorter than the nonce", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("short"))
		_, err := sealer.Open(short)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("tampered payload", func(t *testing.T) {
		sealed, err := sealer.Seal("secret")
		require.NoError(t, err)

		raw, _ := base64.StdEncoding.DecodeString(sealed)
		raw[len(raw)-1] ^= 0xFF
		_, err = sealer.Open(base64.StdEncoding.EncodeToString(raw))
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("wrong key", func(t *testing.T) {
		sealed, err := sealer.Seal("secret")
		require.NoError(t, err)

		other := newTestSealer(t)
		_, err = other.Open(sealed)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestGenerateKey(t *testing.T) {
	first, err := GenerateKey()
	require.NoError(t, err)
	second, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	decoded, err := base64.StdEncoding.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, decoded, KeySize)
}
