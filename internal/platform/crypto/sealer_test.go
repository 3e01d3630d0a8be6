package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)
	require.True(t, s.Configured())

	plain := []byte(`{"period":"2025-03"}`)
	sealed, err := s.Seal(plain)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, plain))

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestSealUsesFreshNonce(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("net 3557.50"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff
	_, err = s.Open(sealed)
	assert.Error(t, err)

	_, err = s.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrSealedTooShort)
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	assert.False(t, s.Configured())

	out, err := s.Seal([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), out)
}

func TestKeyEncodings(t *testing.T) {
	raw, _ := hex.DecodeString(testKey)
	for name, key := range map[string]string{
		"hex": testKey,
		"raw": string(raw),
	} {
		s, err := New(key)
		require.NoError(t, err, name)
		assert.True(t, s.Configured(), name)
	}

	_, err := New("too-short")
	assert.Error(t, err)
}

func TestStringHelpers(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)

	sealed, err := s.SealString("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	secret, err := s.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", secret)

	empty, err := s.SealString("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}
