package encrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestAESRoundTrip(t *testing.T) {
	sealed, err := AESEncrypt(testKey, "hello")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "/")
	assert.NotContains(t, sealed, "+")

	plain, err := AESDecrypt(testKey, sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello", plain)
}

func TestAESDecryptWrongKey(t *testing.T) {
	sealed, err := AESEncrypt(testKey, "hello")
	require.NoError(t, err)

	_, err = AESDecrypt("fedcba9876543210fedcba9876543210", sealed)
	assert.Error(t, err)
}

func TestShareToken(t *testing.T) {
	tok, err := ShareToken(testKey, 17)
	require.NoError(t, err)

	id, err := ParseShareToken(testKey, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(17), id)
}

func TestParseShareTokenRejectsOtherPayloads(t *testing.T) {
	sealed, err := AESEncrypt(testKey, "17")
	require.NoError(t, err)

	_, err = ParseShareToken(testKey, sealed)
	assert.Error(t, err)

	_, err = ParseShareToken(testKey, "%%%")
	assert.Error(t, err)
}
