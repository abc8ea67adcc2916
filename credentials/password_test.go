package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	Cost = bcrypt.MinCost
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, IsHashed(hash))
	assert.NotEqual(t, "s3cret", hash)

	rehash, err := Verify(hash, "s3cret")
	require.NoError(t, err)
	assert.False(t, rehash)

	_, err = Verify(hash, "wrong")
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestVerifyLegacyPlaintext(t *testing.T) {
	rehash, err := Verify("letmein", "letmein")
	require.NoError(t, err)
	assert.True(t, rehash)

	_, err = Verify("letmein", "LetMeIn")
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestVerifyEmptyStoredNeverMatches(t *testing.T) {
	_, err := Verify("", "")
	assert.ErrorIs(t, err, ErrMismatch)
}
