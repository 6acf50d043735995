package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasscodeRoundTrip(t *testing.T) {
	hash, err := HashPasscode("open sesame")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, VerifyPasscode(hash, "open sesame"))
	assert.ErrorIs(t, VerifyPasscode(hash, "wrong"), ErrPasscodeMismatch)
}

func TestEmptyPasscodeMeansOpenRoom(t *testing.T) {
	hash, err := HashPasscode("")
	require.NoError(t, err)
	assert.Nil(t, hash)

	assert.NoError(t, VerifyPasscode(nil, ""))
	assert.NoError(t, VerifyPasscode(nil, "anything"))
}
