package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	roomID := uuid.New()
	raw, err := ti.Issue(roomID, "alice")
	require.NoError(t, err)

	claims, err := ti.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, roomID, claims.RoomID)
	assert.Equal(t, "alice", claims.Player)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a, err := NewTokenIssuer([]byte("secret-a"), time.Hour)
	require.NoError(t, err)
	b, err := NewTokenIssuer([]byte("secret-b"), time.Hour)
	require.NoError(t, err)

	raw, err := a.Issue(uuid.New(), "alice")
	require.NoError(t, err)

	_, err = b.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsExpired(t *testing.T) {
	ti, err := NewTokenIssuer([]byte("test-secret"), time.Minute)
	require.NoError(t, err)

	raw, err := ti.Issue(uuid.New(), "alice")
	require.NoError(t, err)

	ti.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = ti.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	ti, err := NewTokenIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := ti.Verify(raw)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", raw)
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer(nil, time.Hour)
	assert.Error(t, err)
}
