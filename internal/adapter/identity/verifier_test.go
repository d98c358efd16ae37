package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("secret", "https://auth.example.com", "authenticated")
	token, err := v.Issue("user-1", "a@example.com", time.Hour)
	require.NoError(t, err)

	id, err := v.VerifyHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.ID)
	assert.Equal(t, "a@example.com", id.Email)
}

func TestVerifyFailures(t *testing.T) {
	v := NewVerifier("secret", "", "authenticated")

	expired, err := v.Issue("user-1", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	other, err := NewVerifier("other-secret", "", "authenticated").Issue("user-1", "", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongAudience, err := NewVerifier("secret", "", "anon").Issue("user-1", "", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(wrongAudience)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := v.Issue("", "", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = BearerToken("Basic abc")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = BearerToken("Bearer ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
