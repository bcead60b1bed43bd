package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	token, err := tokens.Issue(42, "alice")
	require.NoError(t, err)

	userID, err := tokens.Parse(token)
	require.NoError(t, err)
	require.Equal(t, 42, userID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewTokens("secret-a", time.Hour).Issue(42, "alice")
	require.NoError(t, err)

	_, err = NewTokens("secret-b", time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tokens := NewTokens("test-secret", -time.Minute)

	token, err := tokens.Issue(42, "alice")
	require.NoError(t, err)

	_, err = tokens.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewTokens("test-secret", time.Hour).Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
