package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/domain"
)

func TestIssueAccessToken(t *testing.T) {
	issuer := NewTokenIssuer(5*time.Minute, time.Hour)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tok, err := issuer.IssueAccessToken("user-1", now)
	require.NoError(t, err)

	assert.Equal(t, domain.TokenTypeAccess, tok.Type)
	assert.Equal(t, "user-1", tok.UserID)
	assert.NotEmpty(t, tok.ID)
	assert.Equal(t, now, tok.CreatedAt)
	require.NotNil(t, tok.ExpiresAt)
	assert.Equal(t, now.Add(5*time.Minute), *tok.ExpiresAt)
}

func TestIssueRefreshToken(t *testing.T) {
	issuer := NewTokenIssuer(5*time.Minute, time.Hour)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tok, err := issuer.IssueRefreshToken("user-1", now)
	require.NoError(t, err)

	assert.Equal(t, domain.TokenTypeRefresh, tok.Type)
	require.NotNil(t, tok.ExpiresAt)
	assert.Equal(t, now.Add(time.Hour), *tok.ExpiresAt)
}

func TestOpaqueTokenEncoding(t *testing.T) {
	value, err := NewOpaqueToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(value)
	require.NoError(t, err)
	assert.Len(t, raw, tokenBytes)
}

func TestIssuedTokensAreDistinct(t *testing.T) {
	const n = 10000
	issuer := NewTokenIssuer(5*time.Minute, time.Hour)
	now := time.Now()

	seenValues := make(map[string]struct{}, n)
	seenIDs := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		tok, err := issuer.IssueAccessToken("user-1", now)
		require.NoError(t, err)
		seenValues[tok.Value] = struct{}{}
		seenIDs[tok.ID] = struct{}{}
	}
	assert.Len(t, seenValues, n)
	assert.Len(t, seenIDs, n)
}
