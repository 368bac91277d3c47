package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/domain"
)

func TestNewPublicUserOmitsHash(t *testing.T) {
	u := &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "$2a$secret"}

	raw, err := json.Marshal(NewPublicUser(u))
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":"u1","name":"Ada","email":"ada@example.com"}`, string(raw))
}

func TestAuthTokenResponseShape(t *testing.T) {
	exp := time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC)
	pair := &domain.AuthToken{
		AccessToken:  domain.TokenView{Value: "a", ExpiresAt: &exp},
		RefreshToken: domain.TokenView{Value: "r"},
	}

	raw, err := json.Marshal(NewAuthTokenResponse(pair))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"accessToken": {"token": "a", "expired": "2024-03-01T12:05:00Z"},
		"refreshToken": {"token": "r"}
	}`, string(raw))
}
