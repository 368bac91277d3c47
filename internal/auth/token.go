package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
)

// tokenBytes is the amount of entropy behind each opaque token.
const tokenBytes = 32

// TokenIssuer mints opaque access and refresh tokens.
type TokenIssuer struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer builds an issuer with the given lifetimes.
func NewTokenIssuer(accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL returns the access token lifetime.
func (ti *TokenIssuer) AccessTTL() time.Duration { return ti.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (ti *TokenIssuer) RefreshTTL() time.Duration { return ti.refreshTTL }

// IssueAccessToken builds a short-lived access token for userID.
func (ti *TokenIssuer) IssueAccessToken(userID string, now time.Time) (*domain.Token, error) {
	return ti.issue(userID, domain.TokenTypeAccess, now, ti.accessTTL)
}

// IssueRefreshToken builds a refresh token for userID.
func (ti *TokenIssuer) IssueRefreshToken(userID string, now time.Time) (*domain.Token, error) {
	return ti.issue(userID, domain.TokenTypeRefresh, now, ti.refreshTTL)
}

func (ti *TokenIssuer) issue(userID string, tokenType domain.TokenType, now time.Time, ttl time.Duration) (*domain.Token, error) {
	value, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(ttl)
	return &domain.Token{
		ID:        uuid.NewString(),
		Value:     value,
		Type:      tokenType,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: &expiresAt,
	}, nil
}

// NewOpaqueToken returns a random URL-safe string with no decodable structure.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
