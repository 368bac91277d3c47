package domain

import "time"

// TokenType differentiates short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// Token is an issued opaque credential. A nil ExpiresAt never expires.
type Token struct {
	ID        string
	Value     string
	Type      TokenType
	UserID    string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the token's expiry lies strictly before now.
func (t *Token) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return now.After(*t.ExpiresAt)
}

// View returns the caller-facing part of the token.
func (t *Token) View() TokenView {
	return TokenView{Value: t.Value, ExpiresAt: t.ExpiresAt}
}

// TokenView is the value/expiry pair handed back to clients.
type TokenView struct {
	Value     string
	ExpiresAt *time.Time
}

// AuthToken pairs an access token with its refresh token. It is never persisted.
type AuthToken struct {
	AccessToken  TokenView
	RefreshToken TokenView
}
