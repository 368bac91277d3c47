package dto

import (
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// CreateUserRequest payload for registration.
type CreateUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// RefreshRequest carries the refresh token to exchange.
type RefreshRequest struct {
	Token string `json:"token"`
}

// PublicUser is the user representation safe to return to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewPublicUser strips private fields from u.
func NewPublicUser(u *domain.User) PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// TokenResponse is a single token with its expiry.
type TokenResponse struct {
	Token   string     `json:"token"`
	Expired *time.Time `json:"expired,omitempty"`
}

// AuthTokenResponse is returned by login and refresh.
type AuthTokenResponse struct {
	AccessToken  TokenResponse `json:"accessToken"`
	RefreshToken TokenResponse `json:"refreshToken"`
}

// NewAuthTokenResponse converts an issued pair.
func NewAuthTokenResponse(t *domain.AuthToken) AuthTokenResponse {
	return AuthTokenResponse{
		AccessToken:  TokenResponse{Token: t.AccessToken.Value, Expired: t.AccessToken.ExpiresAt},
		RefreshToken: TokenResponse{Token: t.RefreshToken.Value, Expired: t.RefreshToken.ExpiresAt},
	}
}
