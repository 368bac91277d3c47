package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/auth-service/internal/domain"
)

// TokenRepository manages issued access and refresh tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.Token) error
	GetByValue(ctx context.Context, value string) (*domain.Token, error)
	// Update overwrites the value and expiry of the token with token.ID while
	// its stored value is still previous; otherwise it returns ErrNotFound.
	Update(ctx context.Context, token *domain.Token, previous string) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes tokens whose expiry lies before the given instant.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type tokenRepository struct {
	db DBTX
}

// NewTokenRepository returns a Postgres-backed implementation.
func NewTokenRepository(db DBTX) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *domain.Token) error {
	const query = `
        INSERT INTO user_tokens (id, token, token_type, user_id, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		token.ID,
		token.Value,
		string(token.Type),
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err, tokenValueConstraint) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *tokenRepository) GetByValue(ctx context.Context, value string) (*domain.Token, error) {
	const query = `
        SELECT id, token, token_type, user_id, created_at, expires_at
        FROM user_tokens WHERE token=$1`

	var (
		token     domain.Token
		tokenType string
		expiresAt *time.Time
	)
	if err := r.db.QueryRow(ctx, query, value).Scan(
		&token.ID,
		&token.Value,
		&tokenType,
		&token.UserID,
		&token.CreatedAt,
		&expiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select token: %w", err)
	}
	token.Type = domain.TokenType(tokenType)
	token.ExpiresAt = expiresAt
	return &token, nil
}

func (r *tokenRepository) Update(ctx context.Context, token *domain.Token, previous string) error {
	const query = `
        UPDATE user_tokens SET token=$1, expires_at=$2
        WHERE id=$3 AND token=$4`

	cmd, err := r.db.Exec(ctx, query, token.Value, token.ExpiresAt, token.ID, previous)
	if err != nil {
		if isUniqueViolation(err, tokenValueConstraint) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("update token: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tokenRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM user_tokens WHERE id=$1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `
        DELETE FROM user_tokens
        WHERE expires_at IS NOT NULL AND expires_at < $1`

	cmd, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return cmd.RowsAffected(), nil
}
