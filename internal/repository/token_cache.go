package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
)

const tokenCachePrefix = "auth:token:"

// CachedTokenRepository is a Redis read-through cache in front of a
// TokenRepository. Only access tokens are cached: they are never mutated, and
// each entry expires together with its token. Refresh tokens are rotated in
// place and always go to the backing store.
type CachedTokenRepository struct {
	TokenRepository
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

type cachedToken struct {
	ID        string     `json:"id"`
	Value     string     `json:"value"`
	Type      string     `json:"type"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// NewCachedTokenRepository wraps inner with a Redis cache.
func NewCachedTokenRepository(inner TokenRepository, client *redis.Client, logger *zap.Logger) *CachedTokenRepository {
	return &CachedTokenRepository{
		TokenRepository: inner,
		client:          client,
		logger:          logger,
		now:             time.Now,
	}
}

// GetByValue serves access tokens from Redis when present; cache failures fall
// through to the backing store.
func (r *CachedTokenRepository) GetByValue(ctx context.Context, value string) (*domain.Token, error) {
	key := cacheKey(value)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ct cachedToken
		if jsonErr := json.Unmarshal(raw, &ct); jsonErr == nil && ct.Value == value {
			return &domain.Token{
				ID:        ct.ID,
				Value:     ct.Value,
				Type:      domain.TokenType(ct.Type),
				UserID:    ct.UserID,
				CreatedAt: ct.CreatedAt,
				ExpiresAt: ct.ExpiresAt,
			}, nil
		}
		r.logger.Warn("discarding unreadable token cache entry")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("token cache read failed", zap.Error(err))
	}

	token, err := r.TokenRepository.GetByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	r.remember(ctx, key, token)
	return token, nil
}

func (r *CachedTokenRepository) remember(ctx context.Context, key string, token *domain.Token) {
	if token.Type != domain.TokenTypeAccess || token.ExpiresAt == nil {
		return
	}
	ttl := token.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return
	}

	payload, err := json.Marshal(cachedToken{
		ID:        token.ID,
		Value:     token.Value,
		Type:      string(token.Type),
		UserID:    token.UserID,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		r.logger.Warn("token cache write failed", zap.Error(err))
	}
}

// cacheKey hashes the token so raw credentials never appear in the keyspace.
func cacheKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return tokenCachePrefix + hex.EncodeToString(sum[:])
}
