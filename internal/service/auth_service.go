package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

// maxIssueAttempts bounds retries after a token value collision.
const maxIssueAttempts = 3

const invalidCredentials = "invalid credentials"

// CreateUserInput carries a registration request.
type CreateUserInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// AuthService coordinates registration, login, refresh and bearer checks.
type AuthService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	tx       repository.TxManager
	hasher   *auth.PasswordHasher
	issuer   *auth.TokenIssuer
	validate *validator.Validate
	events   events.Dispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	TokenRepo  repository.TokenRepository
	TxManager  repository.TxManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &AuthService{
		users:    deps.UserRepo,
		tokens:   deps.TokenRepo,
		tx:       deps.TxManager,
		hasher:   hasher,
		issuer:   auth.NewTokenIssuer(cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL()),
		validate: newValidator(),
		events:   dispatcher,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// CreateUser validates the request, hashes the password and stores the account.
// Email uniqueness is decided by the store alone.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	if err := s.validate.Struct(&in); err != nil {
		return nil, validationError(err)
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{
			"password": fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes),
		})
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": in.Email})
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, nil)
	return user, nil
}

// FindByEmail looks an account up by its (normalized) email.
func (s *AuthService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, normalizeEmail(email))
}

// VerifyCredentials resolves the user for email and checks password. Unknown
// emails and wrong passwords fail identically.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
		s.hasher.VerifyDummy(password)
		s.publish(ctx, events.EventLoginFailed, "", events.LoginFailedPayload{Email: normalizeEmail(email)})
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.publish(ctx, events.EventLoginFailed, user.ID, events.LoginFailedPayload{Email: user.Email})
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	return user, nil
}

// Login issues and stores a fresh access/refresh pair for an authenticated user.
func (s *AuthService) Login(ctx context.Context, user *domain.User) (*domain.AuthToken, error) {
	var pair *domain.AuthToken
	err := s.withIssueRetry(ctx, func(ctx context.Context, tokens repository.TokenRepository) error {
		now := s.now()
		access, err := s.issuer.IssueAccessToken(user.ID, now)
		if err != nil {
			return err
		}
		refresh, err := s.issuer.IssueRefreshToken(user.ID, now)
		if err != nil {
			return err
		}
		if err := tokens.Create(ctx, access); err != nil {
			return err
		}
		if err := tokens.Create(ctx, refresh); err != nil {
			return err
		}
		pair = &domain.AuthToken{AccessToken: access.View(), RefreshToken: refresh.View()}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("issue tokens: %w", err))
	}

	s.publish(ctx, events.EventLoginSucceeded, user.ID, nil)
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token and rotates the
// refresh token in place. Rotation only succeeds while the stored value is
// still the presented one, so each value is spent at most once. Expired
// refresh tokens are deleted before the caller is rejected.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*domain.AuthToken, error) {
	if presented == "" {
		return nil, apperrors.NewUnauthorized("invalid refresh token")
	}

	current, err := s.tokens.GetByValue(ctx, presented)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.publish(ctx, events.EventRefreshRejected, "", events.RefreshRejectedPayload{Reason: "unknown"})
			return nil, apperrors.NewUnauthorized("invalid refresh token")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if current.Type != domain.TokenTypeRefresh {
		s.publish(ctx, events.EventRefreshRejected, current.UserID, events.RefreshRejectedPayload{Reason: "wrong_type"})
		return nil, apperrors.NewUnauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("refresh token has no owner", zap.String("token_id", current.ID), zap.String("user_id", current.UserID))
			return nil, apperrors.NewInternalError(fmt.Errorf("token %s references missing user %s", current.ID, current.UserID))
		}
		return nil, apperrors.NewInternalError(err)
	}

	if current.Expired(s.now()) {
		deleted := true
		if err := s.tokens.Delete(ctx, current.ID); err != nil {
			deleted = false
			s.logger.Error("failed to delete expired refresh token", zap.String("token_id", current.ID), zap.Error(err))
		}
		s.publish(ctx, events.EventRefreshRejected, user.ID, events.RefreshRejectedPayload{Reason: "expired", TokenDeleted: deleted})
		return nil, apperrors.NewUnauthorized("refresh token expired")
	}

	var pair *domain.AuthToken
	err = s.withIssueRetry(ctx, func(ctx context.Context, tokens repository.TokenRepository) error {
		now := s.now()
		access, err := s.issuer.IssueAccessToken(user.ID, now)
		if err != nil {
			return err
		}
		next, err := s.issuer.IssueRefreshToken(user.ID, now)
		if err != nil {
			return err
		}

		rotated := *current
		rotated.Value = next.Value
		rotated.ExpiresAt = next.ExpiresAt

		if err := tokens.Create(ctx, access); err != nil {
			return err
		}
		if err := tokens.Update(ctx, &rotated, current.Value); err != nil {
			return err
		}
		pair = &domain.AuthToken{AccessToken: access.View(), RefreshToken: rotated.View()}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// another request rotated or deleted this value first
			s.publish(ctx, events.EventRefreshRejected, user.ID, events.RefreshRejectedPayload{Reason: "replayed"})
			return nil, apperrors.NewUnauthorized("invalid refresh token")
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("rotate refresh token: %w", err))
	}

	s.publish(ctx, events.EventTokenRefreshed, user.ID, nil)
	return pair, nil
}

// Authenticate resolves a bearer access token to its user. Expired access
// tokens are rejected but left in place.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	token, err := s.tokens.GetByValue(ctx, accessToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid token")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if token.Type != domain.TokenTypeAccess || token.Expired(s.now()) {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(fmt.Errorf("token %s references missing user %s", token.ID, token.UserID))
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// SweepExpiredTokens deletes every token whose expiry has passed.
func (s *AuthService) SweepExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}

// withIssueRetry runs fn in a transaction and reruns it with fresh token
// values when the store reports a value collision.
func (s *AuthService) withIssueRetry(ctx context.Context, fn func(ctx context.Context, tokens repository.TokenRepository) error) error {
	var err error
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		err = s.tx.WithinTx(ctx, fn)
		if !errors.Is(err, repository.ErrDuplicateToken) {
			return err
		}
		s.logger.Warn("token value collision, retrying", zap.Int("attempt", attempt))
	}
	return err
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	err := s.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: s.now(),
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid request", nil)
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describeFieldError(fe)
	}
	return apperrors.NewValidationError("validation failed", details)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "eqfield":
		return "passwords did not match"
	default:
		return "is invalid"
	}
}
