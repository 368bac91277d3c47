package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/events"
)

// AuthEventRecorder counts authentication events.
type AuthEventRecorder interface {
	RecordAuthEvent(event string)
}

// AuditService writes an audit trail for authentication events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   AuthEventRecorder
}

// NewAuditService creates the service. recorder may be nil.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, recorder AuthEventRecorder) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserRegistered)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventTokenRefreshed, a.handleTokenRefreshed)
	a.dispatcher.Subscribe(events.EventRefreshRejected, a.handleRefreshRejected)
}

func (a *AuditService) handleUserRegistered(_ context.Context, event events.Event) error {
	a.logger.Info("UserRegistered", zap.String("user_id", event.UserID))
	a.count(event)
	return nil
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	a.logger.Info("LoginSucceeded", zap.String("user_id", event.UserID))
	a.count(event)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("user_id", event.UserID)}
	if p, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("email", p.Email))
	}
	a.logger.Warn("LoginFailed", fields...)
	a.count(event)
	return nil
}

func (a *AuditService) handleTokenRefreshed(_ context.Context, event events.Event) error {
	a.logger.Info("TokenRefreshed", zap.String("user_id", event.UserID))
	a.count(event)
	return nil
}

func (a *AuditService) handleRefreshRejected(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("user_id", event.UserID)}
	if p, ok := event.Payload.(events.RefreshRejectedPayload); ok {
		fields = append(fields, zap.String("reason", p.Reason), zap.Bool("token_deleted", p.TokenDeleted))
	}
	a.logger.Warn("RefreshRejected", fields...)
	a.count(event)
	return nil
}

func (a *AuditService) count(event events.Event) {
	if a.recorder == nil {
		return
	}
	a.recorder.RecordAuthEvent(string(event.Type))
}
