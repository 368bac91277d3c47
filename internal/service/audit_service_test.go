package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/auth-service/internal/events"
)

type recordedEvents []string

func (r *recordedEvents) RecordAuthEvent(event string) {
	*r = append(*r, event)
}

func TestAuditServiceLogsAndCountsEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	var counted recordedEvents

	NewAuditService(dispatcher, zap.New(core), &counted).RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventLoginSucceeded, UserID: "u1"}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventRefreshRejected,
		UserID:  "u1",
		Payload: events.RefreshRejectedPayload{Reason: "expired", TokenDeleted: true},
	}))

	assert.Equal(t, recordedEvents{"login_succeeded", "refresh_rejected"}, counted)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "LoginSucceeded", entries[0].Message)
	assert.Equal(t, "RefreshRejected", entries[1].Message)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "expired", entries[1].ContextMap()["reason"])
	assert.Equal(t, true, entries[1].ContextMap()["token_deleted"])
}

func TestAuditServiceWithoutRecorder(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, nil, nil).RegisterHandlers()

	assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventLoginFailed,
		Payload: events.LoginFailedPayload{Email: "a@b.co"},
	}))
}
