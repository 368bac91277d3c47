package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventLoginSucceeded  EventType = "login_succeeded"
	EventLoginFailed     EventType = "login_failed"
	EventTokenRefreshed  EventType = "token_refreshed"
	EventRefreshRejected EventType = "refresh_rejected"
)

// Event represents an authentication event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// RefreshRejectedPayload explains why a refresh attempt failed.
type RefreshRejectedPayload struct {
	Reason       string `json:"reason"`
	TokenDeleted bool   `json:"token_deleted"`
}

// LoginFailedPayload carries the (normalized) email of a failed login.
type LoginFailedPayload struct {
	Email string `json:"email"`
}
