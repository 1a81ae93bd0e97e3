package users

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a user lifecycle fact.
type EventType string

const (
	EventUserCreated         EventType = "USER_CREATED"
	EventUserUpdated         EventType = "USER_UPDATED"
	EventUserDeleted         EventType = "USER_DELETED"
	EventUserPasswordChanged EventType = "USER_PASSWORD_CHANGED"
	EventUserAccountEnabled  EventType = "USER_ACCOUNT_ENABLED"
	EventUserAccountDisabled EventType = "USER_ACCOUNT_DISABLED"
)

// UserEvent is the wire envelope for a user lifecycle fact. Consumers receive
// it at-least-once and must tolerate duplicates; EventID is the idempotency
// key they can dedupe on.
type UserEvent struct {
	EventID           string         `json:"eventId"`
	EventType         EventType      `json:"eventType"`
	Timestamp         time.Time      `json:"timestamp"`
	UserID            uuid.UUID      `json:"userId"`
	Username          string         `json:"username"`
	Email             string         `json:"email"`
	UserRole          string         `json:"userRole,omitempty"`
	InitiatorUserID   *uuid.UUID     `json:"initiatorUserId,omitempty"`
	InitiatorUsername string         `json:"initiatorUsername,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// SelfInitiated reports whether the subject of the event triggered it.
// Notification consumers use this to suppress "changed by an administrator"
// variants for self-service changes.
func (e UserEvent) SelfInitiated() bool {
	return e.InitiatorUserID != nil && *e.InitiatorUserID == e.UserID
}

// NewUserEvent builds an event for user, resolving the initiator from the
// principal established in ctx. The initiator id comes from the resolved
// identity record, never reconstructed from the display name.
func NewUserEvent(ctx context.Context, eventType EventType, user *User) UserEvent {
	event := UserEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		UserRole:  string(user.Role),
	}

	if initiator, ok := IdentityFromContext(ctx); ok {
		if id, err := ParseUserID(initiator.ID()); err == nil {
			event.InitiatorUserID = &id
		}
		event.InitiatorUsername = initiator.Username()
	}

	return event
}

// AsyncDispatcher publishes events on a detached goroutine so a slow or
// failing bus never delays or fails the mutation that produced the event.
// The non-guarantee is part of the contract: failures are logged and dropped,
// and ordering relative to the HTTP response is undefined.
type AsyncDispatcher struct {
	publisher EventPublisher
	logger    Logger
	timeout   time.Duration
}

// NewAsyncDispatcher wraps publisher with best-effort async delivery.
func NewAsyncDispatcher(publisher EventPublisher, logger Logger) *AsyncDispatcher {
	if logger == nil {
		logger = defLogger{}
	}
	return &AsyncDispatcher{
		publisher: publisher,
		logger:    logger,
		timeout:   time.Second * 5,
	}
}

// Dispatch fires the event without blocking the caller. The publish uses a
// fresh context so request cancellation does not abort in-flight deliveries.
func (d *AsyncDispatcher) Dispatch(event UserEvent) {
	if d.publisher == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Error("failed to publish %s event for user %s: %v", event.EventType, event.Username, err)
			return
		}

		d.logger.Debug("published %s event for user %s", event.EventType, event.Username)
	}()
}
