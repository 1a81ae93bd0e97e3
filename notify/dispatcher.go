package notify

import (
	"context"
	"fmt"
	"time"

	users "github.com/goliatone/go-users"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultDedupeSize = 4096

// Config configures the dispatcher.
type Config struct {
	// Mailer delivers the rendered messages. Required.
	Mailer Mailer

	// AdminEmail receives administrative notices.
	AdminEmail string

	// TeamName signs off user-facing messages.
	TeamName string

	// DedupeSize bounds the LRU of seen event ids.
	DedupeSize int

	Logger users.Logger
}

// Dispatcher maps user lifecycle events to email notifications. The event
// bus delivers at-least-once, so the dispatcher remembers recent event ids
// and silently drops duplicates.
type Dispatcher struct {
	mailer     Mailer
	adminEmail string
	teamName   string
	logger     users.Logger
	seen       *lru.Cache[string, struct{}]
}

// New creates a dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Mailer == nil {
		return nil, fmt.Errorf("notify: a Mailer is required")
	}

	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@localhost"
	}

	if cfg.TeamName == "" {
		cfg.TeamName = "The Team"
	}

	if cfg.DedupeSize <= 0 {
		cfg.DedupeSize = defaultDedupeSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	seen, err := lru.New[string, struct{}](cfg.DedupeSize)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		mailer:     cfg.Mailer,
		adminEmail: cfg.AdminEmail,
		teamName:   cfg.TeamName,
		logger:     logger,
		seen:       seen,
	}, nil
}

// Handle processes one event. It satisfies the stream consumer's handler
// shape: an error leaves the entry unacknowledged for redelivery, so the id
// is marked as seen only after every message went out.
func (d *Dispatcher) Handle(ctx context.Context, event users.UserEvent) error {
	if event.EventID != "" && d.seen.Contains(event.EventID) {
		d.logger.Debug("skipping duplicate event %s (%s)", event.EventID, event.EventType)
		return nil
	}

	d.logger.Info("processing %s event for user %s", event.EventType, event.Username)

	messages := d.messagesFor(event)

	for _, msg := range messages {
		if err := d.mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("failed to send %q to %s: %w", msg.Subject, msg.To, err)
		}
		d.logger.Debug("email sent to %s with subject: %s", msg.To, msg.Subject)
	}

	if event.EventID != "" {
		d.seen.Add(event.EventID, struct{}{})
	}

	return nil
}

func (d *Dispatcher) messagesFor(event users.UserEvent) []Message {
	switch event.EventType {
	case users.EventUserCreated:
		return d.userCreated(event)
	case users.EventUserUpdated:
		return d.userUpdated(event)
	case users.EventUserDeleted:
		return d.userDeleted(event)
	case users.EventUserPasswordChanged:
		return d.passwordChanged(event)
	case users.EventUserAccountEnabled, users.EventUserAccountDisabled:
		return d.accountStatus(event)
	default:
		d.logger.Warn("unhandled event type: %s", event.EventType)
		return nil
	}
}

// adminActed reports whether someone other than the subject triggered the
// event. Self-service changes never produce the administrator variants.
func adminActed(event users.UserEvent) bool {
	return event.InitiatorUserID != nil && !event.SelfInitiated()
}

func (d *Dispatcher) userCreated(event users.UserEvent) []Message {
	messages := []Message{{
		To:      event.Email,
		Subject: "Welcome!",
		Body: fmt.Sprintf(
			"Hello %s,\n\n"+
				"Your account has been successfully created.\n"+
				"Username: %s\n"+
				"Email: %s\n\n"+
				"Thank you for joining us!",
			event.Username, event.Username, event.Email,
		),
	}}

	if adminActed(event) {
		initiator := event.InitiatorUsername
		if initiator == "" {
			initiator = "system"
		}

		messages = append(messages, Message{
			To:      d.adminEmail,
			Subject: fmt.Sprintf("New User Registration: %s", event.Username),
			Body: fmt.Sprintf(
				"A new user has been registered by %s.\n\n"+
					"User Details:\n"+
					"- Username: %s\n"+
					"- Email: %s\n"+
					"- Role: %s\n\n"+
					"Registration Time: %s",
				initiator, event.Username, event.Email, event.UserRole,
				event.Timestamp.Format(time.RFC3339),
			),
		})
	}

	return messages
}

func (d *Dispatcher) userUpdated(event users.UserEvent) []Message {
	// self-service updates need no notification
	if !adminActed(event) {
		return nil
	}

	return []Message{{
		To:      event.Email,
		Subject: "Your account has been updated by an administrator",
		Body: fmt.Sprintf(
			"Hello %s,\n\n"+
				"Your account information has been updated by an administrator.\n\n"+
				"If you did not request these changes or believe this is an error, "+
				"please contact our support team immediately.\n\n"+
				"Best regards,\n%s",
			event.Username, d.teamName,
		),
	}}
}

func (d *Dispatcher) userDeleted(event users.UserEvent) []Message {
	if !adminActed(event) {
		return nil
	}

	return []Message{{
		To:      d.adminEmail,
		Subject: fmt.Sprintf("User Account Deleted: %s", event.Username),
		Body: fmt.Sprintf(
			"The following user account has been deleted by %s.\n\n"+
				"User Details:\n"+
				"- Username: %s\n"+
				"- Email: %s\n"+
				"- Role: %s\n"+
				"- Deletion Time: %s\n\n"+
				"This action is irreversible.",
			event.InitiatorUsername, event.Username, event.Email, event.UserRole,
			event.Timestamp.Format(time.RFC3339),
		),
	}}
}

func (d *Dispatcher) passwordChanged(event users.UserEvent) []Message {
	return []Message{{
		To:      event.Email,
		Subject: "Your password has been changed",
		Body: fmt.Sprintf(
			"Hello %s,\n\n"+
				"Your password has been successfully changed.\n\n"+
				"If you did not make this change, please contact our support team immediately.\n\n"+
				"Best regards,\n%s",
			event.Username, d.teamName,
		),
	}}
}

func (d *Dispatcher) accountStatus(event users.UserEvent) []Message {
	enabled := event.EventType == users.EventUserAccountEnabled

	status := "disabled"
	followup := "You will not be able to log in until an administrator re-enables your account."
	if enabled {
		status = "enabled"
		followup = "You can now log in to your account."
	}

	messages := []Message{{
		To:      event.Email,
		Subject: fmt.Sprintf("Your account has been %s", status),
		Body: fmt.Sprintf(
			"Hello %s,\n\n"+
				"Your account has been %s by an administrator.\n\n"+
				"%s\n\n"+
				"If you believe this is an error, please contact our support team.\n\n"+
				"Best regards,\n%s",
			event.Username, status, followup, d.teamName,
		),
	}}

	if adminActed(event) {
		title := "Disabled"
		if enabled {
			title = "Enabled"
		}

		messages = append(messages, Message{
			To:      d.adminEmail,
			Subject: fmt.Sprintf("User Account %s: %s", title, event.Username),
			Body: fmt.Sprintf(
				"The following user account has been %s by %s.\n\n"+
					"User Details:\n"+
					"- Username: %s\n"+
					"- Email: %s\n"+
					"- Role: %s\n"+
					"- Time: %s\n\n"+
					"Action taken by: %s (%s)",
				status, event.InitiatorUsername,
				event.Username, event.Email, event.UserRole,
				event.Timestamp.Format(time.RFC3339),
				event.InitiatorUsername, event.InitiatorUserID,
			),
		})
	}

	return messages
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
