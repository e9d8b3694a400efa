package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Action identifies the security-relevant operation an event describes.
type Action string

const (
	ActionLoginSuccess   Action = "login-success"
	ActionLoginFailure   Action = "login-failure"
	ActionLockout        Action = "lockout"
	ActionMfaEnabled     Action = "mfa-enabled"
	ActionMfaDisabled    Action = "mfa-disabled"
	ActionSessionRevoked Action = "session-revoked"
	ActionPasswordChange Action = "password-change"
)

// Result of the audited operation.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Event is a structured security event handed to a Sink. Metadata must never
// carry password hashes, MFA secrets, or raw backup codes.
type Event struct {
	ActorID      *uuid.UUID        `json:"actor_id,omitempty"`
	TargetUserID uuid.UUID         `json:"target_user_id"`
	Action       Action            `json:"action"`
	Result       Result            `json:"result"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Sink receives audit events. Implementations are expected to be safe for
// concurrent use. Recording is fire-and-forget: a Sink must not fail
// authentication, so the interface returns nothing.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// NoopSink discards all events.
type NoopSink struct{}

func (NoopSink) Record(context.Context, Event) {}

// SlogSink writes events to a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink backed by the given logger. A nil logger uses
// slog.Default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Record(ctx context.Context, event Event) {
	attrs := []any{
		"action", string(event.Action),
		"result", string(event.Result),
		"target_user_id", event.TargetUserID.String(),
		"created_at", event.CreatedAt,
	}
	if event.ActorID != nil {
		attrs = append(attrs, "actor_id", event.ActorID.String())
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, "meta_"+k, v)
	}
	s.logger.InfoContext(ctx, "audit event", attrs...)
}

// ChannelSink buffers events on a channel for an external consumer. Events
// are dropped when the buffer is full or the context is done; audit delivery
// never blocks the caller indefinitely.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Record(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	default:
	}
}

// Events exposes the buffered events for consumption.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}
