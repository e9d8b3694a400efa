package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSink(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("delivers events in order", func(t *testing.T) {
		sink := NewChannelSink(4)
		sink.Record(ctx, Event{Action: ActionLoginFailure, Result: ResultFailure, CreatedAt: now})
		sink.Record(ctx, Event{Action: ActionLoginSuccess, Result: ResultSuccess, CreatedAt: now})

		first := <-sink.Events()
		second := <-sink.Events()
		assert.Equal(t, ActionLoginFailure, first.Action)
		assert.Equal(t, ActionLoginSuccess, second.Action)
	})

	t.Run("drops instead of blocking when the buffer is full", func(t *testing.T) {
		sink := NewChannelSink(1)
		sink.Record(ctx, Event{Action: ActionLoginSuccess, CreatedAt: now})

		done := make(chan struct{})
		go func() {
			sink.Record(ctx, Event{Action: ActionLockout, CreatedAt: now})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Record blocked on a full buffer")
		}

		got := <-sink.Events()
		assert.Equal(t, ActionLoginSuccess, got.Action)
		select {
		case extra := <-sink.Events():
			t.Fatalf("expected the second event to be dropped, got %v", extra.Action)
		default:
		}
	})
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	actor := uuid.New()
	sink.Record(context.Background(), Event{
		ActorID:      &actor,
		TargetUserID: actor,
		Action:       ActionLockout,
		Result:       ResultFailure,
		Metadata:     map[string]string{"failed_count": "5"},
		CreatedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "lockout")
	assert.Contains(t, out, "meta_failed_count=5")
	assert.Contains(t, out, actor.String())
}
