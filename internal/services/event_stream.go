package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventStream appends notification events to a redis stream for external
// consumers (push gateways, digests).
type EventStream struct {
	client  *redis.Client
	stream  string
	timeout time.Duration
}

func NewEventStream(client *redis.Client, stream string) *EventStream {
	return &EventStream{client: client, stream: stream, timeout: 2 * time.Second}
}

func (s *EventStream) Dispatch(_ context.Context, ev NotificationEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		err := s.client.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: 10000,
			Approx: true,
			Values: map[string]interface{}{
				"notification_id": ev.NotificationID,
				"type":            string(ev.Type),
				"recipient_id":    ev.RecipientID,
				"actor_id":        ev.ActorID,
				"entity_id":       ev.EntityID,
				"message":         ev.Message,
			},
		}).Err()
		if err != nil {
			slog.Warn("failed to publish notification event", "stream", s.stream, "error", err)
		}
	}()
}
