package middleware

import (
	"context"
	"time"

	"roombook/pkg/kafka"
	"roombook/pkg/logger"
)

// PublishLogging logs every publish attempt with its outcome and latency.
func PublishLogging(log *logger.Logger) kafka.ProducerMiddleware {
	return func(next kafka.PublishFunc) kafka.PublishFunc {
		return func(ctx context.Context, topic string, msg kafka.Message) error {
			start := time.Now()
			err := next(ctx, topic, msg)
			attrs := []any{
				"topic", topic,
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				log.Error("event publish failed", append(attrs, "error", err)...)
				return err
			}
			log.Info("event published", attrs...)
			return nil
		}
	}
}
