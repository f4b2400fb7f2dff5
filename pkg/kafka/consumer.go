package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"roombook/pkg/logger"
)

// Consumer reads one topic inside a consumer group and hands each message
// to a handler. Offsets commit only after the handler returns nil; failed
// messages are retried with backoff and finally parked on the DLQ.
type Consumer struct {
	reader  *kafkago.Reader
	cfg     Config
	topic   string
	handler MessageHandler
	dlq     *Producer
	log     *logger.Logger

	mu     sync.Mutex
	closed bool
}

func NewConsumer(cfg Config, topic string, handler MessageHandler, dlq *Producer, log *logger.Logger) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.ConsumerGroup,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // explicit commits
	})
	return &Consumer{
		reader:  reader,
		cfg:     cfg,
		topic:   topic,
		handler: handler,
		dlq:     dlq,
		log:     log,
	}, nil
}

// Run blocks fetching and processing messages until ctx is cancelled or
// the consumer is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		raw, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return nil
			}
			c.log.Error("kafka fetch failed", "topic", c.topic, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.RetryBackoff):
			}
			continue
		}

		msg := fromKafkaMessage(raw)
		if err := c.process(ctx, msg); err != nil {
			c.park(ctx, msg, err)
		}

		if err := c.reader.CommitMessages(ctx, raw); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Error("kafka commit failed",
				"topic", c.topic,
				"offset", raw.Offset,
				"error", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg Message) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			msg.IncrementRetryCount()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryBackoff):
			}
		}
		lastErr = c.handler(ctx, msg)
		if lastErr == nil {
			return nil
		}
		c.log.Warn("message handling failed",
			"topic", c.topic,
			"event_id", msg.GetEventID(),
			"attempt", attempt+1,
			"error", lastErr)
	}
	return lastErr
}

// park moves an unprocessable message to the DLQ so the partition keeps
// moving.
func (c *Consumer) park(ctx context.Context, msg Message, cause error) {
	if c.dlq == nil {
		c.log.Error("dropping unprocessable message",
			"topic", c.topic,
			"event_id", msg.GetEventID(),
			"error", cause)
		return
	}
	msg.Headers[HeaderOriginalTopic] = c.topic
	if err := c.dlq.Publish(ctx, c.cfg.DLQTopic, msg); err != nil {
		c.log.Error("dead-letter publish failed",
			"topic", c.topic,
			"event_id", msg.GetEventID(),
			"error", err)
	}
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.reader.Close()
}

func fromKafkaMessage(raw kafkago.Message) Message {
	headers := make(map[string]string, len(raw.Headers))
	for _, h := range raw.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Key:       string(raw.Key),
		Value:     raw.Value,
		Headers:   headers,
		Topic:     raw.Topic,
		Partition: raw.Partition,
		Offset:    raw.Offset,
		Timestamp: raw.Time,
	}
}
