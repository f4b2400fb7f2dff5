package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"roombook/pkg/logger"
)

// PublishFunc sends one message to a topic.
type PublishFunc func(ctx context.Context, topic string, msg Message) error

// ProducerMiddleware wraps a PublishFunc, e.g. for logging.
type ProducerMiddleware func(next PublishFunc) PublishFunc

// Producer writes booking events to Kafka with retry and a dead-letter
// fallback for messages that exhaust their retries.
type Producer struct {
	writer      *kafkago.Writer
	cfg         Config
	log         *logger.Logger
	middlewares []ProducerMiddleware

	mu     sync.Mutex
	closed bool
}

func NewProducer(cfg Config, log *logger.Logger, middlewares ...ProducerMiddleware) (*Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{
		writer:      writer,
		cfg:         cfg,
		log:         log,
		middlewares: middlewares,
	}, nil
}

// Publish delivers msg to topic, retrying transient failures. When all
// retries fail the message is diverted to the dead-letter topic so the
// event is not lost.
func (p *Producer) Publish(ctx context.Context, topic string, msg Message) error {
	publish := p.publishOnce
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		publish = p.middlewares[i](publish)
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.cfg.RetryBackoff):
			}
		}
		lastErr = publish(ctx, topic, msg)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			break
		}
		p.log.Warn("kafka publish retry",
			"topic", topic,
			"attempt", attempt+1,
			"error", lastErr)
	}

	if dlqErr := p.deadLetter(ctx, topic, msg); dlqErr != nil {
		p.log.Error("dead-letter publish failed",
			"topic", topic,
			"event_id", msg.GetEventID(),
			"error", dlqErr)
	}
	return fmt.Errorf("publishing to %s: %w", topic, lastErr)
}

func (p *Producer) publishOnce(ctx context.Context, topic string, msg Message) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProducerClosed
	}
	p.mu.Unlock()

	if topic == "" {
		return ErrEmptyTopic
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}
	return p.writer.WriteMessages(ctx, toKafkaMessage(topic, msg))
}

func (p *Producer) deadLetter(ctx context.Context, originalTopic string, msg Message) error {
	if p.cfg.DLQTopic == "" {
		return nil
	}
	msg.Headers[HeaderOriginalTopic] = originalTopic
	return p.writer.WriteMessages(ctx, toKafkaMessage(p.cfg.DLQTopic, msg))
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

func toKafkaMessage(topic string, msg Message) kafkago.Message {
	headers := make([]kafkago.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}
	return kafkago.Message{
		Topic:   topic,
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: headers,
		Time:    msg.Timestamp,
	}
}
