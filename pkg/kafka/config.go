package kafka

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvKafkaBrokers       = "KAFKA_BROKERS"
	EnvKafkaClientID      = "KAFKA_CLIENT_ID"
	EnvKafkaConsumerGroup = "KAFKA_CONSUMER_GROUP"
	EnvKafkaMaxRetries    = "KAFKA_MAX_RETRIES"
	EnvKafkaRetryBackoff  = "KAFKA_RETRY_BACKOFF"
	EnvKafkaDLQTopic      = "KAFKA_DLQ_TOPIC"
)

const (
	DefaultBrokers       = "localhost:9092"
	DefaultClientID      = "roombook"
	DefaultConsumerGroup = "roombook-notifier"
	DefaultMaxRetries    = 3
	DefaultRetryBackoff  = 2 * time.Second
	DefaultDLQTopic      = "booking-events-dlq"
)

type Config struct {
	Brokers       []string
	ClientID      string
	ConsumerGroup string
	MaxRetries    int
	RetryBackoff  time.Duration
	DLQTopic      string
}

// LoadConfig reads broker settings from the environment, falling back to
// local-development defaults.
func LoadConfig() Config {
	return Config{
		Brokers:       splitBrokers(envStr(EnvKafkaBrokers, DefaultBrokers)),
		ClientID:      envStr(EnvKafkaClientID, DefaultClientID),
		ConsumerGroup: envStr(EnvKafkaConsumerGroup, DefaultConsumerGroup),
		MaxRetries:    envInt(EnvKafkaMaxRetries, DefaultMaxRetries),
		RetryBackoff:  envDuration(EnvKafkaRetryBackoff, DefaultRetryBackoff),
		DLQTopic:      envStr(EnvKafkaDLQTopic, DefaultDLQTopic),
	}
}

func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrNoBrokers
	}
	return nil
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
