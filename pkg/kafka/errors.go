package kafka

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrProducerClosed = errors.New("producer is closed")
	ErrConsumerClosed = errors.New("consumer is closed")
	ErrEmptyTopic     = errors.New("topic must not be empty")
	ErrEmptyValue     = errors.New("message value must not be empty")
	ErrNoBrokers      = errors.New("at least one broker address is required")
)

// IsTransient reports whether a delivery error is worth retrying. Context
// cancellation and message-shape errors are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyTopic) || errors.Is(err, ErrEmptyValue) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"leader not available",
		"not leader for partition",
		"request timed out",
		"unexpected eof",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
