package kafka

import (
	"context"
	"errors"
	"net"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
)

// retryable reports whether a failed alert write may succeed if attempted
// again. Broker error codes decide when present; otherwise network errors
// retry and anything naming a bad topic, size or permission does not.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var kerr kafkago.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	var werr kafkago.WriteErrors
	if errors.As(err, &werr) {
		for _, e := range werr {
			if e != nil && !retryable(e) {
				return false
			}
		}
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{"message too large", "invalid topic", "unknown topic", "authorization failed"} {
		if strings.Contains(msg, p) {
			return false
		}
	}
	return true
}
