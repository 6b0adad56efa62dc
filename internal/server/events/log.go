package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// LogSink writes events to the structured log instead of a broker. Used in
// development when no Kafka brokers are configured.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logger.With("module", "event_sink")}
}

func (s *LogSink) Publish(ctx context.Context, topic string, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event marshal error: %w", err)
	}
	s.logger.Info(ctx, "domain event", "topic", topic, "key", key, "payload", string(value))
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
