package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes events to Kafka, one topic per event kind, keyed by
// account id so all events of one account land on the same partition.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink constructs a sink over the given brokers. The writer is
// topic-less; each message carries its own topic.
func NewKafkaSink(brokers []string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (s *KafkaSink) Publish(ctx context.Context, topic string, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event marshal error: %w", err)
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("kafka write error: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
