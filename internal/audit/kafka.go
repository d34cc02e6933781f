package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink streams audit events to a Kafka topic for downstream compliance
// consumers. The Postgres/in-memory store stays the source of truth; the
// stream is a secondary feed, so publish failures are reported but never fail
// the originating operation.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

type kafkaPayload struct {
	Timestamp  string `json:"timestamp"`
	Actor      string `json:"actor,omitempty"`
	Action     string `json:"action"`
	BloodGroup string `json:"blood_group,omitempty"`
	Units      int    `json:"units,omitempty"`
	Decision   string `json:"decision,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

// Publish produces one event synchronously. The Worker calls this off the
// request path, so blocking on broker acks is acceptable here.
func (s *KafkaSink) Publish(ctx context.Context, event Event) error {
	payload := kafkaPayload{
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		Actor:      event.Actor,
		Action:     event.Action,
		BloodGroup: event.BloodGroup,
		Units:      event.Units,
		Decision:   event.Decision,
		Reason:     event.Reason,
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Actor),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
