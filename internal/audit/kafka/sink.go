// Package kafka relays audit events to a Kafka topic via franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"medtransit/internal/audit"
)

// Producer is the subset of the platform client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, records ...*kgo.Record) error
}

// Sink writes one record per event, keyed by subject id so a subject's events
// stay ordered within a partition.
type Sink struct {
	producer Producer
	topic    string
}

func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

func (s *Sink) Publish(ctx context.Context, events []audit.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode audit event %s: %w", event.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(event.Subject),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "kind", Value: []byte(event.Kind)},
				{Key: "action", Value: []byte(event.Action)},
			},
		})
	}
	if err := s.producer.ProduceSync(ctx, records...); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}
	return nil
}
