package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes Events to a single shared topic, the transport
// behind the asynchronous "invoke next stage" call. Adapted from the
// writer shape used elsewhere in this codebase for the outbound side of a
// Kafka topic (Addr/Topic/Balancer/RequiredAcks), generalized from a batch
// domain-event writer to a single-event bus publisher.
type KafkaPublisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a producer for topic across brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			RequiredAcks: kafkago.RequireAll,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serialize bus event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.Bucket + "/" + ev.Key),
		Value: data,
	})
}

// Close flushes and closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaExtractor consumes Events from the shared topic as a member of a
// consumer group, committing offsets only after the caller's handler has
// run (via ExtractedEvent.Commit).
type KafkaExtractor struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewKafkaExtractor creates a consumer-group reader for topic.
func NewKafkaExtractor(brokers []string, topic, groupID string, logger *slog.Logger) *KafkaExtractor {
	return &KafkaExtractor{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		logger: logger,
	}
}

func (e *KafkaExtractor) Extract(ctx context.Context) (ExtractedEvent, error) {
	msg, err := e.reader.FetchMessage(ctx)
	if err != nil {
		return ExtractedEvent{}, err
	}

	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ExtractedEvent{}, fmt.Errorf("decode bus event: %w", err)
	}

	return ExtractedEvent{
		Event: ev,
		Commit: func(ctx context.Context) error {
			return e.reader.CommitMessages(ctx, msg)
		},
	}, nil
}

// Close stops consuming and releases the underlying connection.
func (e *KafkaExtractor) Close() error {
	return e.reader.Close()
}
