// Package kafka wraps a franz-go client for fire-and-forget event publishing.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes records to one topic. Publish never blocks on the broker:
// a full buffer fails the record at once and delivery failures are logged from
// the produce callback.
type Producer struct {
	client      *kgo.Client
	topic       string
	logger      *slog.Logger
	maxBuffered int
}

type Option func(*Producer)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Producer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxBufferedRecords caps how many undelivered records are held before
// Publish starts dropping.
func WithMaxBufferedRecords(n int) Option {
	return func(p *Producer) {
		if n > 0 {
			p.maxBuffered = n
		}
	}
}

func NewProducer(brokers []string, topic string, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	p := &Producer{topic: topic, logger: slog.Default(), maxBuffered: 10000}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.MaxBufferedRecords(p.maxBuffered),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p.client = client
	return p, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

func (p *Producer) Publish(ctx context.Context, key, value []byte) {
	rec := &kgo.Record{Key: key, Value: value}
	p.client.TryProduce(ctx, rec, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("kafka publish failed", "topic", p.topic, "error", err)
		}
	})
}

// Flush waits for buffered records to be delivered.
func (p *Producer) Flush(ctx context.Context) error {
	return p.client.Flush(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}
