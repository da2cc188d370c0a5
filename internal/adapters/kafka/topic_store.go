package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

const (
	backendName = "kafka"

	// batchTimeout bounds how long the writer waits to fill a partial batch.
	batchTimeout = 10 * time.Millisecond
)

// messageWriter is the subset of *kafka.Writer the store uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config contains the producer settings for the topic store.
type Config struct {
	Brokers []string
	Topic   string
}

// Validate checks that brokers and topic are set.
func (c Config) Validate() error {
	var brokers []string
	for _, b := range c.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return fmt.Errorf("%w: kafka brokers are required", domain.ErrInvalidConfig)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: kafka topic is required", domain.ErrInvalidConfig)
	}
	return nil
}

// TopicStore implements ports.Storage by producing one message per payload.
type TopicStore struct {
	writer messageWriter
	topic  string
	logger ports.Logger
}

// firstPartition routes every message to one partition so consumers see
// payloads in append order.
var firstPartition = kafka.BalancerFunc(func(_ kafka.Message, partitions ...int) int {
	return partitions[0]
})

// NewTopicStore creates a topic store backed by a kafka.Writer that waits for
// all in-sync replicas to acknowledge each batch.
func NewTopicStore(cfg Config, logger ports.Logger) (*TopicStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     firstPartition,
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: batchTimeout,
	}
	return newTopicStore(w, cfg.Topic, logger), nil
}

func newTopicStore(w messageWriter, topic string, logger ports.Logger) *TopicStore {
	return &TopicStore{writer: w, topic: topic, logger: logger}
}

// Store writes the batch with a single WriteMessages call, keeping payload order.
func (s *TopicStore) Store(ctx context.Context, batch domain.Batch) error {
	if batch.Empty() {
		return nil
	}
	msgs := make([]kafka.Message, len(batch))
	for i, payload := range batch {
		msgs[i] = kafka.Message{Value: payload}
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return domain.NewStorageError(backendName, "write "+s.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *TopicStore) Close() error {
	if err := s.writer.Close(); err != nil {
		s.logger.Warn("close kafka writer", ports.Err(err))
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
