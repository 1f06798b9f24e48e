package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openledger-engine/internal/config"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/segmentio/kafka-go"
)

// PostedTransactionProducer publishes committed transactions to Kafka so
// downstream consumers (archival, analytics, notifications) can react without
// polling the ledger. Publishing is fire-and-forget: a broker outage never
// blocks or fails a posting.
type PostedTransactionProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewPostedTransactionProducer creates the producer and ensures the topic exists
func NewPostedTransactionProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*PostedTransactionProducer, error) {
	if cfg.PostedTransactionTopic == "" {
		return nil, fmt.Errorf("kafka posted transaction topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for posted transaction producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.PostedTransactionTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists for posted transaction producer: %w", cfg.PostedTransactionTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.PostedTransactionTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Posting latency must not depend on the broker
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.PostedTransactionTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.PostedTransactionTopic, "count", len(messages))
			}
		},
	}

	return &PostedTransactionProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.PostedTransactionTopic,
	}, nil
}

// PublishTransaction publishes one committed transaction, keyed by its ID so
// per-transaction ordering is preserved across partitions.
func (p *PostedTransactionProducer) PublishTransaction(ctx context.Context, tx *journal.Transaction) error {
	return p.Publish(ctx, tx.ID.String(), tx)
}

func (p *PostedTransactionProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for posted transaction producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish posted transaction",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published posted transaction",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *PostedTransactionProducer) Close() error {
	p.logger.Info("Closing posted transaction Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
