package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"sctrace/config"
	"sctrace/internal/models"
)

// KafkaProducer implements the Producer interface on a kafka-go Writer.
type KafkaProducer struct {
	writer *kafka.Writer
	logger *log.Logger
	topic  string
}

// NewKafkaProducer creates a new KafkaProducer.
func NewKafkaProducer(cfg config.KafkaProducerConfig, logger *log.Logger) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka producer configuration incomplete: both brokers and topic are required")
	}

	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 100 * time.Millisecond
	}
	batchBytes := cfg.BatchBytes
	if batchBytes == 0 {
		batchBytes = 5 * 1024 * 1024
	}

	var requiredAcks kafka.RequiredAcks
	switch cfg.RequiredAcks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "one":
		requiredAcks = kafka.RequireOne
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	// Default to async mode unless the caller pinned acks explicitly.
	asyncMode := cfg.Async
	if !cfg.Async && cfg.RequiredAcks == "" {
		asyncMode = true
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 5 * time.Second
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 5 * time.Second
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},

		BatchSize:    batchSize,
		BatchTimeout: batchTimeout,
		BatchBytes:   int64(batchBytes),

		RequiredAcks: requiredAcks,
		Async:        asyncMode,

		WriteTimeout: writeTimeout,
		ReadTimeout:  readTimeout,

		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Printf("Kafka Writer Error: "+msg, args...)
		}),
	}

	logger.Printf("Kafka producer created, connected to Brokers: %v, Topic: %s", cfg.Brokers, cfg.Topic)

	return &KafkaProducer{
		writer: w,
		logger: logger,
		topic:  cfg.Topic,
	}, nil
}

// Publish sends a single event message. The product id keys the message
// so all events of one product land on the same partition and keep
// their submission order downstream.
func (p *KafkaProducer) Publish(ctx context.Context, msg *models.EventMessage) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize event message: %w", err)
	}

	kafkaMsg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", msg.ProductID)),
		Value: msgBytes,
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		p.logger.Printf("Failed to send Kafka message to buffer (RequestID: %s): %v", msg.RequestID, err)
		return fmt.Errorf("failed to write to Kafka buffer: %w", err)
	}
	return nil
}

// PublishBatch sends event messages in batch to the configured topic.
func (p *KafkaProducer) PublishBatch(ctx context.Context, msgs []*models.EventMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	kafkaMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		msgBytes, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to serialize event message (RequestID: %s): %w", msg.RequestID, err)
		}
		kafkaMsgs[i] = kafka.Message{
			Key:   []byte(fmt.Sprintf("%d", msg.ProductID)),
			Value: msgBytes,
		}
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsgs...); err != nil {
		p.logger.Printf("Failed to send Kafka messages in batch (count: %d): %v", len(msgs), err)
		return fmt.Errorf("failed to batch write to Kafka buffer: %w", err)
	}

	p.logger.Printf("Successfully added %d Kafka messages to send queue (Topic: %s)", len(msgs), p.topic)
	return nil
}

// Close closes the producer, flushing any buffered messages.
func (p *KafkaProducer) Close() error {
	p.logger.Println("Closing Kafka producer (and flushing buffer)...")
	return p.writer.Close()
}

var _ Producer = (*KafkaProducer)(nil)
