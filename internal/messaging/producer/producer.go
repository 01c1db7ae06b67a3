package producer

import (
	"context"

	"sctrace/internal/models"
)

// Producer defines the interface for message queue producers.
type Producer interface {
	// Publish sends a single event message to the configured topic.
	Publish(ctx context.Context, msg *models.EventMessage) error

	// PublishBatch sends event messages in batch to the configured topic.
	PublishBatch(ctx context.Context, msgs []*models.EventMessage) error

	// Close closes the producer connection.
	Close() error
}
