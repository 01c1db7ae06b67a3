package consumer

import (
	"context"

	"sctrace/internal/models"
)

// Consumer defines the interface for message queue consumers.
type Consumer interface {
	// Consume blocks until a message is received or the context is
	// cancelled. It returns the message, an acknowledgement callback,
	// and any error that occurred. ack(true) marks the message handled;
	// ack(false) leaves it for redelivery.
	Consume(ctx context.Context) (msg *models.EventMessage, ack func(success bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
