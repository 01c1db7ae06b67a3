package consumer

import (
	"context"
	"errors"
	"log"
	"time"

	"sctrace/internal/models"
)

// MockConsumer serves messages from an in-memory channel. The engine
// falls back to it when no brokers are configured, and tests feed it
// through Push.
type MockConsumer struct {
	logger   *log.Logger
	messages chan *models.EventMessage
}

// PredefinedMessages stores the custody events simulated by broker-less
// engine runs.
var PredefinedMessages []*models.EventMessage

func init() {
	now := time.Now()
	PredefinedMessages = []*models.EventMessage{
		{
			RequestID:   "a1b1c1d1-e1f1-1111-2222-1234567890ab",
			ProductID:   1,
			Actor:       "Farmer",
			Location:    "Green Valley Farm",
			Action:      "Harvested",
			Quantity:    120.5,
			BatchID:     "LOT-2024-001",
			SubmittedAt: now.Add(-time.Minute).Format(time.RFC3339Nano),
		},
		{
			RequestID:   "a2b2c2d2-e2f2-3333-4444-abcdef123456",
			ProductID:   1,
			Actor:       "Distributor",
			Location:    "Central Depot",
			Action:      "Shipped",
			Transport:   "truck",
			Receiver:    "Retail East",
			SubmittedAt: now.Add(-30 * time.Second).Format(time.RFC3339Nano),
		},
		{
			RequestID:   "a3b3c3d3-e3f3-5555-6666-fedcba654321",
			ProductID:   2,
			Actor:       "Retailer",
			Location:    "Store 14",
			Action:      "Delivered",
			SubmittedAt: now.Format(time.RFC3339Nano),
		},
	}
}

// NewMockConsumer creates a MockConsumer preloaded with the predefined
// messages.
func NewMockConsumer(logger *log.Logger) *MockConsumer {
	mc := &MockConsumer{
		logger:   logger,
		messages: make(chan *models.EventMessage, len(PredefinedMessages)+16),
	}
	logger.Println("[MockConsumer] Initializing with predefined messages...")
	for _, msg := range PredefinedMessages {
		mc.messages <- msg
		logger.Printf("[MockConsumer] Added predefined message: request_id=%s", msg.RequestID)
	}
	return mc
}

// NewEmptyMockConsumer creates a MockConsumer with no preloaded
// messages; tests feed it with Push.
func NewEmptyMockConsumer(logger *log.Logger, buffer int) *MockConsumer {
	return &MockConsumer{
		logger:   logger,
		messages: make(chan *models.EventMessage, buffer),
	}
}

// Push enqueues a message for consumption. Returns false when the
// channel buffer is full.
func (m *MockConsumer) Push(msg *models.EventMessage) bool {
	select {
	case m.messages <- msg:
		return true
	default:
		return false
	}
}

// Consume reads the next message from the channel.
func (m *MockConsumer) Consume(ctx context.Context) (msg *models.EventMessage, ack func(success bool), err error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case msg := <-m.messages:
		if msg == nil {
			return nil, nil, errors.New("message channel closed")
		}
		ackCallback := func(success bool) {
			if success {
				m.logger.Printf("[MockConsumer] ACK received for message: request_id=%s", msg.RequestID)
				return
			}
			m.logger.Printf("[MockConsumer] NACK received for message: request_id=%s. Re-queueing (mock)", msg.RequestID)
			select {
			case m.messages <- msg:
			default:
				m.logger.Printf("[MockConsumer] Warning: Failed to re-queue message (channel full?): request_id=%s", msg.RequestID)
			}
		}
		return msg, ackCallback, nil
	}
}

// Close closes the message channel.
func (m *MockConsumer) Close() error {
	m.logger.Println("[MockConsumer] Closing...")
	close(m.messages)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
