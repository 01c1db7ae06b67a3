package producer

import (
	"context"
	"log"
	"sync"

	"sctrace/internal/models"
)

// MockProducer records published messages in memory. It backs tests and
// broker-less tracker runs.
type MockProducer struct {
	logger *log.Logger

	mu        sync.Mutex
	published []*models.EventMessage
	closed    bool
}

func NewMockProducer(logger *log.Logger) *MockProducer {
	return &MockProducer{logger: logger}
}

// Publish records a single message.
func (m *MockProducer) Publish(ctx context.Context, msg *models.EventMessage) error {
	return m.PublishBatch(ctx, []*models.EventMessage{msg})
}

// PublishBatch records every message in the batch.
func (m *MockProducer) PublishBatch(_ context.Context, msgs []*models.EventMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, msgs...)
	m.logger.Printf("[MockProducer] Recorded %d messages (total %d)", len(msgs), len(m.published))
	return nil
}

// Published returns a snapshot of everything recorded so far.
func (m *MockProducer) Published() []*models.EventMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.EventMessage, len(m.published))
	copy(out, m.published)
	return out
}

// Close marks the producer closed.
func (m *MockProducer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.logger.Println("[MockProducer] Closed")
	return nil
}

var _ Producer = (*MockProducer)(nil)
