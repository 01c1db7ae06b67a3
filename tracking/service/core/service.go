package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"sctrace/internal/messaging/producer"
	"sctrace/internal/models"
	"sctrace/ledger"
)

// EventInput defines the information required to submit a custody event.
type EventInput struct {
	ProductID int64
	Actor     string
	Location  string
	Action    string
	Quantity  float64
	BatchID   string
	Transport string
	Notes     string
	Receiver  string
}

// EventResult defines the return information after a successful
// submission. The event itself stays anonymous inside the ledger; the
// request id only identifies the submission on the message bus.
type EventResult struct {
	RequestID   string
	SubmittedAt time.Time
	Pending     int
}

// Service encapsulates the core business logic of the tracker gateway:
// it owns the ledger, its pending pool, and the product registry, and
// forwards accepted events to the archiver engine through the batch
// publisher.
type Service struct {
	ledger    *ledger.Ledger
	pool      *ledger.Pool
	registry  *ledger.Registry
	logger    *log.Logger
	publisher *BatchPublisher
}

// NewService creates a new Service instance with configuration.
func NewService(l *ledger.Ledger, pool *ledger.Pool, reg *ledger.Registry, p producer.Producer,
	logger *log.Logger, batchSize int, batchTimeout time.Duration, flushChannelBuffer int) *Service {
	return &Service{
		ledger:    l,
		pool:      pool,
		registry:  reg,
		logger:    logger,
		publisher: NewBatchPublisher(batchSize, batchTimeout, flushChannelBuffer, p, logger),
	}
}

// RegisterProduct allocates and returns the next product identifier.
func (s *Service) RegisterProduct() int64 {
	return s.registry.Register()
}

// SubmitEvent validates and enqueues one custody event, then hands it
// to the batch publisher for the downstream archiver. The submission
// timestamp is stamped at enqueue time; the block timestamp is set
// later, at commit time.
func (s *Service) SubmitEvent(ctx context.Context, input *EventInput) (*EventResult, error) {
	ev := ledger.Event{
		ProductID: input.ProductID,
		Actor:     input.Actor,
		Location:  input.Location,
		Action:    input.Action,
		Quantity:  input.Quantity,
		BatchID:   input.BatchID,
		Transport: input.Transport,
		Notes:     input.Notes,
		Receiver:  input.Receiver,
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	ev = s.pool.Enqueue(ev)
	requestID := uuid.NewString()

	msg := &models.EventMessage{
		RequestID:   requestID,
		ProductID:   ev.ProductID,
		Actor:       ev.Actor,
		Location:    ev.Location,
		Action:      ev.Action,
		Quantity:    ev.Quantity,
		BatchID:     ev.BatchID,
		Transport:   ev.Transport,
		Notes:       ev.Notes,
		Receiver:    ev.Receiver,
		SubmittedAt: ev.Timestamp.Format(time.RFC3339Nano),
	}
	go s.publisher.Submit(msg)

	return &EventResult{
		RequestID:   requestID,
		SubmittedAt: ev.Timestamp,
		Pending:     s.pool.Len(),
	}, nil
}

// CommitPending drains the pending pool into a new block. Proof is a
// placeholder value; zero selects the default.
func (s *Service) CommitPending(proof int64) ledger.Block {
	if proof == 0 {
		proof = ledger.DefaultCommitProof
	}
	return s.ledger.Commit(proof)
}

// IsValid reports whether the chain passes hash and linkage checks.
func (s *Service) IsValid() bool {
	return s.ledger.Validate()
}

// History returns the custody trail of one product.
func (s *Service) History(productID int64) []ledger.HistoryEntry {
	return s.ledger.Track(productID)
}

// SummaryRows returns every committed event as a flat row.
func (s *Service) SummaryRows() []ledger.SummaryRow {
	return s.ledger.SummarizeAll()
}

// ChainView returns a read-only copy of the chain for explorer display.
func (s *Service) ChainView() []ledger.Block {
	return s.ledger.ChainView()
}

// ChainLength reports the number of blocks, genesis included.
func (s *Service) ChainLength() int {
	return s.ledger.Length()
}

// PendingCount reports events awaiting commitment.
func (s *Service) PendingCount() int {
	return s.pool.Len()
}

// Close gracefully shuts down the service.
func (s *Service) Close() {
	s.publisher.Close()
}
