package service

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"sctrace/internal/messaging/producer"
	"sctrace/ledger"
)

func newTestService(t *testing.T) (*Service, *producer.MockProducer) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	mock := producer.NewMockProducer(logger)
	pool := ledger.NewPool()
	chain := ledger.New(pool)
	svc := NewService(chain, pool, ledger.NewRegistry(), mock, logger, 10, 20*time.Millisecond, 10)
	t.Cleanup(svc.Close)
	return svc, mock
}

func validInput() *EventInput {
	return &EventInput{
		ProductID: 1,
		Actor:     "Farmer",
		Location:  "Green Valley Farm",
		Action:    "Harvested",
		Quantity:  120.5,
	}
}

func TestRegisterProductSequence(t *testing.T) {
	svc, _ := newTestService(t)
	if id := svc.RegisterProduct(); id != 1 {
		t.Fatalf("first product id = %d, want 1", id)
	}
	if id := svc.RegisterProduct(); id != 2 {
		t.Fatalf("second product id = %d, want 2", id)
	}
}

func TestSubmitEventAccepted(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.SubmitEvent(context.Background(), validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.RequestID == "" {
		t.Fatalf("no request id assigned")
	}
	if result.SubmittedAt.IsZero() {
		t.Fatalf("no submission timestamp stamped")
	}
	if result.Pending != 1 {
		t.Fatalf("pending = %d, want 1", result.Pending)
	}
	if svc.PendingCount() != 1 {
		t.Fatalf("service pending count = %d, want 1", svc.PendingCount())
	}
}

func TestSubmitEventRejectsInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	input := validInput()
	input.Actor = ""
	_, err := svc.SubmitEvent(context.Background(), input)
	if err == nil {
		t.Fatalf("expected invalid event to be rejected")
	}
	if !errors.Is(err, ledger.ErrInvalidEvent) {
		t.Fatalf("error %v does not wrap ErrInvalidEvent", err)
	}
	if svc.PendingCount() != 0 {
		t.Fatalf("rejected event landed in the pool")
	}
}

func TestSubmitThenCommit(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.SubmitEvent(context.Background(), validInput()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	second := validInput()
	second.Action = "Shipped"
	if _, err := svc.SubmitEvent(context.Background(), second); err != nil {
		t.Fatalf("submit: %v", err)
	}

	block := svc.CommitPending(0)
	if block.Proof != ledger.DefaultCommitProof {
		t.Fatalf("zero proof not defaulted: got %d", block.Proof)
	}
	if len(block.Events) != 2 {
		t.Fatalf("committed block has %d events, want 2", len(block.Events))
	}
	if svc.PendingCount() != 0 {
		t.Fatalf("pool not drained by commit")
	}
	if !svc.IsValid() {
		t.Fatalf("chain invalid after commit")
	}
	if svc.ChainLength() != 2 {
		t.Fatalf("chain length = %d, want 2", svc.ChainLength())
	}

	history := svc.History(1)
	if len(history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(history))
	}
	rows := svc.SummaryRows()
	if len(rows) != 2 {
		t.Fatalf("summary has %d rows, want 2", len(rows))
	}
}

func TestSubmitEventReachesProducer(t *testing.T) {
	svc, mock := newTestService(t)

	result, err := svc.SubmitEvent(context.Background(), validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Publishing is asynchronous behind the batch publisher; poll until
	// the flush timer fires.
	deadline := time.Now().Add(2 * time.Second)
	for {
		published := mock.Published()
		if len(published) == 1 {
			msg := published[0]
			if msg.RequestID != result.RequestID {
				t.Fatalf("published request id = %q, want %q", msg.RequestID, result.RequestID)
			}
			if msg.SubmittedAt != result.SubmittedAt.Format(time.RFC3339Nano) {
				t.Fatalf("published submitted_at = %q, want %q", msg.SubmittedAt, result.SubmittedAt.Format(time.RFC3339Nano))
			}
			if msg.ProductID != 1 || msg.Action != "Harvested" {
				t.Fatalf("published payload mismatch: %+v", msg)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("message never published, got %d", len(published))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCloseFlushesBufferedMessages(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	mock := producer.NewMockProducer(logger)
	pool := ledger.NewPool()
	chain := ledger.New(pool)
	// Long timeout so only Close can flush.
	svc := NewService(chain, pool, ledger.NewRegistry(), mock, logger, 100, time.Hour, 10)

	if _, err := svc.SubmitEvent(context.Background(), validInput()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Submit hands the message to the publisher on a goroutine; wait
	// for it to land in the buffer before closing.
	time.Sleep(50 * time.Millisecond)
	svc.Close()

	if got := len(mock.Published()); got != 1 {
		t.Fatalf("close flushed %d messages, want 1", got)
	}
}
