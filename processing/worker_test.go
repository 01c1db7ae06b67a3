package worker

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"sctrace/config"
	"sctrace/internal/messaging/consumer"
	"sctrace/internal/models"
	"sctrace/ledger"
	"sctrace/storage/store"
)

func newTestWorker(t *testing.T) (*Worker, *ledger.Ledger, *store.MemoryStore, *consumer.MockConsumer) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	cfg := config.WorkerConfig{
		Concurrency:        1,
		BatchSize:          10,
		BatchTimeout:       "50ms",
		ConsumerRetryDelay: "10ms",
		ArchiveTimeout:     "1s",
	}
	pool := ledger.NewPool()
	chain := ledger.New(pool)
	archive := store.NewMemoryStore()
	mc := consumer.NewEmptyMockConsumer(logger, 32)
	w := New(cfg, 0, logger, chain, pool, archive, mc)
	return w, chain, archive, mc
}

func custodyMessage(requestID string, productID int64, action string) *models.EventMessage {
	return &models.EventMessage{
		RequestID:   requestID,
		ProductID:   productID,
		Actor:       "Farmer",
		Location:    "Green Valley Farm",
		Action:      action,
		SubmittedAt: time.Now().Add(-time.Minute).Format(time.RFC3339Nano),
	}
}

func TestHandleBatchCommitsOneBlock(t *testing.T) {
	w, chain, archive, _ := newTestWorker(t)

	batch := []*models.EventMessage{
		custodyMessage("req-1", 1, "Harvested"),
		custodyMessage("req-2", 2, "Harvested"),
	}
	if err := w.handleBatch(context.Background(), batch); err != nil {
		t.Fatalf("handle batch: %v", err)
	}

	if chain.Length() != 2 {
		t.Fatalf("chain length = %d, want 2", chain.Length())
	}
	block := chain.LastBlock()
	if len(block.Events) != 2 {
		t.Fatalf("block has %d events, want 2", len(block.Events))
	}
	if block.Proof != ledger.DefaultCommitProof {
		t.Fatalf("zero commit proof not defaulted: %d", block.Proof)
	}
	if !chain.Validate() {
		t.Fatalf("chain invalid after batch commit")
	}

	archived := archive.Blocks()
	if len(archived) != 1 {
		t.Fatalf("archive holds %d blocks, want 1", len(archived))
	}
	if archived[0].Hash != block.Hash {
		t.Fatalf("archived block hash mismatch")
	}
}

func TestHandleBatchPreservesSubmissionTime(t *testing.T) {
	w, chain, _, _ := newTestWorker(t)

	submitted := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := custodyMessage("req-1", 1, "Harvested")
	msg.SubmittedAt = submitted.Format(time.RFC3339Nano)

	if err := w.handleBatch(context.Background(), []*models.EventMessage{msg}); err != nil {
		t.Fatalf("handle batch: %v", err)
	}

	ev := chain.LastBlock().Events[0]
	if !ev.Timestamp.Equal(submitted) {
		t.Fatalf("event timestamp = %v, want %v", ev.Timestamp, submitted)
	}
}

func TestHandleBatchDropsMalformedMessages(t *testing.T) {
	w, chain, archive, _ := newTestWorker(t)

	bad := custodyMessage("req-bad", 0, "Harvested") // no product id
	good := custodyMessage("req-good", 1, "Harvested")
	if err := w.handleBatch(context.Background(), []*models.EventMessage{bad, good}); err != nil {
		t.Fatalf("handle batch: %v", err)
	}

	block := chain.LastBlock()
	if len(block.Events) != 1 {
		t.Fatalf("block has %d events, want 1 (malformed dropped)", len(block.Events))
	}
	if block.Events[0].ProductID != 1 {
		t.Fatalf("wrong event survived: %+v", block.Events[0])
	}
	if len(archive.Blocks()) != 1 {
		t.Fatalf("archive holds %d blocks, want 1", len(archive.Blocks()))
	}
}

func TestHandleBatchAllMalformedCommitsNothing(t *testing.T) {
	w, chain, archive, _ := newTestWorker(t)

	bad := custodyMessage("req-bad", 0, "Harvested")
	if err := w.handleBatch(context.Background(), []*models.EventMessage{bad}); err != nil {
		t.Fatalf("handle batch: %v", err)
	}

	if chain.Length() != 1 {
		t.Fatalf("chain length = %d, want 1 (no block for an empty batch)", chain.Length())
	}
	if len(archive.Blocks()) != 0 {
		t.Fatalf("archive holds %d blocks, want 0", len(archive.Blocks()))
	}
}

func TestHandleBatchCancelledContext(t *testing.T) {
	w, chain, _, _ := newTestWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.handleBatch(ctx, []*models.EventMessage{custodyMessage("req-1", 1, "Harvested")})
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if chain.Length() != 1 {
		t.Fatalf("cancelled batch still committed a block")
	}
}

func TestRunConsumesAndCommits(t *testing.T) {
	w, chain, archive, mc := newTestWorker(t)

	for i, msg := range []*models.EventMessage{
		custodyMessage("req-1", 1, "Harvested"),
		custodyMessage("req-2", 1, "Shipped"),
	} {
		if !mc.Push(msg) {
			t.Fatalf("push message %d failed", i)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for len(archive.Blocks()) == 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("worker never archived a block")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	if !chain.Validate() {
		t.Fatalf("chain invalid after worker run")
	}
	if got := len(chain.Track(1)); got != 2 {
		t.Fatalf("product history has %d entries, want 2", got)
	}
}
