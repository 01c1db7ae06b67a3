package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"sctrace/config"
	"sctrace/internal/messaging/consumer"
	"sctrace/internal/models"
	"sctrace/ledger"
	"sctrace/storage/store"
)

// Worker consumes custody events from the message bus in batches,
// commits each batch as one block on the engine's ledger, and archives
// the committed block.
type Worker struct {
	workerConfig       config.WorkerConfig
	batchTimeout       time.Duration // Parsed from workerConfig.BatchTimeout
	consumerRetryDelay time.Duration // Parsed from workerConfig.ConsumerRetryDelay
	archiveTimeout     time.Duration // Parsed from workerConfig.ArchiveTimeout

	commitProof int64
	logger      *log.Logger
	chain       *ledger.Ledger
	pool        *ledger.Pool
	archive     store.Store
	consumer    consumer.Consumer
}

// New creates a new Worker instance.
func New(cfg config.WorkerConfig, commitProof int64, logger *log.Logger,
	chain *ledger.Ledger, pool *ledger.Pool, archive store.Store, c consumer.Consumer) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	batchTimeout, err := time.ParseDuration(cfg.BatchTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid batch_timeout '%s', using default 1s", cfg.BatchTimeout)
		batchTimeout = 1 * time.Second
	}

	consumerRetryDelay, err := time.ParseDuration(cfg.ConsumerRetryDelay)
	if err != nil {
		logger.Printf("Warning: Invalid consumer_retry_delay '%s', using default 5s", cfg.ConsumerRetryDelay)
		consumerRetryDelay = 5 * time.Second
	}

	archiveTimeout, err := time.ParseDuration(cfg.ArchiveTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid archive_timeout '%s', using default 15s", cfg.ArchiveTimeout)
		archiveTimeout = 15 * time.Second
	}

	if commitProof == 0 {
		commitProof = ledger.DefaultCommitProof
	}

	return &Worker{
		workerConfig:       cfg,
		batchTimeout:       batchTimeout,
		consumerRetryDelay: consumerRetryDelay,
		archiveTimeout:     archiveTimeout,
		commitProof:        commitProof,
		logger:             logger,
		chain:              chain,
		pool:               pool,
		archive:            archive,
		consumer:           c,
	}
}

// Run starts the worker pool. Workers may share one ledger: the pool
// absorbs concurrent enqueues and each commit drains whatever is
// pending, so every consumed event lands in some block no later than
// its own worker's commit.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Printf("Starting worker pool with concurrency: %d, BatchSize: %d, BatchTimeout: %s",
		w.workerConfig.Concurrency, w.workerConfig.BatchSize, w.batchTimeout)
	var wg sync.WaitGroup
	for i := 0; i < w.workerConfig.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.logger.Printf("Worker %d started", workerID)
			w.processMessagesInBatch(ctx, workerID)
			w.logger.Printf("Worker %d stopped", workerID)
		}(i + 1)
	}
	wg.Wait()
	w.logger.Println("Worker pool stopped.")
}

// processMessagesInBatch is the main loop for a worker goroutine.
func (w *Worker) processMessagesInBatch(ctx context.Context, workerID int) {
	batchMessages := make([]*models.EventMessage, 0, w.workerConfig.BatchSize)
	acks := make([]func(success bool), 0, w.workerConfig.BatchSize)
	batchTimer := time.NewTimer(0)
	if !batchTimer.Stop() {
		select {
		case <-batchTimer.C:
		default:
		}
	}

	processBatch := func() {
		if len(batchMessages) == 0 {
			return
		}

		if !batchTimer.Stop() {
			select {
			case <-batchTimer.C:
			default:
			}
		}

		w.processAndAckBatch(ctx, workerID, batchMessages, acks)

		batchMessages = make([]*models.EventMessage, 0, w.workerConfig.BatchSize)
		acks = make([]func(success bool), 0, w.workerConfig.BatchSize)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Printf("Worker %d: Context cancelled, stopping.", workerID)
			for _, ack := range acks {
				ack(false)
			}
			return

		case <-batchTimer.C:
			processBatch()

		default:
			consumeCtx, consumeCancel := context.WithTimeout(ctx, 100*time.Millisecond)
			msg, ack, err := w.consumer.Consume(consumeCtx)
			consumeCancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.Printf("Worker %d: Consumer error: %v", workerID, err)
				time.Sleep(w.consumerRetryDelay)
				continue
			}

			if msg != nil {
				if len(batchMessages) == 0 {
					batchTimer.Reset(w.batchTimeout)
				}

				batchMessages = append(batchMessages, msg)
				acks = append(acks, ack)

				if len(batchMessages) >= w.workerConfig.BatchSize {
					processBatch()
				}
			}
		}
	}
}

// processAndAckBatch handles processing and message acknowledgement.
func (w *Worker) processAndAckBatch(ctx context.Context, workerID int, batch []*models.EventMessage, acks []func(success bool)) {
	if err := w.handleBatch(ctx, batch); err != nil {
		w.logger.Printf("Worker %d: Batch failed: %v (nacking %d messages)", workerID, err, len(acks))
		for _, ack := range acks {
			ack(false)
		}
		return
	}
	for _, ack := range acks {
		ack(true)
	}
}

// handleBatch enqueues the batch and commits it as one block. Malformed
// messages are logged and dropped; a redelivery could never make them
// valid. Archive failures do not nack: the block is already committed
// and a redelivery would commit its events twice.
func (w *Worker) handleBatch(ctx context.Context, batch []*models.EventMessage) error {
	if len(batch) == 0 {
		return nil
	}
	// Nothing is enqueued yet; a cancelled batch can safely be redelivered.
	if err := ctx.Err(); err != nil {
		return err
	}
	batchStart := time.Now()

	enqueued := 0
	for _, msg := range batch {
		ev := ledger.Event{
			ProductID: msg.ProductID,
			Actor:     msg.Actor,
			Location:  msg.Location,
			Action:    msg.Action,
			Quantity:  msg.Quantity,
			BatchID:   msg.BatchID,
			Transport: msg.Transport,
			Notes:     msg.Notes,
			Receiver:  msg.Receiver,
		}
		if ts, err := time.Parse(time.RFC3339Nano, msg.SubmittedAt); err == nil {
			ev.Timestamp = ts
		} else {
			w.logger.Printf("Invalid submitted_at '%s' (request_id %s), stamping receive time", msg.SubmittedAt, msg.RequestID)
		}
		if err := ev.Validate(); err != nil {
			w.logger.Printf("Dropping malformed event (request_id %s): %v", msg.RequestID, err)
			continue
		}
		w.pool.Enqueue(ev)
		enqueued++
	}

	if enqueued == 0 {
		return nil
	}

	block := w.chain.Commit(w.commitProof)

	archiveCtx, cancel := context.WithTimeout(ctx, w.archiveTimeout)
	defer cancel()
	archiveStart := time.Now()
	if err := w.archive.InsertBlock(archiveCtx, block); err != nil {
		w.logger.Printf("CRITICAL: Failed to archive block %d (%d events): %v", block.Index, len(block.Events), err)
	}

	w.logger.Printf("Batch performance: size=%d, enqueued=%d, block=%d, block_events=%d, archive=%v, total=%v",
		len(batch), enqueued, block.Index, len(block.Events), time.Since(archiveStart), time.Since(batchStart))

	return nil
}
