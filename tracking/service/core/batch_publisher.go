package service

import (
	"context"
	"log"
	"sync"
	"time"

	"sctrace/internal/messaging/producer"
	"sctrace/internal/models"
)

// BatchPublisher batches accepted event messages and publishes them to
// the message bus, decoupling gateway latency from broker round trips.
type BatchPublisher struct {
	batchSize    int
	batchTimeout time.Duration
	logger       *log.Logger
	producer     producer.Producer

	// Buffers
	buffer      []*models.EventMessage
	bufferMutex sync.Mutex
	ticker      *time.Ticker
	flushChan   chan []*models.EventMessage

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBatchPublisher creates a batch publisher and starts its background
// timer and flush goroutines.
func NewBatchPublisher(batchSize int, batchTimeout time.Duration, flushChannelBuffer int,
	p producer.Producer, logger *log.Logger) *BatchPublisher {

	ctx, cancel := context.WithCancel(context.Background())

	bp := &BatchPublisher{
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		logger:       logger,
		producer:     p,
		buffer:       make([]*models.EventMessage, 0, batchSize),
		flushChan:    make(chan []*models.EventMessage, flushChannelBuffer),
		ctx:          ctx,
		cancel:       cancel,
	}

	bp.wg.Add(2)
	go bp.batchTimer()
	go bp.flushLoop()

	return bp
}

// Submit adds a message to the current batch, flushing when the batch
// fills.
func (bp *BatchPublisher) Submit(msg *models.EventMessage) {
	bp.bufferMutex.Lock()
	bp.buffer = append(bp.buffer, msg)
	shouldFlush := len(bp.buffer) >= bp.batchSize
	bp.bufferMutex.Unlock()

	if shouldFlush {
		select {
		case bp.flushChan <- bp.getAndResetBuffer():
		default:
			bp.logger.Printf("Flush channel full, will flush on next timer")
		}
	}
}

// batchTimer handles periodic flushing.
func (bp *BatchPublisher) batchTimer() {
	defer bp.wg.Done()

	bp.ticker = time.NewTicker(bp.batchTimeout)
	defer bp.ticker.Stop()

	for {
		select {
		case <-bp.ticker.C:
			bp.flushIfNeeded()
		case <-bp.ctx.Done():
			return
		}
	}
}

// flushLoop publishes flushed batches.
func (bp *BatchPublisher) flushLoop() {
	defer bp.wg.Done()

	for {
		select {
		case batch := <-bp.flushChan:
			if len(batch) > 0 {
				bp.publishBatch(batch)
			}
		case <-bp.ctx.Done():
			// Publish whatever is still buffered before shutdown.
			bp.bufferMutex.Lock()
			remaining := bp.buffer
			bp.buffer = nil
			bp.bufferMutex.Unlock()

			if len(remaining) > 0 {
				bp.publishBatch(remaining)
			}
			return
		}
	}
}

// flushIfNeeded flushes the buffer if it has entries.
func (bp *BatchPublisher) flushIfNeeded() {
	bp.bufferMutex.Lock()
	if len(bp.buffer) == 0 {
		bp.bufferMutex.Unlock()
		return
	}

	batch := make([]*models.EventMessage, len(bp.buffer))
	copy(batch, bp.buffer)
	bp.buffer = bp.buffer[:0]
	bp.bufferMutex.Unlock()

	select {
	case bp.flushChan <- batch:
	default:
		// Flush channel full: put the batch back for the next tick.
		bp.bufferMutex.Lock()
		bp.buffer = append(batch, bp.buffer...)
		bp.bufferMutex.Unlock()
	}
}

// getAndResetBuffer safely gets the current buffer and resets it.
func (bp *BatchPublisher) getAndResetBuffer() []*models.EventMessage {
	bp.bufferMutex.Lock()
	defer bp.bufferMutex.Unlock()

	batch := make([]*models.EventMessage, len(bp.buffer))
	copy(batch, bp.buffer)
	bp.buffer = bp.buffer[:0]
	return batch
}

// publishBatch sends one batch to the bus. Failures are logged; the
// events are already in the pending pool, so the ledger itself loses
// nothing when the bus is down.
func (bp *BatchPublisher) publishBatch(batch []*models.EventMessage) {
	start := time.Now()
	if err := bp.producer.PublishBatch(context.Background(), batch); err != nil {
		bp.logger.Printf("Batch publish failed (%d messages): %v", len(batch), err)
		return
	}
	bp.logger.Printf("Batch published: %d messages in %v", len(batch), time.Since(start))
}

// Close gracefully shuts down the batch publisher.
func (bp *BatchPublisher) Close() {
	bp.cancel()
	bp.wg.Wait()
	close(bp.flushChan)
}
