package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"sctrace/config"
	"sctrace/internal/messaging/consumer"
	"sctrace/ledger"
	worker "sctrace/processing"
	"sctrace/storage/store"
)

const engineConfigPath = "./config/engine.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[ENGINE] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Archiver Engine...")

	// 1. Load Engine Config
	engineCfg, err := config.LoadEngineConfig(engineConfigPath)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load engine configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize the block archive
	var archive store.Store
	if engineCfg.Database.DSN != "" {
		logger.Println("Initializing database connection...")
		pgStore, err := store.NewPostgresStore(ctx, engineCfg.Database.DSN,
			engineCfg.Database.MinConnections, engineCfg.Database.MaxConnections, logger)
		if err != nil {
			logger.Fatalf("FATAL: Failed to initialize database store: %v", err)
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatalf("FATAL: Failed to ensure archive schema: %v", err)
		}
		archive = pgStore
	} else {
		logger.Println("No database DSN configured, using in-memory archive.")
		archive = store.NewMemoryStore()
	}
	defer archive.Close()

	// 3. Initialize Multiple Consumers
	var mqConsumers []consumer.Consumer
	if len(engineCfg.KafkaConsumer.Brokers) > 0 && engineCfg.KafkaConsumer.Brokers[0] != "mock://local" {
		logger.Printf("Initializing %d Kafka message queue consumers...", engineCfg.KafkaConsumer.Count)
		for i := 0; i < engineCfg.KafkaConsumer.Count; i++ {
			kafkaConsumer, err := consumer.NewKafkaConsumer(engineCfg.KafkaConsumer, logger)
			if err != nil {
				logger.Fatalf("FATAL: Failed to initialize Kafka consumer %d: %v", i, err)
			}
			mqConsumers = append(mqConsumers, kafkaConsumer)
		}
	} else {
		logger.Println("Initializing Mock message queue consumer...")
		mqConsumers = append(mqConsumers, consumer.NewMockConsumer(logger))
	}

	defer func() {
		for _, c := range mqConsumers {
			c.Close()
		}
	}()

	// 4. Construct the engine's ledger. All workers share it: one
	// chain, one pool, one linear history.
	pool := ledger.NewPool()
	chain := ledger.New(pool)
	logger.Printf("Ledger initialized, genesis hash: %s", chain.LastBlock().Hash)

	// 5. Create and start one worker per consumer
	var wg sync.WaitGroup
	for i, c := range mqConsumers {
		workerInstance := worker.New(engineCfg.Worker, engineCfg.Ledger.CommitProof,
			logger, chain, pool, archive, c)

		wg.Add(1)
		go func(workerID int, w *worker.Worker) {
			defer wg.Done()
			logger.Printf("Starting worker %d with its dedicated consumer...", workerID)
			w.Run(ctx)
			logger.Printf("Worker %d stopped.", workerID)
		}(i+1, workerInstance)
	}

	logger.Printf("Archiver Engine started with %d workers. Press Ctrl+C to stop.", len(mqConsumers))

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("Received shutdown signal, initiating graceful shutdown...")
	cancel()

	logger.Println("Waiting for all workers to finish...")
	wg.Wait()

	logger.Printf("Final chain state: length=%d, valid=%t", chain.Length(), chain.Validate())
	logger.Println("Archiver Engine shut down gracefully.")
}
