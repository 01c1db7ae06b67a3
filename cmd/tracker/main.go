package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sctrace/config"
	"sctrace/internal/messaging/producer"
	core "sctrace/tracking/service/core"
	httphandler "sctrace/tracking/service/http"

	"sctrace/ledger"
)

// Tracker gateway configuration file path
const trackerConfigPath = "./config/tracker.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[TRACKER] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Tracker Gateway...")

	// 1. Load gateway configuration
	cfg, err := config.LoadTrackerConfig(trackerConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load tracker configuration: %v", err)
	}

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize the event producer. Without brokers the gateway
	// still serves the full API; accepted events just stay local.
	var eventProducer producer.Producer
	if len(cfg.KafkaProducer.Brokers) > 0 && cfg.KafkaProducer.Brokers[0] != "mock://local" {
		logger.Println("Initializing Kafka producer...")
		kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaProducer, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize Kafka producer: %v", err)
		}
		eventProducer = kafkaProducer
	} else {
		logger.Println("No Kafka brokers configured, using mock producer.")
		eventProducer = producer.NewMockProducer(logger)
	}
	defer eventProducer.Close()

	// 3. Construct the ledger and the core service
	pool := ledger.NewPool()
	chain := ledger.New(pool)
	registry := ledger.NewRegistry()
	logger.Printf("Ledger initialized, genesis hash: %s", chain.LastBlock().Hash)

	coreService := core.NewService(
		chain,
		pool,
		registry,
		eventProducer,
		logger,
		cfg.BatchPublisher.BatchSize,
		cfg.BatchPublisher.BatchTimeout,
		cfg.BatchPublisher.FlushChannelBuffer,
	)
	defer coreService.Close()
	handler := httphandler.NewTrackerHandler(coreService, logger)

	// 4. HTTP server
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/products", handler.RegisterProduct)
	mux.HandleFunc("/v1/events", handler.SubmitEvent)
	mux.HandleFunc("/v1/commits", handler.CommitPending)
	mux.HandleFunc("/v1/chain", handler.Chain)
	mux.HandleFunc("/v1/chain/valid", handler.ChainValid)
	mux.HandleFunc("/v1/history", handler.History)
	mux.HandleFunc("/v1/ledger/rows", handler.SummaryRows)
	mux.HandleFunc("/health", handler.HealthCheck)

	readTimeout := cfg.HttpServer.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 5 * time.Second
	}
	writeTimeout := cfg.HttpServer.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	idleTimeout := cfg.HttpServer.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}
	maxHeaderBytes := cfg.HttpServer.MaxHeaderBytes
	if maxHeaderBytes == 0 {
		maxHeaderBytes = 1 << 20 // 1 MB
	}

	httpServer := &http.Server{
		Addr:           cfg.HttpListenAddr,
		Handler:        mux,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Printf("HTTP server listening on %s", cfg.HttpListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server startup failed: %v", err)
		}
		logger.Println("HTTP server stopped listening.")
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown of Tracker Gateway...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	logger.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown failed: %v", err)
	} else {
		logger.Println("HTTP server shutdown.")
	}

	wg.Wait()
	logger.Printf("Final chain state: length=%d, valid=%t", coreService.ChainLength(), coreService.IsValid())
	logger.Println("Tracker Gateway shutdown.")
}
