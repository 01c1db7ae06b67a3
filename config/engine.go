package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// KafkaConsumerConfig defines configuration for the Kafka consumers the
// archiver engine reads custody events from.
type KafkaConsumerConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	GroupID           string   `yaml:"group_id"`
	Count             int      `yaml:"count"`
	SessionTimeout    string   `yaml:"session_timeout"`
	HeartbeatInterval string   `yaml:"heartbeat_interval"`
	AutoOffsetReset   string   `yaml:"auto_offset_reset"`
}

// SetDefaults sets reasonable default values for the Kafka consumer
// configuration.
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.Count <= 0 {
		c.Count = 1
		fmt.Printf("Warning: kafka_consumer.count not set or invalid, defaulting to %d\n", c.Count)
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
		fmt.Printf("Warning: kafka_consumer.session_timeout not set, defaulting to %s\n", c.SessionTimeout)
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
		fmt.Printf("Warning: kafka_consumer.heartbeat_interval not set, defaulting to %s\n", c.HeartbeatInterval)
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
		fmt.Printf("Warning: kafka_consumer.auto_offset_reset not set, defaulting to %s\n", c.AutoOffsetReset)
	}
}

// WorkerConfig defines configuration for the engine's commit workers.
type WorkerConfig struct {
	Concurrency        int    `yaml:"concurrency"`          // Worker goroutines per consumer
	BatchSize          int    `yaml:"batch_size"`           // Events per committed block
	BatchTimeout       string `yaml:"batch_timeout"`        // Maximum wait before committing a partial batch
	ConsumerRetryDelay string `yaml:"consumer_retry_delay"` // Delay after consumer errors
	ArchiveTimeout     string `yaml:"archive_timeout"`      // Timeout for archive writes
}

// SetDefaults sets reasonable default values for worker configuration.
func (c *WorkerConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
		fmt.Printf("Warning: worker.concurrency not set or invalid, defaulting to %d\n", c.Concurrency)
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
		fmt.Printf("Warning: worker.batch_size not set or invalid, defaulting to %d\n", c.BatchSize)
	}
	if c.BatchTimeout == "" {
		c.BatchTimeout = "1s"
		fmt.Printf("Warning: worker.batch_timeout not set, defaulting to %s\n", c.BatchTimeout)
	}
	if c.ConsumerRetryDelay == "" {
		c.ConsumerRetryDelay = "5s"
		fmt.Printf("Warning: worker.consumer_retry_delay not set, defaulting to %s\n", c.ConsumerRetryDelay)
	}
	if c.ArchiveTimeout == "" {
		c.ArchiveTimeout = "15s"
		fmt.Printf("Warning: worker.archive_timeout not set, defaulting to %s\n", c.ArchiveTimeout)
	}
}

// EngineConfig defines all configuration for the archiver engine.
type EngineConfig struct {
	Database      DatabaseConfig      `yaml:"database"`
	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"`
	Worker        WorkerConfig        `yaml:"worker"`
	Ledger        LedgerConfig        `yaml:"ledger"`
}

// LoadEngineConfig loads engine configuration from the specified YAML
// file path.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	cfg.Database.SetDefaults()
	cfg.KafkaConsumer.SetDefaults()
	cfg.Worker.SetDefaults()
	cfg.Ledger.SetDefaults()

	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}

	return &cfg, nil
}
