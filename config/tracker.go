package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// KafkaProducerConfig defines configuration for the Kafka producer that
// feeds accepted events to the archiver engine.
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Batch processing settings
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	BatchBytes   int           `yaml:"batch_bytes"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// BatchPublisherConfig defines configuration for the gateway-side event
// batch publisher.
type BatchPublisherConfig struct {
	BatchSize          int           `yaml:"batch_size"`
	BatchTimeout       time.Duration `yaml:"batch_timeout"`
	FlushChannelBuffer int           `yaml:"flush_channel_buffer"`
}

// SetDefaults sets reasonable default values for the batch publisher.
func (c *BatchPublisherConfig) SetDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 100
		fmt.Printf("Warning: batch_publisher.batch_size not set, defaulting to %d\n", c.BatchSize)
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 100 * time.Millisecond
		fmt.Printf("Warning: batch_publisher.batch_timeout not set, defaulting to %v\n", c.BatchTimeout)
	}
	if c.FlushChannelBuffer == 0 {
		c.FlushChannelBuffer = 100
		fmt.Printf("Warning: batch_publisher.flush_channel_buffer not set, defaulting to %d\n", c.FlushChannelBuffer)
	}
}

// HttpServerConfig defines HTTP server tuning.
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// TrackerConfig defines all configuration required by the tracker
// gateway.
type TrackerConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`

	KafkaProducer  KafkaProducerConfig  `yaml:"kafka_producer"`
	BatchPublisher BatchPublisherConfig `yaml:"batch_publisher"`
	HttpServer     HttpServerConfig     `yaml:"http_server"`
	Ledger         LedgerConfig         `yaml:"ledger"`
}

// LoadTrackerConfig loads tracker gateway configuration from the
// specified YAML file path.
func LoadTrackerConfig(path string) (*TrackerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracker config file '%s': %w", path, err)
	}

	var cfg TrackerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tracker YAML config file: %w", err)
	}

	cfg.BatchPublisher.SetDefaults()
	cfg.Ledger.SetDefaults()

	if cfg.HttpListenAddr == "" {
		return nil, fmt.Errorf("configuration error: http_listen_addr must be configured")
	}

	return &cfg, nil
}
