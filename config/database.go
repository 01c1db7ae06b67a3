package config

import "fmt"

// DatabaseConfig defines the PostgreSQL connection settings used by the
// archiver engine. An empty DSN means the engine runs with the
// in-memory archive instead.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConnections int    `yaml:"max_connections"`
	MinConnections int    `yaml:"min_connections"`
}

// SetDefaults sets sensible default values for the database configuration.
func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 20
		fmt.Printf("Warning: database.max_connections not set or invalid, defaulting to %d\n", c.MaxConnections)
	}
	if c.MinConnections <= 0 {
		c.MinConnections = 2
		fmt.Printf("Warning: database.min_connections not set or invalid, defaulting to %d\n", c.MinConnections)
	}
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min_connections (%d) cannot be greater than max_connections (%d)",
			c.MinConnections, c.MaxConnections)
	}
	return nil
}
