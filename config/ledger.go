package config

import "fmt"

// LedgerConfig carries the vestigial proof placeholder supplied to
// block commits. The value encodes no work; it exists for record-format
// compatibility.
type LedgerConfig struct {
	CommitProof int64 `yaml:"commit_proof"`
}

// SetDefaults sets the default commit proof.
func (c *LedgerConfig) SetDefaults() {
	if c.CommitProof == 0 {
		c.CommitProof = 123
		fmt.Printf("Warning: ledger.commit_proof not set, defaulting to %d\n", c.CommitProof)
	}
}
