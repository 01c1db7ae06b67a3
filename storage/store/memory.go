package store

import (
	"context"
	"fmt"
	"sync"

	"sctrace/ledger"
)

// MemoryStore keeps archived blocks in memory. It backs tests and
// engine runs without a database DSN.
type MemoryStore struct {
	mu     sync.Mutex
	blocks []ledger.Block
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertBlock appends the block. Indexes must arrive strictly
// increasing, mirroring the uniqueness the Postgres schema enforces.
func (s *MemoryStore) InsertBlock(_ context.Context, block ledger.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.blocks); n > 0 && block.Index <= s.blocks[n-1].Index {
		return fmt.Errorf("duplicate block index %d", block.Index)
	}
	s.blocks = append(s.blocks, block)
	return nil
}

// LatestBlockIndex returns the highest archived block index.
func (s *MemoryStore) LatestBlockIndex(_ context.Context) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.blocks) == 0 {
		return 0, false, nil
	}
	return s.blocks[len(s.blocks)-1].Index, true, nil
}

// Blocks returns a snapshot of the archived blocks.
func (s *MemoryStore) Blocks() []ledger.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Close is a no-op for the in-memory archive.
func (s *MemoryStore) Close() {}

var _ Store = (*MemoryStore)(nil)
