package store

import (
	"context"

	"sctrace/ledger"
)

// Store archives committed blocks. The durable record is the block's
// canonical key-sorted serialization, the exact bytes the chain hash is
// computed over, plus one flattened row per event for dashboard queries.
type Store interface {
	// InsertBlock persists a committed block and its event rows.
	InsertBlock(ctx context.Context, block ledger.Block) error

	// LatestBlockIndex returns the highest archived block index, and
	// false when the archive is empty.
	LatestBlockIndex(ctx context.Context) (int64, bool, error)

	// Close releases the store's resources.
	Close()
}
