package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sctrace/ledger"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS blocks (
    block_index   BIGINT PRIMARY KEY,
    committed_at  TIMESTAMPTZ NOT NULL,
    proof         BIGINT NOT NULL,
    previous_hash TEXT NOT NULL,
    hash          TEXT NOT NULL,
    canonical     JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS block_events (
    block_index  BIGINT NOT NULL REFERENCES blocks(block_index),
    position     INT NOT NULL,
    product_id   BIGINT NOT NULL,
    actor        TEXT NOT NULL,
    location     TEXT NOT NULL,
    action       TEXT NOT NULL,
    quantity     DOUBLE PRECISION NOT NULL DEFAULT 0,
    batch_id     TEXT NOT NULL DEFAULT '',
    transport    TEXT NOT NULL DEFAULT '',
    notes        TEXT NOT NULL DEFAULT '',
    receiver     TEXT NOT NULL DEFAULT '',
    submitted_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (block_index, position)
);
CREATE INDEX IF NOT EXISTS block_events_product_idx ON block_events (product_id, block_index, position);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgresStore connects a pgx pool and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string, minConns, maxConns int, logger *log.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	cfg.MinConns = int32(minConns)
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Println("PostgreSQL connection pool established.")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the archive tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure archive schema: %w", err)
	}
	return nil
}

// InsertBlock writes the block record and its event rows in one
// transaction, so a partially archived block never becomes visible.
func (s *PostgresStore) InsertBlock(ctx context.Context, block ledger.Block) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO blocks (block_index, committed_at, proof, previous_hash, hash, canonical)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		block.Index, block.Timestamp, block.Proof, block.PreviousHash, block.Hash,
		ledger.MarshalCanonical(block),
	)
	if err != nil {
		return fmt.Errorf("failed to insert block %d: %w", block.Index, err)
	}

	batch := &pgx.Batch{}
	for i, ev := range block.Events {
		batch.Queue(
			`INSERT INTO block_events (block_index, position, product_id, actor, location, action,
			                           quantity, batch_id, transport, notes, receiver, submitted_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			block.Index, i, ev.ProductID, ev.Actor, ev.Location, ev.Action,
			ev.Quantity, ev.BatchID, ev.Transport, ev.Notes, ev.Receiver, ev.Timestamp,
		)
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert event rows for block %d: %w", block.Index, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close event batch for block %d: %w", block.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit archive transaction for block %d: %w", block.Index, err)
	}
	return nil
}

// LatestBlockIndex returns the highest archived block index.
func (s *PostgresStore) LatestBlockIndex(ctx context.Context) (int64, bool, error) {
	var index *int64
	err := s.pool.QueryRow(ctx, `SELECT MAX(block_index) FROM blocks`).Scan(&index)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query latest block index: %w", err)
	}
	if index == nil {
		return 0, false, nil
	}
	return *index, true, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.logger.Println("Closing PostgreSQL connection pool...")
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil)
