package store

import (
	"context"
	"testing"
	"time"

	"sctrace/ledger"
)

func archivedBlock(index int64) ledger.Block {
	b := ledger.Block{
		Index:        index,
		Timestamp:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Proof:        ledger.DefaultCommitProof,
		PreviousHash: "prev",
	}
	b.Hash = ledger.Digest(b)
	return b
}

func TestMemoryStoreInsertAndLatest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, ok, err := s.LatestBlockIndex(ctx); err != nil || ok {
		t.Fatalf("empty store latest = ok=%t err=%v, want none", ok, err)
	}

	if err := s.InsertBlock(ctx, archivedBlock(2)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertBlock(ctx, archivedBlock(3)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	idx, ok, err := s.LatestBlockIndex(ctx)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%t err=%v", ok, err)
	}
	if idx != 3 {
		t.Fatalf("latest index = %d, want 3", idx)
	}
	if got := len(s.Blocks()); got != 2 {
		t.Fatalf("store holds %d blocks, want 2", got)
	}
}

func TestMemoryStoreRejectsNonIncreasingIndex(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.InsertBlock(ctx, archivedBlock(2)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertBlock(ctx, archivedBlock(2)); err == nil {
		t.Fatalf("duplicate index accepted")
	}
	if err := s.InsertBlock(ctx, archivedBlock(1)); err == nil {
		t.Fatalf("regressing index accepted")
	}
}
