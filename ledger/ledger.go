package ledger

import (
	"sync"
	"time"
)

const (
	// GenesisPreviousHash is the previous-hash sentinel carried by the
	// genesis block, which has no predecessor to hash.
	GenesisPreviousHash = "1"

	// GenesisProof is the placeholder proof of the genesis block.
	GenesisProof int64 = 100

	// DefaultCommitProof is the placeholder proof used when a caller
	// does not supply one. Like GenesisProof it encodes no work.
	DefaultCommitProof int64 = 123
)

// Ledger is an append-only, hash-linked chain of blocks recording
// supply-chain custody events. A Ledger owns its pool: Commit drains
// the pool and appends a block in a single critical section, and
// Validate is mutually exclusive with Commit, so concurrent callers
// always observe a consistent chain.
//
// The chain is a single linear history. There is no rollback, no
// branching, and the only mutator after construction is Commit.
type Ledger struct {
	mu    sync.Mutex
	chain []Block
	pool  *Pool
	clock func() time.Time
}

func New(pool *Pool) *Ledger {
	return NewWithClock(pool, time.Now)
}

// NewWithClock constructs a ledger with an injected block-time source
// and appends the genesis block (index 1, no events, sentinel
// previous-hash).
func NewWithClock(pool *Pool, clock func() time.Time) *Ledger {
	l := &Ledger{pool: pool, clock: clock}
	genesis := Block{
		Index:        1,
		Timestamp:    clock(),
		Proof:        GenesisProof,
		PreviousHash: GenesisPreviousHash,
	}
	genesis.Hash = Digest(genesis)
	l.chain = append(l.chain, genesis)
	return l
}

// Commit takes a snapshot of the pending pool, builds a block linked to
// the current tip, computes its hash, and appends it. The drain and the
// append happen under one lock, so the drained events become exactly
// the new block's event list. Committing with an empty pool is legal
// and yields an empty-event block.
func (l *Ledger) Commit(proof int64) Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.chain[len(l.chain)-1]
	block := Block{
		Index:        int64(len(l.chain)) + 1,
		Timestamp:    l.clock(),
		Events:       l.pool.Drain(),
		Proof:        proof,
		PreviousHash: prev.Hash,
	}
	block.Hash = Digest(block)
	l.chain = append(l.chain, block)
	return block
}

// Validate recomputes every block's digest and checks previous-hash
// linkage over adjacent pairs. It is read-only and idempotent; a
// genesis-only chain is trivially valid. An invalid result is a
// diagnostic signal, not a fatal condition: the ledger keeps serving
// reads and appends afterwards.
func (l *Ledger) Validate() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.chain[0].Hash != Digest(l.chain[0]) {
		return false
	}
	for i := 1; i < len(l.chain); i++ {
		prev, cur := l.chain[i-1], l.chain[i]
		if cur.PreviousHash != prev.Hash {
			return false
		}
		if cur.Hash != Digest(cur) {
			return false
		}
	}
	return true
}

// LastBlock returns the most recently appended block.
func (l *Ledger) LastBlock() Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chain[len(l.chain)-1]
}

// Length reports the number of blocks, genesis included.
func (l *Ledger) Length() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chain)
}

// ChainView returns a deep copy of the chain for explorer display.
// Mutating the returned blocks cannot corrupt the ledger.
func (l *Ledger) ChainView() []Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Block, len(l.chain))
	for i, b := range l.chain {
		cp := b
		if b.Events != nil {
			cp.Events = append([]Event(nil), b.Events...)
		}
		out[i] = cp
	}
	return out
}
