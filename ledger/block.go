package ledger

import "time"

// Block is an immutable, ordered unit of commitment. Index is 1-based
// and equals the block's position in the chain. Hash is the digest of
// every other field; PreviousHash is the stored hash of the prior
// block, or the genesis sentinel for block 1.
//
// Proof is a vestigial placeholder kept for record-format stability.
// No proof-of-work search produces it and nothing validates it.
type Block struct {
	Index        int64     `json:"index"`
	Timestamp    time.Time `json:"timestamp"`
	Events       []Event   `json:"events"`
	Proof        int64     `json:"proof"`
	PreviousHash string    `json:"previous_hash"`
	Hash         string    `json:"hash"`
}
