package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// hashTimeLayout fixes the timestamp encoding inside the canonical
// serialization. Times are normalized to UTC so the digest does not
// depend on the zone the block was created in.
const hashTimeLayout = time.RFC3339Nano

// Digest returns the SHA-256 of a block's canonical serialization. The
// block's own stored hash is excluded from the input; every other field
// participates. The encoding is key-sorted (encoding/json emits map keys
// in sorted order), so the digest is independent of in-memory field
// ordering and stable across processes.
func Digest(b Block) string {
	data, _ := json.Marshal(canonicalPayload(b))
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MarshalCanonical serializes a block, stored hash included, in the same
// canonical form Digest hashes. Persistence uses this so the stored and
// rehashed representations stay bit-identical.
func MarshalCanonical(b Block) []byte {
	payload := canonicalPayload(b)
	payload["hash"] = b.Hash
	data, _ := json.Marshal(payload)
	return data
}

// canonicalPayload is the single shared serialization used by the commit
// path, the validate path, and the durable record format. Maps only:
// json.Marshal cannot fail on string/number/slice values, and key order
// is sorted.
func canonicalPayload(b Block) map[string]any {
	events := make([]any, len(b.Events))
	for i, ev := range b.Events {
		events[i] = canonicalEvent(ev)
	}
	return map[string]any{
		"index":         b.Index,
		"timestamp":     b.Timestamp.UTC().Format(hashTimeLayout),
		"events":        events,
		"proof":         b.Proof,
		"previous_hash": b.PreviousHash,
	}
}

func canonicalEvent(ev Event) map[string]any {
	m := map[string]any{
		"product_id": ev.ProductID,
		"actor":      ev.Actor,
		"location":   ev.Location,
		"action":     ev.Action,
		"timestamp":  ev.Timestamp.UTC().Format(hashTimeLayout),
	}
	// Optional fields are omitted when unset, matching the JSON struct
	// tags, so a later schema addition does not change old digests.
	if ev.Quantity != 0 {
		m["quantity"] = ev.Quantity
	}
	if ev.BatchID != "" {
		m["batch_id"] = ev.BatchID
	}
	if ev.Transport != "" {
		m["transport"] = ev.Transport
	}
	if ev.Notes != "" {
		m["notes"] = ev.Notes
	}
	if ev.Receiver != "" {
		m["receiver"] = ev.Receiver
	}
	return m
}
