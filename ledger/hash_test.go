package ledger

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func hashTestBlock() Block {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return Block{
		Index:     2,
		Timestamp: ts,
		Events: []Event{
			{
				ProductID: 1,
				Actor:     "Farmer",
				Location:  "Green Valley Farm",
				Action:    "Harvested",
				Quantity:  120.5,
				BatchID:   "LOT-2024-001",
				Timestamp: ts.Add(-time.Minute),
			},
		},
		Proof:        DefaultCommitProof,
		PreviousHash: "abc123",
	}
}

func TestDigestIsDeterministic(t *testing.T) {
	b := hashTestBlock()
	first := Digest(b)
	for i := 0; i < 5; i++ {
		if got := Digest(b); got != first {
			t.Fatalf("digest changed between calls: %q vs %q", first, got)
		}
	}
	if len(first) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(first))
	}
}

func TestDigestExcludesStoredHash(t *testing.T) {
	b := hashTestBlock()
	before := Digest(b)
	b.Hash = before
	if got := Digest(b); got != before {
		t.Fatalf("setting the stored hash changed the digest: %q vs %q", before, got)
	}
}

func TestDigestCoversEveryOtherField(t *testing.T) {
	base := Digest(hashTestBlock())

	b := hashTestBlock()
	b.Proof++
	if Digest(b) == base {
		t.Fatalf("proof change did not change the digest")
	}

	b = hashTestBlock()
	b.PreviousHash = "def456"
	if Digest(b) == base {
		t.Fatalf("previous hash change did not change the digest")
	}

	b = hashTestBlock()
	b.Events[0].Location = "Somewhere Else"
	if Digest(b) == base {
		t.Fatalf("event change did not change the digest")
	}

	b = hashTestBlock()
	b.Timestamp = b.Timestamp.Add(time.Nanosecond)
	if Digest(b) == base {
		t.Fatalf("timestamp change did not change the digest")
	}
}

func TestDigestIndependentOfTimeZone(t *testing.T) {
	b := hashTestBlock()
	utc := Digest(b)

	zone := time.FixedZone("UTC+8", 8*3600)
	b.Timestamp = b.Timestamp.In(zone)
	b.Events[0].Timestamp = b.Events[0].Timestamp.In(zone)
	if got := Digest(b); got != utc {
		t.Fatalf("digest depends on time zone: %q vs %q", utc, got)
	}
}

func TestMarshalCanonicalIncludesHashAndRoundTrips(t *testing.T) {
	b := hashTestBlock()
	b.Hash = Digest(b)

	data := MarshalCanonical(b)
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("canonical form is not valid JSON: %v", err)
	}
	if decoded["hash"] != b.Hash {
		t.Fatalf("canonical form hash = %v, want %q", decoded["hash"], b.Hash)
	}
	if decoded["previous_hash"] != b.PreviousHash {
		t.Fatalf("canonical form previous_hash = %v, want %q", decoded["previous_hash"], b.PreviousHash)
	}

	// Keys must come out sorted so the stored bytes are reproducible.
	s := string(data)
	if !(strings.Index(s, `"events"`) < strings.Index(s, `"hash"`) &&
		strings.Index(s, `"hash"`) < strings.Index(s, `"index"`) &&
		strings.Index(s, `"index"`) < strings.Index(s, `"previous_hash"`)) {
		t.Fatalf("canonical keys not sorted: %s", s)
	}
}

func TestCanonicalEventOmitsUnsetOptionalFields(t *testing.T) {
	b := hashTestBlock()
	b.Events[0].Quantity = 0
	b.Events[0].BatchID = ""

	data, _ := json.Marshal(canonicalPayload(b))
	s := string(data)
	if strings.Contains(s, `"quantity"`) || strings.Contains(s, `"batch_id"`) {
		t.Fatalf("unset optional fields present in canonical form: %s", s)
	}
	if !strings.Contains(s, `"actor"`) {
		t.Fatalf("required field missing from canonical form: %s", s)
	}
}
