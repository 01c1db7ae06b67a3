package ledger

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPoolStampsSubmissionTime(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pool := NewPoolWithClock(func() time.Time { return fixed })

	stored := pool.Enqueue(testEvent(1, "Harvested"))
	if !stored.Timestamp.Equal(fixed) {
		t.Fatalf("enqueue stamped %v, want %v", stored.Timestamp, fixed)
	}
}

func TestPoolKeepsExistingTimestamp(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pool := NewPoolWithClock(func() time.Time { return fixed })

	original := fixed.Add(-time.Hour)
	ev := testEvent(1, "Harvested")
	ev.Timestamp = original

	stored := pool.Enqueue(ev)
	if !stored.Timestamp.Equal(original) {
		t.Fatalf("enqueue overwrote replayed timestamp: %v, want %v", stored.Timestamp, original)
	}
}

func TestPoolDrainClearsInOrder(t *testing.T) {
	pool := NewPool()
	pool.Enqueue(testEvent(1, "Harvested"))
	pool.Enqueue(testEvent(2, "Harvested"))

	drained := pool.Drain()
	if len(drained) != 2 {
		t.Fatalf("drained %d events, want 2", len(drained))
	}
	if drained[0].ProductID != 1 || drained[1].ProductID != 2 {
		t.Fatalf("drain reordered events: %+v", drained)
	}
	if pool.Len() != 0 {
		t.Fatalf("pool holds %d events after drain, want 0", pool.Len())
	}
	if again := pool.Drain(); len(again) != 0 {
		t.Fatalf("second drain returned %d events, want 0", len(again))
	}
}

func TestPoolConcurrentEnqueue(t *testing.T) {
	pool := NewPool()
	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				pool.Enqueue(testEvent(id+1, "Harvested"))
			}
		}(int64(w))
	}
	wg.Wait()

	if got := pool.Len(); got != workers*perWorker {
		t.Fatalf("pool holds %d events, want %d", got, workers*perWorker)
	}
}

func TestRegistryAllocatesSequentialIDs(t *testing.T) {
	reg := NewRegistry()
	for want := int64(1); want <= 5; want++ {
		if got := reg.Register(); got != want {
			t.Fatalf("Register() = %d, want %d", got, want)
		}
	}
}

func TestEventValidate(t *testing.T) {
	valid := testEvent(1, "Harvested")
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Event)
	}{
		{"zero product id", func(e *Event) { e.ProductID = 0 }},
		{"negative product id", func(e *Event) { e.ProductID = -3 }},
		{"missing actor", func(e *Event) { e.Actor = "" }},
		{"missing location", func(e *Event) { e.Location = "" }},
		{"missing action", func(e *Event) { e.Action = "" }},
		{"negative quantity", func(e *Event) { e.Quantity = -1 }},
	}
	for _, tc := range cases {
		ev := testEvent(1, "Harvested")
		tc.mutate(&ev)
		err := ev.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("%s: error %v does not wrap ErrInvalidEvent", tc.name, err)
		}
	}
}
