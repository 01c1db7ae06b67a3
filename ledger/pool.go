package ledger

import (
	"sync"
	"time"
)

// Pool holds submitted events awaiting commitment. It is the only
// mutable collection in the package: Commit drains it atomically into
// the event list of the block being created.
type Pool struct {
	mu      sync.Mutex
	pending []Event
	clock   func() time.Time
}

func NewPool() *Pool {
	return NewPoolWithClock(time.Now)
}

// NewPoolWithClock injects the submission-time source. Tests use a
// deterministic clock.
func NewPoolWithClock(clock func() time.Time) *Pool {
	return &Pool{clock: clock}
}

// Enqueue appends an event, stamping the current time as its submission
// timestamp unless the caller already carries one (events replayed from
// the message bus keep their original submission time). Returns the
// event as stored.
func (p *Pool) Enqueue(ev Event) Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = p.clock()
	}
	p.pending = append(p.pending, ev)
	return ev
}

// Drain returns all pending events in enqueue order and clears the pool
// in one critical section. Used exclusively by Ledger.Commit.
func (p *Pool) Drain() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

// Len reports the number of events awaiting commitment.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
