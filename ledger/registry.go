package ledger

import "sync/atomic"

// Registry allocates product identifiers. Product existence is
// implicit: any positive id may be queried whether or not it was
// allocated here, and an id without events simply has an empty history.
type Registry struct {
	counter int64
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register returns the next product id. Ids start at 1 and increase
// monotonically for the lifetime of the process.
func (r *Registry) Register() int64 {
	return atomic.AddInt64(&r.counter, 1)
}
