package ledger

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEvent is wrapped by every event validation failure.
var ErrInvalidEvent = errors.New("invalid event")

// Event is one custody/handling step for a tracked product. Events are
// immutable once created; they have no identity beyond their position
// in a block's event list. Timestamp is the submission time, not the
// commit time of the block that eventually carries the event.
type Event struct {
	ProductID int64     `json:"product_id"`
	Actor     string    `json:"actor"`
	Location  string    `json:"location"`
	Action    string    `json:"action"`
	Quantity  float64   `json:"quantity,omitempty"`
	BatchID   string    `json:"batch_id,omitempty"`
	Transport string    `json:"transport,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Receiver  string    `json:"receiver,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the structural requirements of an event and names the
// offending field in the returned error.
func (e Event) Validate() error {
	if e.ProductID < 1 {
		return fmt.Errorf("%w: product_id must be a positive integer", ErrInvalidEvent)
	}
	if e.Actor == "" {
		return fmt.Errorf("%w: missing actor", ErrInvalidEvent)
	}
	if e.Location == "" {
		return fmt.Errorf("%w: missing location", ErrInvalidEvent)
	}
	if e.Action == "" {
		return fmt.Errorf("%w: missing action", ErrInvalidEvent)
	}
	if e.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidEvent)
	}
	return nil
}
