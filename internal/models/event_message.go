package models

// EventMessage is the wire form of a submitted custody event, carried
// from the tracker gateway to the archiver engine over the message bus.
// SubmittedAt is RFC3339Nano and preserves the submission timestamp the
// pool stamped at enqueue time.
type EventMessage struct {
	RequestID   string  `json:"request_id"`
	ProductID   int64   `json:"product_id"`
	Actor       string  `json:"actor"`
	Location    string  `json:"location"`
	Action      string  `json:"action"`
	Quantity    float64 `json:"quantity,omitempty"`
	BatchID     string  `json:"batch_id,omitempty"`
	Transport   string  `json:"transport,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	Receiver    string  `json:"receiver,omitempty"`
	SubmittedAt string  `json:"submitted_at"`
}
