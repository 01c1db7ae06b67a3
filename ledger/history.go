package ledger

// displayTimeLayout renders event timestamps for human-facing history
// and summary views, in local time.
const displayTimeLayout = "2006-01-02 15:04:05"

// HistoryEntry is one custody step of a single product, annotated with
// the block that committed it.
type HistoryEntry struct {
	BlockIndex int64   `json:"block_index"`
	Actor      string  `json:"actor"`
	Location   string  `json:"location"`
	Action     string  `json:"action"`
	Quantity   float64 `json:"quantity,omitempty"`
	BatchID    string  `json:"batch_id,omitempty"`
	Transport  string  `json:"transport,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	Receiver   string  `json:"receiver,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// SummaryRow is a flat, unfiltered projection of one committed event,
// used for dashboards and full ledger export.
type SummaryRow struct {
	BlockIndex int64   `json:"block_index"`
	ProductID  int64   `json:"product_id"`
	Actor      string  `json:"actor"`
	Location   string  `json:"location"`
	Action     string  `json:"action"`
	Quantity   float64 `json:"quantity,omitempty"`
	BatchID    string  `json:"batch_id,omitempty"`
	Transport  string  `json:"transport,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	Receiver   string  `json:"receiver,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// Track scans the chain in block order and each block's events in
// enqueue order, returning the custody trail of one product. That total
// order is exactly custody chronology. Unknown or eventless ids yield
// an empty trail, never an error.
func (l *Ledger) Track(productID int64) []HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var history []HistoryEntry
	for _, b := range l.chain {
		for _, ev := range b.Events {
			if ev.ProductID != productID {
				continue
			}
			history = append(history, HistoryEntry{
				BlockIndex: b.Index,
				Actor:      ev.Actor,
				Location:   ev.Location,
				Action:     ev.Action,
				Quantity:   ev.Quantity,
				BatchID:    ev.BatchID,
				Transport:  ev.Transport,
				Notes:      ev.Notes,
				Receiver:   ev.Receiver,
				Timestamp:  ev.Timestamp.Local().Format(displayTimeLayout),
			})
		}
	}
	return history
}

// SummarizeAll projects every committed event into a SummaryRow, in the
// same chronological total order Track uses.
func (l *Ledger) SummarizeAll() []SummaryRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	var rows []SummaryRow
	for _, b := range l.chain {
		for _, ev := range b.Events {
			rows = append(rows, SummaryRow{
				BlockIndex: b.Index,
				ProductID:  ev.ProductID,
				Actor:      ev.Actor,
				Location:   ev.Location,
				Action:     ev.Action,
				Quantity:   ev.Quantity,
				BatchID:    ev.BatchID,
				Transport:  ev.Transport,
				Notes:      ev.Notes,
				Receiver:   ev.Receiver,
				Timestamp:  ev.Timestamp.Local().Format(displayTimeLayout),
			})
		}
	}
	return rows
}
