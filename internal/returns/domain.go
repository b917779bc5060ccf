// Package returns stores return records written by both the supplier and the
// customer return processors. Only the customer path mutates or deletes
// records later, via undo.
package returns

import "time"

// Type distinguishes the two return flows.
type Type string

const (
	// TypeCustomer marks service returns on orders.
	TypeCustomer Type = "Customer"
	// TypeSupplier marks goods returned to a supplier.
	TypeSupplier Type = "Supplier"
)

// Line is one returned item or service.
type Line struct {
	ItemID int64   `json:"item_id,omitempty"`
	Name   string  `json:"name"`
	Qty    float64 `json:"qty"`
	Amount float64 `json:"amount"`
}

// Record is a persisted return document.
type Record struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	At        time.Time `json:"at"`
	Reference string    `json:"reference"`
	Party     string    `json:"party,omitempty"`
	Note      string    `json:"note,omitempty"`
	Items     float64   `json:"items"`
	Total     float64   `json:"total"`
	Lines     []Line    `json:"lines"`
}

// Recount recomputes the items count and total amount from the lines.
func (r *Record) Recount() {
	var items, total float64
	for _, line := range r.Lines {
		items += line.Qty
		total += line.Amount
	}
	r.Items = items
	r.Total = total
}
