package orders

import "time"

// Status is the order lifecycle state.
type Status string

const (
	// StatusReceived is the initial state.
	StatusReceived Status = "received"
	// StatusCompleted marks fulfilled orders.
	StatusCompleted Status = "completed"
	// StatusReturned marks fully returned orders.
	StatusReturned Status = "returned"
)

// Order aggregates ordered tests and their per-service return marks. Tests
// are fixed at creation; ReturnedTests grows via return and shrinks via undo
// and is always a subset of Tests.
type Order struct {
	ID            int64
	Token         string
	PatientName   string
	Tests         []int64
	ReturnedTests []int64
	Status        Status
	CreatedAt     time.Time
}

// deriveStatus applies the single transition rule for both call sites:
// returned exactly when every ordered test is marked returned. Dropping back
// below full coverage reopens the order as received.
func deriveStatus(order Order) Status {
	if len(order.Tests) > 0 && containsAll(order.ReturnedTests, order.Tests) {
		return StatusReturned
	}
	if order.Status == StatusReturned {
		return StatusReceived
	}
	return order.Status
}

func containsAll(set, wanted []int64) bool {
	for _, id := range wanted {
		if !contains(set, id) {
			return false
		}
	}
	return true
}

func contains(set []int64, id int64) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

func remove(set []int64, id int64) []int64 {
	out := set[:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
