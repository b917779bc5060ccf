package inventory

import (
	"errors"
	"time"
)

// Item is the cost-bearing inventory aggregate. One row per normalized key;
// approval increments and reprices it, returns only decrement it.
type Item struct {
	Key            string
	Name           string
	GenericName    string
	Category       string
	OnHand         float64
	UnitsPerPack   float64
	AvgCostPerUnit float64
	MinStock       float64
	LastInvoice    string
	LastSupplier   string
	LastUnitCost   float64
	LastExpiry     time.Time
	EarliestExpiry time.Time
	UpdatedAt      time.Time
}

// ReceiveInput describes one approved draft line landing in inventory.
type ReceiveInput struct {
	Name         string
	GenericName  string
	Category     string
	Qty          float64
	UnitCost     float64
	UnitsPerPack float64
	MinStock     float64
	Invoice      string
	Supplier     string
	Expiry       time.Time
}

// ErrInvalidQuantity indicates a negative receive quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be >= 0")
