package procurement

import "time"

// TaxType enumerates how a tax value is read.
type TaxType string

const (
	// TaxPercent reads the value as a percentage of the base.
	TaxPercent TaxType = "percent"
	// TaxFixed reads the value as a flat amount.
	TaxFixed TaxType = "fixed"
)

// ApplyOn selects the base of an invoice-level tax.
type ApplyOn string

const (
	// ApplyOnGross bases the tax on the taxable amount.
	ApplyOnGross ApplyOn = "gross"
	// ApplyOnNet bases the tax on taxable plus line taxes.
	ApplyOnNet ApplyOn = "net"
)

// LineTax is a per-line tax definition.
type LineTax struct {
	Type  TaxType `json:"type"`
	Value float64 `json:"value"`
}

// InvoiceTax is an invoice-level tax apportioned across lines.
type InvoiceTax struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Type    TaxType `json:"type"`
	ApplyOn ApplyOn `json:"apply_on"`
}

// Line is a purchase document line. On drafts the after-tax fields are
// calculator outputs; on purchases TotalItems and Packs shrink as goods are
// returned to the supplier.
type Line struct {
	ItemID             int64     `json:"item_id,omitempty"`
	Name               string    `json:"name"`
	GenericName        string    `json:"generic_name,omitempty"`
	UnitsPerPack       float64   `json:"units_per_pack"`
	Packs              float64   `json:"packs"`
	TotalItems         float64   `json:"total_items"`
	BuyPerPack         float64   `json:"buy_per_pack"`
	BuyPerUnit         float64   `json:"buy_per_unit"`
	SalePerPack        float64   `json:"sale_per_pack,omitempty"`
	SalePerUnit        float64   `json:"sale_per_unit,omitempty"`
	Expiry             time.Time `json:"expiry,omitempty"`
	Category           string    `json:"category,omitempty"`
	MinStock           float64   `json:"min_stock,omitempty"`
	LineTax            *LineTax  `json:"line_tax,omitempty"`
	BuyPerPackAfterTax float64   `json:"buy_per_pack_after_tax"`
	BuyPerUnitAfterTax float64   `json:"buy_per_unit_after_tax"`
}

// Totals summarises a valued document.
type Totals struct {
	Gross        float64 `json:"gross"`
	Discount     float64 `json:"discount"`
	Taxable      float64 `json:"taxable"`
	LineTaxes    float64 `json:"line_taxes"`
	InvoiceTaxes float64 `json:"invoice_taxes"`
	Net          float64 `json:"net"`
}

// Draft is the pending purchase document. Created at intake, consumed exactly
// once by approval, then deleted.
type Draft struct {
	ID           int64        `json:"id"`
	Date         time.Time    `json:"date"`
	Invoice      string       `json:"invoice"`
	Supplier     string       `json:"supplier,omitempty"`
	Discount     float64      `json:"discount"`
	InvoiceTaxes []InvoiceTax `json:"invoice_taxes,omitempty"`
	Totals       Totals       `json:"totals"`
	Lines        []Line       `json:"lines"`
}

// Purchase is the immutable committed document; returns are the only
// mutation path. TotalAmount is always recomputed from remaining lines,
// never decremented incrementally.
type Purchase struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Invoice     string    `json:"invoice"`
	Supplier    string    `json:"supplier,omitempty"`
	Totals      Totals    `json:"totals"`
	TotalAmount float64   `json:"total_amount"`
	Lines       []Line    `json:"lines"`
}

// unitCost resolves the costing basis for a line: after-tax unit cost,
// falling back through raw unit cost, pack-derived cost, then zero.
func (l Line) unitCost() float64 {
	switch {
	case l.BuyPerUnitAfterTax > 0:
		return l.BuyPerUnitAfterTax
	case l.BuyPerUnit > 0:
		return l.BuyPerUnit
	case l.BuyPerPack > 0 && l.UnitsPerPack > 0:
		return l.BuyPerPack / l.UnitsPerPack
	default:
		return 0
	}
}
