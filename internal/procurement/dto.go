package procurement

import "time"

type lineTaxRequest struct {
	Type  string  `json:"type" validate:"required,oneof=percent fixed"`
	Value float64 `json:"value" validate:"gte=0"`
}

type lineRequest struct {
	ItemID       int64           `json:"item_id"`
	Name         string          `json:"name" validate:"required"`
	GenericName  string          `json:"generic_name"`
	UnitsPerPack float64         `json:"units_per_pack" validate:"gte=0"`
	Packs        float64         `json:"packs" validate:"gte=0"`
	TotalItems   float64         `json:"total_items" validate:"gte=0"`
	BuyPerPack   float64         `json:"buy_per_pack" validate:"gte=0"`
	BuyPerUnit   float64         `json:"buy_per_unit" validate:"gte=0"`
	SalePerPack  float64         `json:"sale_per_pack" validate:"gte=0"`
	SalePerUnit  float64         `json:"sale_per_unit" validate:"gte=0"`
	Expiry       string          `json:"expiry" validate:"omitempty,datetime=2006-01-02"`
	Category     string          `json:"category"`
	MinStock     float64         `json:"min_stock" validate:"gte=0"`
	LineTax      *lineTaxRequest `json:"line_tax,omitempty"`
}

type invoiceTaxRequest struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value" validate:"gte=0"`
	Type    string  `json:"type" validate:"required,oneof=percent fixed"`
	ApplyOn string  `json:"apply_on" validate:"required,oneof=gross net"`
}

type draftRequest struct {
	Date         string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Invoice      string              `json:"invoice" validate:"required"`
	Supplier     string              `json:"supplier"`
	Discount     float64             `json:"discount" validate:"gte=0"`
	InvoiceTaxes []invoiceTaxRequest `json:"invoice_taxes" validate:"dive"`
	Lines        []lineRequest       `json:"lines" validate:"required,min=1,dive"`
}

type calculateRequest struct {
	Discount     float64             `json:"discount" validate:"gte=0"`
	InvoiceTaxes []invoiceTaxRequest `json:"invoice_taxes" validate:"dive"`
	Lines        []lineRequest       `json:"lines" validate:"required,min=1,dive"`
}

type supplierReturnRequest struct {
	Note  string                      `json:"note"`
	Lines []supplierReturnLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type supplierReturnLineRequest struct {
	ItemID int64   `json:"item_id"`
	Name   string  `json:"name"`
	Qty    float64 `json:"qty"`
}

func (r lineRequest) toLine() Line {
	line := Line{
		ItemID:       r.ItemID,
		Name:         r.Name,
		GenericName:  r.GenericName,
		UnitsPerPack: r.UnitsPerPack,
		Packs:        r.Packs,
		TotalItems:   r.TotalItems,
		BuyPerPack:   r.BuyPerPack,
		BuyPerUnit:   r.BuyPerUnit,
		SalePerPack:  r.SalePerPack,
		SalePerUnit:  r.SalePerUnit,
		Category:     r.Category,
		MinStock:     r.MinStock,
	}
	if r.Expiry != "" {
		line.Expiry, _ = time.Parse("2006-01-02", r.Expiry)
	}
	if r.LineTax != nil {
		line.LineTax = &LineTax{Type: TaxType(r.LineTax.Type), Value: r.LineTax.Value}
	}
	return line
}

func toLines(reqs []lineRequest) []Line {
	lines := make([]Line, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, r.toLine())
	}
	return lines
}

func toInvoiceTaxes(reqs []invoiceTaxRequest) []InvoiceTax {
	taxes := make([]InvoiceTax, 0, len(reqs))
	for _, r := range reqs {
		taxes = append(taxes, InvoiceTax{
			Name:    r.Name,
			Value:   r.Value,
			Type:    TaxType(r.Type),
			ApplyOn: ApplyOn(r.ApplyOn),
		})
	}
	return taxes
}
