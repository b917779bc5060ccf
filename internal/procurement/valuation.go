package procurement

import "github.com/clinicore-erp/clinicore/internal/shared"

// CalculateDraftTotals values a draft: normalizes each line, totals the
// document, and apportions invoice-level taxes per line by gross share. Pure
// function, no side effects; discount is caller-validated >= 0 and not
// clamped here.
func CalculateDraftTotals(lines []Line, discount float64, invoiceTaxes []InvoiceTax) (Totals, []Line) {
	out := make([]Line, len(lines))
	grosses := make([]float64, len(lines))

	var gross float64
	for i, line := range lines {
		normalizeLine(&line)
		lineGross := line.BuyPerUnit * line.TotalItems
		if line.TotalItems <= 0 {
			lineGross = line.BuyPerPack * line.Packs
		}
		grosses[i] = lineGross
		gross += lineGross
		out[i] = line
	}

	taxable := gross - discount
	if taxable < 0 {
		taxable = 0
	}

	lineTaxAmounts := make([]float64, len(out))
	var lineTaxes float64
	for i, line := range out {
		if line.LineTax == nil {
			continue
		}
		amount := line.LineTax.Value
		if line.LineTax.Type == TaxPercent {
			amount = grosses[i] * line.LineTax.Value / 100
		}
		lineTaxAmounts[i] = amount
		lineTaxes += amount
	}

	// Every invoice tax is computed off the same base, not compounded
	// sequentially.
	var invoiceTaxTotal float64
	for _, tax := range invoiceTaxes {
		base := taxable
		if tax.ApplyOn == ApplyOnNet {
			base = taxable + lineTaxes
		}
		if tax.Type == TaxPercent {
			invoiceTaxTotal += base * tax.Value / 100
		} else {
			invoiceTaxTotal += tax.Value
		}
	}

	grossDenom := gross
	if grossDenom == 0 {
		grossDenom = 1
	}
	for i := range out {
		share := grosses[i] / grossDenom
		totalCost := grosses[i] + lineTaxAmounts[i] + invoiceTaxTotal*share
		if out[i].TotalItems > 0 {
			out[i].BuyPerUnitAfterTax = shared.Round6(totalCost / out[i].TotalItems)
		} else {
			out[i].BuyPerUnitAfterTax = 0
		}
		out[i].BuyPerPackAfterTax = shared.Round6(out[i].BuyPerUnitAfterTax * out[i].UnitsPerPack)
	}

	totals := Totals{
		Gross:        shared.Round2(gross),
		Discount:     shared.Round2(discount),
		Taxable:      shared.Round2(taxable),
		LineTaxes:    shared.Round2(lineTaxes),
		InvoiceTaxes: shared.Round2(invoiceTaxTotal),
		Net:          shared.Round2(taxable + lineTaxes + invoiceTaxTotal),
	}
	return totals, out
}

// normalizeLine derives missing quantity and unit values from pack values.
func normalizeLine(line *Line) {
	if line.UnitsPerPack < 1 {
		line.UnitsPerPack = 1
	}
	if line.Packs < 0 {
		line.Packs = 0
	}
	if line.TotalItems <= 0 {
		line.TotalItems = line.UnitsPerPack * line.Packs
	}
	if line.BuyPerUnit <= 0 && line.BuyPerPack > 0 {
		line.BuyPerUnit = line.BuyPerPack / line.UnitsPerPack
	}
	if line.SalePerUnit <= 0 && line.SalePerPack > 0 {
		line.SalePerUnit = line.SalePerPack / line.UnitsPerPack
	}
}
