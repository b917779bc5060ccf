package procurement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateDraftTotalsLineTax(t *testing.T) {
	lines := []Line{{
		Name:         "Paracetamol",
		UnitsPerPack: 10,
		Packs:        5,
		BuyPerPack:   100,
		LineTax:      &LineTax{Type: TaxPercent, Value: 5},
	}}

	totals, out := CalculateDraftTotals(lines, 0, nil)

	require.InDelta(t, 500, totals.Gross, 0.001)
	require.InDelta(t, 500, totals.Taxable, 0.001)
	require.InDelta(t, 25, totals.LineTaxes, 0.001)
	require.InDelta(t, 0, totals.InvoiceTaxes, 0.001)
	require.InDelta(t, 525, totals.Net, 0.001)

	require.InDelta(t, 50, out[0].TotalItems, 0.001)
	require.InDelta(t, 10, out[0].BuyPerUnit, 0.001)
	require.InDelta(t, 10.5, out[0].BuyPerUnitAfterTax, 0.000001)
	require.InDelta(t, 105, out[0].BuyPerPackAfterTax, 0.000001)
}

func TestCalculateDraftTotalsNetIdentity(t *testing.T) {
	lines := []Line{
		{Name: "A", UnitsPerPack: 12, Packs: 3, BuyPerPack: 144, LineTax: &LineTax{Type: TaxFixed, Value: 7.5}},
		{Name: "B", TotalItems: 40, BuyPerUnit: 3.25},
	}
	taxes := []InvoiceTax{
		{Name: "VAT", Value: 15, Type: TaxPercent, ApplyOn: ApplyOnGross},
		{Name: "Levy", Value: 20, Type: TaxFixed, ApplyOn: ApplyOnNet},
	}

	totals, _ := CalculateDraftTotals(lines, 50, taxes)
	require.InDelta(t, totals.Taxable+totals.LineTaxes+totals.InvoiceTaxes, totals.Net, 0.01)
}

func TestInvoiceTaxesShareOneBase(t *testing.T) {
	lines := []Line{{Name: "A", TotalItems: 10, BuyPerUnit: 10}}
	taxes := []InvoiceTax{
		{Name: "T1", Value: 10, Type: TaxPercent, ApplyOn: ApplyOnGross},
		{Name: "T2", Value: 10, Type: TaxPercent, ApplyOn: ApplyOnGross},
	}

	totals, _ := CalculateDraftTotals(lines, 0, taxes)
	// both taxes computed off taxable=100, not compounded to 21
	require.InDelta(t, 20, totals.InvoiceTaxes, 0.001)
}

func TestInvoiceTaxBaseIncludesLineTaxesOnNet(t *testing.T) {
	lines := []Line{{Name: "A", TotalItems: 10, BuyPerUnit: 10, LineTax: &LineTax{Type: TaxPercent, Value: 10}}}
	taxes := []InvoiceTax{{Name: "VAT", Value: 10, Type: TaxPercent, ApplyOn: ApplyOnNet}}

	totals, _ := CalculateDraftTotals(lines, 0, taxes)
	// base = 100 taxable + 10 line tax
	require.InDelta(t, 11, totals.InvoiceTaxes, 0.001)
}

func TestApportionmentByGrossShare(t *testing.T) {
	lines := []Line{
		{Name: "A", TotalItems: 10, BuyPerUnit: 30}, // gross 300, share 0.75
		{Name: "B", TotalItems: 10, BuyPerUnit: 10}, // gross 100, share 0.25
	}
	taxes := []InvoiceTax{{Name: "Levy", Value: 40, Type: TaxFixed, ApplyOn: ApplyOnGross}}

	_, out := CalculateDraftTotals(lines, 0, taxes)
	require.InDelta(t, 33, out[0].BuyPerUnitAfterTax, 0.000001) // (300+30)/10
	require.InDelta(t, 11, out[1].BuyPerUnitAfterTax, 0.000001) // (100+10)/10
}

func TestDiscountFloorsTaxableAtZero(t *testing.T) {
	lines := []Line{{Name: "A", TotalItems: 5, BuyPerUnit: 2}}

	totals, _ := CalculateDraftTotals(lines, 100, nil)
	require.InDelta(t, 10, totals.Gross, 0.001)
	require.InDelta(t, 0, totals.Taxable, 0.001)
	require.InDelta(t, 0, totals.Net, 0.001)
}

func TestZeroGrossAvoidsDivisionByZero(t *testing.T) {
	lines := []Line{{Name: "Freebie", TotalItems: 10}}
	taxes := []InvoiceTax{{Name: "Levy", Value: 12, Type: TaxFixed, ApplyOn: ApplyOnGross}}

	totals, out := CalculateDraftTotals(lines, 0, taxes)
	require.InDelta(t, 0, totals.Gross, 0.001)
	require.InDelta(t, 12, totals.InvoiceTaxes, 0.001)
	// gross treated as 1: shares are zero, no line absorbs the levy
	require.InDelta(t, 0, out[0].BuyPerUnitAfterTax, 0.000001)
}

func TestNormalizationDerivesUnits(t *testing.T) {
	lines := []Line{{Name: "A", UnitsPerPack: 0, Packs: 4, BuyPerPack: 8, SalePerPack: 12}}

	_, out := CalculateDraftTotals(lines, 0, nil)
	require.InDelta(t, 1, out[0].UnitsPerPack, 0.001)
	require.InDelta(t, 4, out[0].TotalItems, 0.001)
	require.InDelta(t, 8, out[0].BuyPerUnit, 0.001)
	require.InDelta(t, 12, out[0].SalePerUnit, 0.001)
}
