package model

import "github.com/shopspring/decimal"

// FeeTotals groups the four running money totals that are kept in
// lock-step at ticket, event and registry scope. Every accrual on a
// ticket must be mirrored into its event and the registry inside the
// same operation, and every reversal must mirror identically.
//
// Fields:
//
//	Taxes       – jurisdiction sales tax collected.
//	ServiceFee  – 0.5% of subtotal, charged once per ticket.
//	Convenience – flat fee, charged once per ticket.
//	CharityFee  – 0.75% of subtotal, charged once per ticket.
type FeeTotals struct {
	Taxes       decimal.Decimal
	ServiceFee  decimal.Decimal
	Convenience decimal.Decimal
	CharityFee  decimal.Decimal
}

// Accrue adds every total from d into f.
func (f *FeeTotals) Accrue(d FeeTotals) {
	f.Taxes = f.Taxes.Add(d.Taxes)
	f.ServiceFee = f.ServiceFee.Add(d.ServiceFee)
	f.Convenience = f.Convenience.Add(d.Convenience)
	f.CharityFee = f.CharityFee.Add(d.CharityFee)
}

// Reverse subtracts every total in d from f. Used on cancellation and
// when a closed ticket's residual totals are retired.
func (f *FeeTotals) Reverse(d FeeTotals) {
	f.Taxes = f.Taxes.Sub(d.Taxes)
	f.ServiceFee = f.ServiceFee.Sub(d.ServiceFee)
	f.Convenience = f.Convenience.Sub(d.Convenience)
	f.CharityFee = f.CharityFee.Sub(d.CharityFee)
}

// Sum returns the combined value of the four totals.
func (f FeeTotals) Sum() decimal.Decimal {
	return f.Taxes.Add(f.ServiceFee).Add(f.Convenience).Add(f.CharityFee)
}

// Equal reports whether both totals agree component-wise.
func (f FeeTotals) Equal(d FeeTotals) bool {
	return f.Taxes.Equal(d.Taxes) &&
		f.ServiceFee.Equal(d.ServiceFee) &&
		f.Convenience.Equal(d.Convenience) &&
		f.CharityFee.Equal(d.CharityFee)
}
