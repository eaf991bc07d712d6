// Package pricing holds the stateless money policy of the box office:
// the membership discount, the jurisdiction tax table and the fixed
// fee schedule charged once per finalized ticket. All arithmetic uses
// decimals with no intermediate rounding; presentation layers round
// for display only.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnknownJurisdiction is returned when an event's jurisdiction has
// no tax-table entry. This is a configuration error; the triggering
// operation is abandoned, never defaulted to a zero rate.
var ErrUnknownJurisdiction = errors.New("unknown tax jurisdiction")

// Fee schedule, charged once per ticket at finalization.
var (
	// ConvenienceFee is a flat charge per finalized ticket.
	ConvenienceFee = decimal.RequireFromString("2.50")
	// ServiceFeeRate is the service fee as a percentage of subtotal.
	ServiceFeeRate = decimal.RequireFromString("0.5")
	// CharityFeeRate is the charity fee as a percentage of subtotal.
	CharityFeeRate = decimal.RequireFromString("0.75")
)

// memberDiscountDivisor yields the 10% membership discount.
var memberDiscountDivisor = decimal.NewFromInt(10)

var oneHundred = decimal.NewFromInt(100)

// taxRates maps jurisdiction keys to sales-tax percentages. Only
// Texas is populated today; the table is open to extension.
var taxRates = map[string]decimal.Decimal{
	"Texas": decimal.RequireFromString("8.25"),
}

// MembershipDiscount returns the per-seat discount for a member:
// a tenth of the unit price. Non-members get zero.
func MembershipDiscount(unitPrice decimal.Decimal, isMember bool) decimal.Decimal {
	if !isMember {
		return decimal.Zero
	}
	return unitPrice.Div(memberDiscountDivisor)
}

// ApplyDiscount returns the unit price after the membership discount.
func ApplyDiscount(unitPrice decimal.Decimal, isMember bool) decimal.Decimal {
	return unitPrice.Sub(MembershipDiscount(unitPrice, isMember))
}

// TaxRate looks up the sales-tax percentage for a jurisdiction key.
func TaxRate(jurisdiction string) (decimal.Decimal, error) {
	rate, ok := taxRates[jurisdiction]
	if !ok {
		return decimal.Decimal{}, ErrUnknownJurisdiction
	}
	return rate, nil
}

// Tax computes the tax owed on a post-discount price.
func Tax(priceAfterDiscount decimal.Decimal, jurisdiction string) (decimal.Decimal, error) {
	rate, err := TaxRate(jurisdiction)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return priceAfterDiscount.Mul(rate).Div(oneHundred), nil
}

// ServiceFee is 0.5% of the ticket subtotal.
func ServiceFee(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(ServiceFeeRate).Div(oneHundred)
}

// CharityFee is 0.75% of the ticket subtotal.
func CharityFee(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(CharityFeeRate).Div(oneHundred)
}

// DiscountGrantedOn recovers the discount that produced a paid seat
// price. A member pays 9/10 of list, so the discount is a ninth of
// what was paid. Used when returns reverse totalSaved.
func DiscountGrantedOn(pricePaid decimal.Decimal) decimal.Decimal {
	return pricePaid.Div(decimal.NewFromInt(9))
}
