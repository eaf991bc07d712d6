package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketminer/box-office/internal/pricing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMembershipDiscount(t *testing.T) {
	price := dec("20")

	assert.True(t, pricing.MembershipDiscount(price, false).IsZero())
	assert.True(t, pricing.MembershipDiscount(price, true).Equal(dec("2")))
	assert.True(t, pricing.ApplyDiscount(price, true).Equal(dec("18")))
	assert.True(t, pricing.ApplyDiscount(price, false).Equal(price))
}

func TestTaxTexas(t *testing.T) {
	tax, err := pricing.Tax(dec("18"), "Texas")
	require.NoError(t, err)
	assert.True(t, tax.Equal(dec("1.485")), "got %s", tax)
}

func TestTaxUnknownJurisdiction(t *testing.T) {
	_, err := pricing.Tax(dec("18"), "Atlantis")
	assert.ErrorIs(t, err, pricing.ErrUnknownJurisdiction)

	_, err = pricing.TaxRate("")
	assert.ErrorIs(t, err, pricing.ErrUnknownJurisdiction)
}

func TestTicketFees(t *testing.T) {
	subtotal := dec("36")

	assert.True(t, pricing.ServiceFee(subtotal).Equal(dec("0.18")))
	assert.True(t, pricing.CharityFee(subtotal).Equal(dec("0.27")))
	assert.True(t, pricing.ConvenienceFee.Equal(dec("2.50")))
}

// A member pays 9/10 of list, so the discount granted on a paid price
// must reproduce the original per-seat discount exactly.
func TestDiscountGrantedOnInvertsDiscount(t *testing.T) {
	for _, list := range []string{"20", "99.99", "150", "0.45"} {
		price := dec(list)
		paid := pricing.ApplyDiscount(price, true)
		got := pricing.DiscountGrantedOn(paid)
		want := pricing.MembershipDiscount(price, true)
		assert.True(t, got.Equal(want), "list %s: got %s want %s", list, got, want)
	}
}
