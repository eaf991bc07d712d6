package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketminer/box-office/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReserveAndRelease(t *testing.T) {
	inv := model.NewSeatInventory()
	inv.SetCategory(model.GeneralAdmission, 10, dec("20"))

	require.NoError(t, inv.ReserveSeats(model.GeneralAdmission, 2))
	assert.Equal(t, 8, inv.Available(model.GeneralAdmission))

	require.NoError(t, inv.ReleaseSeats(model.GeneralAdmission, 1))
	assert.Equal(t, 9, inv.Available(model.GeneralAdmission))
}

func TestReserveInsufficientLeavesStateUntouched(t *testing.T) {
	inv := model.NewSeatInventory()
	inv.SetCategory(model.VIP, 3, dec("100"))

	err := inv.ReserveSeats(model.VIP, 4)
	assert.ErrorIs(t, err, model.ErrInsufficientInventory)
	assert.Equal(t, 3, inv.Available(model.VIP))
}

func TestReserveUnknownCategory(t *testing.T) {
	inv := model.NewSeatInventory()

	assert.ErrorIs(t, inv.ReserveSeats(model.Gold, 1), model.ErrUnknownCategory)
	assert.ErrorIs(t, inv.ReleaseSeats(model.Gold, 1), model.ErrUnknownCategory)
	_, err := inv.Price(model.Gold)
	assert.ErrorIs(t, err, model.ErrUnknownCategory)
}

func TestSetCategoryByPct(t *testing.T) {
	inv := model.NewSeatInventory()

	// 5 always means 5 percent, never a 5x multiplier.
	count := inv.SetCategoryByPct(model.Silver, 5, 1000, dec("40"))
	assert.Equal(t, 50, count)
	assert.Equal(t, 50, inv.Available(model.Silver))

	// Rounded, not truncated.
	count = inv.SetCategoryByPct(model.Bronze, 33, 100, dec("25"))
	assert.Equal(t, 33, count)

	count = inv.SetCategoryByPct(model.Gold, 25, 150, dec("60"))
	assert.Equal(t, 38, count)
}

func TestSetCategoryClampsNegative(t *testing.T) {
	inv := model.NewSeatInventory()
	inv.SetCategory(model.VIP, -4, dec("100"))
	assert.Equal(t, 0, inv.Available(model.VIP))
	assert.True(t, inv.Has(model.VIP))
}

func TestReservedSeatsAreSeparate(t *testing.T) {
	inv := model.NewSeatInventory()
	inv.SetCategory(model.GeneralAdmission, 10, dec("20"))
	inv.SetReservedSeats(25)

	assert.Equal(t, 25, inv.ReservedSeats())
	require.NoError(t, inv.ReserveSeats(model.GeneralAdmission, 10))
	assert.Equal(t, 25, inv.ReservedSeats())
}

func TestCategoriesKeepFixedOrder(t *testing.T) {
	inv := model.NewSeatInventory()
	inv.SetCategory(model.GeneralAdmission, 1, dec("20"))
	inv.SetCategory(model.VIP, 1, dec("100"))
	inv.SetCategory(model.Silver, 1, dec("40"))

	assert.Equal(t,
		[]model.SeatCategory{model.VIP, model.Silver, model.GeneralAdmission},
		inv.Categories())
}

func TestParseCategory(t *testing.T) {
	got, ok := model.ParseCategory("general admission")
	require.True(t, ok)
	assert.Equal(t, model.GeneralAdmission, got)

	got, ok = model.ParseCategory("VIP")
	require.True(t, ok)
	assert.Equal(t, model.VIP, got)

	_, ok = model.ParseCategory("Platinum")
	assert.False(t, ok)
}

func TestTicketSeatBookkeeping(t *testing.T) {
	ev := model.NewEvent(1, model.Concert, "Show", "10/05/2026", "07:30 PM")
	cu := model.NewCustomer(1, "Ada", "L", dec("100"), false, "ada", "x")
	tk := model.NewTicket(ev, cu)

	tk.AddSeat(model.Seat{Category: model.GeneralAdmission, PricePaid: dec("18")})
	tk.AddSeat(model.Seat{Category: model.GeneralAdmission, PricePaid: dec("18")})
	assert.True(t, tk.Subtotal.Equal(dec("36")))

	seat := tk.RemoveSeat(0)
	assert.Equal(t, model.GeneralAdmission, seat.Category)
	assert.True(t, tk.Subtotal.Equal(dec("18")))
	assert.Len(t, tk.Seats, 1)
}

func TestFeeTotalsAccrueReverse(t *testing.T) {
	var f model.FeeTotals
	d := model.FeeTotals{
		Taxes:       dec("2.97"),
		ServiceFee:  dec("0.18"),
		Convenience: dec("2.50"),
		CharityFee:  dec("0.27"),
	}

	f.Accrue(d)
	assert.True(t, f.Equal(d))
	assert.True(t, f.Sum().Equal(dec("5.92")))

	f.Reverse(d)
	assert.True(t, f.Sum().IsZero())
	assert.True(t, f.Equal(model.FeeTotals{}))
}
