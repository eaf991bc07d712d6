package stats_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/stats"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeAggregatesSoldSeats(t *testing.T) {
	ev := model.NewEvent(1, model.Concert, "Opening Night", "10/05/2026", "07:30 PM")
	ev.Venue = &model.Venue{Kind: model.Arena, Name: "Main Arena", Capacity: 500, Cost: dec("100")}
	ev.Inventory.SetCategory(model.VIP, 3, dec("100"))
	ev.Inventory.SetCategory(model.GeneralAdmission, 8, dec("20"))

	cu := model.NewCustomer(1, "Ada", "L", dec("500"), false, "ada", "pw")
	tk := model.NewTicket(ev, cu)
	tk.AddSeat(model.Seat{Category: model.VIP, PricePaid: dec("100")})
	tk.AddSeat(model.Seat{Category: model.GeneralAdmission, PricePaid: dec("18")})
	tk.AddSeat(model.Seat{Category: model.GeneralAdmission, PricePaid: dec("20")})
	tk.PurchaseID = 1
	ev.Tickets[1] = tk

	got := stats.Compute(ev)

	assert.Equal(t, 1, got.EventID)
	assert.Equal(t, 3, got.TotalSold)
	assert.True(t, got.TotalRevenue.Equal(dec("138")), "revenue %s", got.TotalRevenue)

	require.Len(t, got.PerCategory, 2)
	assert.Equal(t, model.VIP, got.PerCategory[0].Category)
	assert.Equal(t, 1, got.PerCategory[0].Sold)
	assert.True(t, got.PerCategory[0].Revenue.Equal(dec("100")))
	assert.Equal(t, model.GeneralAdmission, got.PerCategory[1].Category)
	assert.Equal(t, 2, got.PerCategory[1].Sold)
	assert.True(t, got.PerCategory[1].Revenue.Equal(dec("38")))

	// Unsold: 3 VIP at $100 and 8 GA at $20 remain on sale.
	assert.True(t, got.ExpectedProfit.Equal(dec("498")), "expected %s", got.ExpectedProfit)
	assert.True(t, got.ActualProfit.Equal(dec("38")), "actual %s", got.ActualProfit)
}

func TestComputeEmptyEvent(t *testing.T) {
	ev := model.NewEvent(2, model.Sport, "Derby", "11/01/2026", "02:00 PM")
	ev.Venue = &model.Venue{Kind: model.Stadium, Name: "South Stadium", Capacity: 100, Cost: dec("250")}
	ev.Inventory.SetCategory(model.GeneralAdmission, 10, dec("20"))

	got := stats.Compute(ev)

	assert.Equal(t, 0, got.TotalSold)
	assert.True(t, got.TotalRevenue.IsZero())
	assert.True(t, got.ExpectedProfit.Equal(dec("-50")), "expected %s", got.ExpectedProfit)
	assert.True(t, got.ActualProfit.Equal(dec("-250")))
}
