package boxoffice_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketminer/box-office/internal/boxoffice"
	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/pricing"
	"github.com/ticketminer/box-office/internal/registry"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testClock = func() time.Time {
	return time.Date(2026, 10, 5, 19, 30, 0, 0, time.UTC)
}

// fixture: one Texas event selling 10 General Admission seats at $20
// and one member customer holding $100.
func fixture(t *testing.T) (*registry.Registry, *boxoffice.Office) {
	t.Helper()
	reg := registry.New()
	err := reg.Atomic(func(tx *registry.Tx) error {
		ev := model.NewEvent(1, model.Concert, "Opening Night", "10/05/2026", "07:30 PM")
		ev.Jurisdiction = "Texas"
		ev.Venue = &model.Venue{Kind: model.Arena, Name: "Main Arena", Capacity: 500, Cost: dec("1000")}
		ev.Inventory.SetCategory(model.GeneralAdmission, 10, dec("20"))
		if err := tx.AddEvent(ev); err != nil {
			return err
		}
		return tx.AddCustomer(model.NewCustomer(1, "Ada", "Lovelace", dec("100"), true, "ada", "pw"))
	})
	require.NoError(t, err)
	return reg, boxoffice.NewWithClock(reg, testClock)
}

func balance(t *testing.T, reg *registry.Registry, id int) decimal.Decimal {
	t.Helper()
	var b decimal.Decimal
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		cu, err := tx.CustomerByID(id)
		if err != nil {
			return err
		}
		b = cu.Balance
		return nil
	}))
	return b
}

func TestMemberPurchaseTwoSeats(t *testing.T) {
	reg, office := fixture(t)

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.GeneralAdmission, Quantity: 2},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)
	tk := res.Ticket

	// Each $20 seat costs a member $18 plus $1.485 Texas tax, and the
	// finalized ticket carries $2.50 + 0.5% + 0.75% in one-time fees.
	assert.True(t, tk.Subtotal.Equal(dec("36")), "subtotal %s", tk.Subtotal)
	assert.True(t, tk.Fees.Taxes.Equal(dec("2.97")), "taxes %s", tk.Fees.Taxes)
	assert.True(t, tk.Fees.ServiceFee.Equal(dec("0.18")))
	assert.True(t, tk.Fees.Convenience.Equal(dec("2.50")))
	assert.True(t, tk.Fees.CharityFee.Equal(dec("0.27")))
	assert.True(t, tk.TotalCost().Equal(dec("41.92")), "total %s", tk.TotalCost())

	// Balance: $100 - $38.97 seat debit - $2.95 fees.
	assert.True(t, balance(t, reg, 1).Equal(dec("58.08")), "balance %s", balance(t, reg, 1))

	assert.Equal(t, 1, tk.PurchaseID)
	assert.Equal(t, model.Finalized, tk.State)
	assert.Equal(t, testClock(), tk.PurchasedAt)

	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, _ := tx.EventByID(1)
		cu, _ := tx.CustomerByID(1)
		assert.Equal(t, 8, ev.Inventory.Available(model.GeneralAdmission))
		assert.True(t, cu.TotalSaved.Equal(dec("4")))
		assert.True(t, ev.TotalDiscounted.Equal(dec("4")))

		// Ticket attached at all three scopes with mirrored fees.
		assert.Same(t, tk, ev.Tickets[1])
		assert.Same(t, tk, cu.Tickets[1])
		stored, err := tx.TicketByID(1)
		require.NoError(t, err)
		assert.Same(t, tk, stored)
		assert.True(t, ev.Fees.Equal(tk.Fees))
		assert.True(t, tx.Fees().Equal(tk.Fees))
		return nil
	}))
}

func TestCancelTicketRestoresEverything(t *testing.T) {
	reg, office := fixture(t)

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.GeneralAdmission, Quantity: 2},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)

	require.NoError(t, office.CancelTicket(1, res.Ticket.PurchaseID))

	assert.True(t, balance(t, reg, 1).Equal(dec("100")), "balance %s", balance(t, reg, 1))
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, _ := tx.EventByID(1)
		cu, _ := tx.CustomerByID(1)
		assert.Equal(t, 10, ev.Inventory.Available(model.GeneralAdmission))
		assert.True(t, cu.TotalSaved.IsZero())
		assert.True(t, ev.TotalDiscounted.IsZero())
		assert.True(t, ev.Fees.Equal(model.FeeTotals{}))
		assert.True(t, tx.Fees().Equal(model.FeeTotals{}))
		assert.Empty(t, ev.Tickets)
		assert.Empty(t, cu.Tickets)
		_, err := tx.TicketByID(1)
		assert.ErrorIs(t, err, registry.ErrNotFound)

		// Purchase ids are never reused after cancellation.
		assert.Equal(t, 2, tx.NextPurchaseID())
		return nil
	}))
}

func TestReturnSeatRefundsOnlyThePaidPrice(t *testing.T) {
	reg, office := fixture(t)

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.GeneralAdmission, Quantity: 2},
	})
	require.NoError(t, err)

	tk, err := office.ReturnSeat(1, res.Ticket.PurchaseID, -1)
	require.NoError(t, err)

	// Taxes and the one-time fees stay with the house.
	assert.True(t, balance(t, reg, 1).Equal(dec("76.08")), "balance %s", balance(t, reg, 1))
	assert.Equal(t, model.PartiallyReturned, tk.State)
	assert.True(t, tk.Subtotal.Equal(dec("18")))
	assert.True(t, tk.Fees.Taxes.Equal(dec("2.97")), "ticket fee totals are not touched by a seat return")

	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, _ := tx.EventByID(1)
		cu, _ := tx.CustomerByID(1)
		assert.Equal(t, 9, ev.Inventory.Available(model.GeneralAdmission))
		assert.True(t, cu.TotalSaved.Equal(dec("2")))
		assert.True(t, ev.TotalDiscounted.Equal(dec("2")))
		return nil
	}))
}

func TestReturningLastSeatClosesAndRetiresFees(t *testing.T) {
	reg, office := fixture(t)

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.GeneralAdmission, Quantity: 2},
	})
	require.NoError(t, err)
	id := res.Ticket.PurchaseID

	_, err = office.ReturnSeat(1, id, -1)
	require.NoError(t, err)
	tk, err := office.ReturnSeat(1, id, -1)
	require.NoError(t, err)

	assert.Equal(t, model.Closed, tk.State)
	// Two seat refunds of $18; taxes and fees were never given back.
	assert.True(t, balance(t, reg, 1).Equal(dec("94.08")), "balance %s", balance(t, reg, 1))

	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, _ := tx.EventByID(1)
		cu, _ := tx.CustomerByID(1)
		// The residual ticket totals are retired from the outer scopes
		// without any further customer refund.
		assert.True(t, ev.Fees.Equal(model.FeeTotals{}))
		assert.True(t, tx.Fees().Equal(model.FeeTotals{}))
		assert.Equal(t, 10, ev.Inventory.Available(model.GeneralAdmission))
		assert.Empty(t, ev.Tickets)
		assert.Empty(t, cu.Tickets)
		_, err := tx.TicketByID(id)
		assert.ErrorIs(t, err, registry.ErrNotFound)
		return nil
	}))
}

func TestReturnSeatChecksOwnershipAndIndex(t *testing.T) {
	reg, office := fixture(t)
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		return tx.AddCustomer(model.NewCustomer(2, "Eve", "M", dec("100"), false, "eve", "pw"))
	}))

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.GeneralAdmission, Quantity: 1},
	})
	require.NoError(t, err)
	id := res.Ticket.PurchaseID

	_, err = office.ReturnSeat(2, id, -1)
	assert.ErrorIs(t, err, boxoffice.ErrForbidden)

	_, err = office.ReturnSeat(1, id, 5)
	assert.ErrorIs(t, err, boxoffice.ErrNoSeat)

	err = office.CancelTicket(2, id)
	assert.ErrorIs(t, err, boxoffice.ErrForbidden)
}

func TestSeatCapStopsTheSession(t *testing.T) {
	reg, office := fixture(t)

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.GeneralAdmission, Quantity: 4},
		{Category: model.GeneralAdmission, Quantity: 3},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)

	// The second increment would exceed six seats, so it is skipped
	// and the four already bought are finalized.
	assert.Len(t, res.Ticket.Seats, 4)
	assert.NotEmpty(t, res.Messages)

	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, _ := tx.EventByID(1)
		assert.Equal(t, 6, ev.Inventory.Available(model.GeneralAdmission))
		return nil
	}))
}

func TestFailedIncrementReportsAndContinues(t *testing.T) {
	reg, office := fixture(t)
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(1)
		if err != nil {
			return err
		}
		ev.Inventory.SetCategory(model.Silver, 1, dec("40"))
		return nil
	}))

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.VIP, Quantity: 1},    // not configured
		{Category: model.Silver, Quantity: 3}, // only one in stock
		{Category: model.GeneralAdmission, Quantity: 1},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)

	assert.Len(t, res.Ticket.Seats, 1)
	assert.Len(t, res.Messages, 2)

	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, _ := tx.EventByID(1)
		assert.Equal(t, 9, ev.Inventory.Available(model.GeneralAdmission))
		return nil
	}))
}

func TestEmptySessionLeavesNoTrace(t *testing.T) {
	reg, office := fixture(t)

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.VIP, Quantity: 2},
	})
	require.NoError(t, err)

	assert.Nil(t, res.Ticket)
	assert.NotEmpty(t, res.Messages)
	assert.True(t, balance(t, reg, 1).Equal(dec("100")))
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		assert.Empty(t, tx.Tickets())
		assert.Equal(t, 1, tx.NextPurchaseID(), "no purchase id consumed")
		return nil
	}))
}

func TestUnknownJurisdictionAbortsTheSession(t *testing.T) {
	reg, office := fixture(t)
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(1)
		if err != nil {
			return err
		}
		ev.Jurisdiction = "Atlantis"
		return nil
	}))

	_, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.GeneralAdmission, Quantity: 1},
	})
	assert.ErrorIs(t, err, pricing.ErrUnknownJurisdiction)

	assert.True(t, balance(t, reg, 1).Equal(dec("100")))
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, _ := tx.EventByID(1)
		assert.Equal(t, 10, ev.Inventory.Available(model.GeneralAdmission))
		return nil
	}))
}

func TestInsufficientFundsSkipsTheIncrement(t *testing.T) {
	reg, office := fixture(t)
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		cu, err := tx.CustomerByID(1)
		if err != nil {
			return err
		}
		cu.Balance = dec("25")
		return nil
	}))

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.GeneralAdmission, Quantity: 2},
		{Category: model.GeneralAdmission, Quantity: 1},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)

	// $25 covers one discounted seat plus tax ($19.485) but not two.
	assert.Len(t, res.Ticket.Seats, 1)
	assert.Len(t, res.Messages, 1)
}

func TestCancelEventRefundsEveryTicket(t *testing.T) {
	reg, office := fixture(t)
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		return tx.AddCustomer(model.NewCustomer(2, "Eve", "M", dec("100"), false, "eve", "pw"))
	}))

	_, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{{Category: model.GeneralAdmission, Quantity: 2}})
	require.NoError(t, err)
	_, err = office.Purchase(2, 1, []boxoffice.PurchaseItem{{Category: model.GeneralAdmission, Quantity: 1}})
	require.NoError(t, err)

	refunded, err := office.CancelEvent(1)
	require.NoError(t, err)
	assert.Equal(t, 2, refunded)

	assert.True(t, balance(t, reg, 1).Equal(dec("100")))
	assert.True(t, balance(t, reg, 2).Equal(dec("100")))
	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		_, err := tx.EventByID(1)
		assert.ErrorIs(t, err, registry.ErrNotFound)
		_, err = tx.EventByName("Opening Night")
		assert.ErrorIs(t, err, registry.ErrNotFound)
		assert.Empty(t, tx.Tickets())
		assert.True(t, tx.Fees().Equal(model.FeeTotals{}))
		return nil
	}))
}

func TestReturnedSeatKeepsTheListPrice(t *testing.T) {
	reg, office := fixture(t)

	res, err := office.Purchase(1, 1, []boxoffice.PurchaseItem{
		{Category: model.GeneralAdmission, Quantity: 1},
	})
	require.NoError(t, err)

	_, err = office.ReturnSeat(1, res.Ticket.PurchaseID, -1)
	require.NoError(t, err)

	require.NoError(t, reg.Atomic(func(tx *registry.Tx) error {
		ev, _ := tx.EventByID(1)
		// The member paid $18 but the relisted seat sells at $20.
		price, err := ev.Inventory.Price(model.GeneralAdmission)
		require.NoError(t, err)
		assert.True(t, price.Equal(dec("20")))
		assert.Equal(t, 10, ev.Inventory.Available(model.GeneralAdmission))
		return nil
	}))
}
