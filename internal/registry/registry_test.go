package registry_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/registry"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newEvent(id int, name string) *model.Event {
	return model.NewEvent(id, model.Concert, name, "10/05/2026", "07:30 PM")
}

func TestAddEventKeepsBothIndexesInSync(t *testing.T) {
	reg := registry.New()

	err := reg.Atomic(func(tx *registry.Tx) error {
		require.NoError(t, tx.AddEvent(newEvent(tx.NextEventID(), "Opening Night")))

		ev, err := tx.EventByID(1)
		require.NoError(t, err)
		byName, err := tx.EventByName("Opening Night")
		require.NoError(t, err)
		assert.Same(t, ev, byName)
		return nil
	})
	require.NoError(t, err)
}

func TestAddEventRejectsDuplicates(t *testing.T) {
	reg := registry.New()

	reg.Atomic(func(tx *registry.Tx) error {
		require.NoError(t, tx.AddEvent(newEvent(1, "Opening Night")))

		assert.ErrorIs(t, tx.AddEvent(newEvent(1, "Other")), registry.ErrDuplicate)
		assert.ErrorIs(t, tx.AddEvent(newEvent(2, "Opening Night")), registry.ErrDuplicate)

		// Neither rejected insert may leave index residue.
		_, err := tx.EventByName("Other")
		assert.ErrorIs(t, err, registry.ErrNotFound)
		_, err = tx.EventByID(2)
		assert.ErrorIs(t, err, registry.ErrNotFound)
		return nil
	})
}

func TestRenameEventSwapsIndexEntry(t *testing.T) {
	reg := registry.New()

	reg.Atomic(func(tx *registry.Tx) error {
		require.NoError(t, tx.AddEvent(newEvent(1, "Old Name")))
		require.NoError(t, tx.AddEvent(newEvent(2, "Taken")))

		assert.ErrorIs(t, tx.RenameEvent("Old Name", "Taken", 1), registry.ErrDuplicate)

		require.NoError(t, tx.RenameEvent("Old Name", "New Name", 1))
		_, err := tx.EventByName("Old Name")
		assert.ErrorIs(t, err, registry.ErrNotFound)
		ev, err := tx.EventByName("New Name")
		require.NoError(t, err)
		assert.Equal(t, 1, ev.ID)
		assert.Equal(t, "New Name", ev.Name)
		return nil
	})
}

func TestRemoveEventClearsNameIndex(t *testing.T) {
	reg := registry.New()

	reg.Atomic(func(tx *registry.Tx) error {
		require.NoError(t, tx.AddEvent(newEvent(1, "Opening Night")))
		require.NoError(t, tx.RemoveEvent(1))

		_, err := tx.EventByName("Opening Night")
		assert.ErrorIs(t, err, registry.ErrNotFound)
		assert.ErrorIs(t, tx.RemoveEvent(1), registry.ErrNotFound)
		return nil
	})
}

func TestUsernameLookupIsCaseInsensitive(t *testing.T) {
	reg := registry.New()

	reg.Atomic(func(tx *registry.Tx) error {
		cu := model.NewCustomer(1, "Ada", "Lovelace", dec("100"), true, "Ada", "pw")
		require.NoError(t, tx.AddCustomer(cu))

		got, err := tx.CustomerByUsername("ADA")
		require.NoError(t, err)
		assert.Same(t, cu, got)

		dup := model.NewCustomer(2, "Adam", "Smith", dec("50"), false, "aDa", "pw")
		assert.ErrorIs(t, tx.AddCustomer(dup), registry.ErrDuplicate)
		return nil
	})
}

func TestIDGeneratorsAreMonotonic(t *testing.T) {
	reg := registry.New()

	reg.Atomic(func(tx *registry.Tx) error {
		assert.Equal(t, 1, tx.NextEventID())
		assert.Equal(t, 2, tx.NextEventID())
		assert.Equal(t, 1, tx.NextPurchaseID())

		// Loading an external id pushes the generator past it.
		tx.BumpPurchaseID(40)
		assert.Equal(t, 41, tx.NextPurchaseID())
		tx.BumpPurchaseID(10)
		assert.Equal(t, 42, tx.NextPurchaseID())
		return nil
	})
}

func TestEmptyTicketIsNotStored(t *testing.T) {
	reg := registry.New()

	reg.Atomic(func(tx *registry.Tx) error {
		ev := newEvent(1, "Opening Night")
		cu := model.NewCustomer(1, "Ada", "L", dec("100"), false, "ada", "pw")
		tk := model.NewTicket(ev, cu)
		tk.PurchaseID = 7

		require.NoError(t, tx.AddTicket(tk))
		_, err := tx.TicketByID(7)
		assert.ErrorIs(t, err, registry.ErrNotFound)
		return nil
	})
}

func TestRemoveTicketScope(t *testing.T) {
	reg := registry.New()

	reg.Atomic(func(tx *registry.Tx) error {
		ev := newEvent(1, "Opening Night")
		cu := model.NewCustomer(1, "Ada", "L", dec("100"), false, "ada", "pw")
		tk := model.NewTicket(ev, cu)
		tk.AddSeat(model.Seat{Category: model.GeneralAdmission, PricePaid: dec("18")})
		tk.PurchaseID = 1
		require.NoError(t, tx.AddTicket(tk))
		ev.Tickets[1] = tk
		cu.Tickets[1] = tk

		tx.RemoveTicket(tk, registry.RemoveScope{Event: true})

		_, err := tx.TicketByID(1)
		assert.ErrorIs(t, err, registry.ErrNotFound)
		assert.Empty(t, ev.Tickets)
		assert.Len(t, cu.Tickets, 1, "customer back-reference kept out of scope")
		return nil
	})
}

func TestFeesAccrueAndReverse(t *testing.T) {
	reg := registry.New()

	d := model.FeeTotals{Taxes: dec("1.485"), Convenience: dec("2.50")}
	reg.Atomic(func(tx *registry.Tx) error {
		tx.AccrueFees(d)
		tx.AccrueFees(d)
		tx.ReverseFees(d)
		return nil
	})

	assert.True(t, reg.Fees().Equal(d))
}
