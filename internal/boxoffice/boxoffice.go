// Package boxoffice orchestrates the transactions of the platform:
// purchase sessions, single-seat returns, full ticket cancellation
// and event cancellation. Every operation runs as one registry
// critical section and leaves ticket, event and registry fee totals
// mutually consistent before returning.
package boxoffice

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/pricing"
	"github.com/ticketminer/box-office/internal/registry"
)

// Office carries the registry and the clock used to stamp purchases.
type Office struct {
	reg *registry.Registry
	now func() time.Time
}

// New returns an office over reg using the wall clock.
func New(reg *registry.Registry) *Office {
	return &Office{reg: reg, now: time.Now}
}

// NewWithClock returns an office with an injected clock for tests.
func NewWithClock(reg *registry.Registry, now func() time.Time) *Office {
	return &Office{reg: reg, now: now}
}

// PurchaseItem is one increment of a purchase session: a quantity of
// seats from a single category.
type PurchaseItem struct {
	Category model.SeatCategory
	Quantity int
}

// PurchaseResult reports the outcome of a purchase session. Ticket is
// nil when the session ended with no seats, the normal backed-out
// path. Messages carries per-increment business failures that did not
// end the session.
type PurchaseResult struct {
	Ticket   *model.Ticket
	Messages []string
}

// Purchase runs one purchase session: each item is bought in order
// via the increment rules, then the ticket is finalized. Business
// failures on one increment (inventory, funds, bad category) are
// reported as messages and the session moves on; hitting the seat cap
// stops the session; configuration errors abort it entirely.
func (o *Office) Purchase(customerID, eventID int, items []PurchaseItem) (*PurchaseResult, error) {
	res := &PurchaseResult{}
	err := o.reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(eventID)
		if err != nil {
			return err
		}
		cu, err := tx.CustomerByID(customerID)
		if err != nil {
			return err
		}
		t := model.NewTicket(ev, cu)
		for _, it := range items {
			err := buyIncrement(tx, t, it.Category, it.Quantity)
			switch {
			case err == nil:
			case errors.Is(err, model.ErrSeatLimit):
				res.Messages = append(res.Messages,
					fmt.Sprintf("seat limit of %d per ticket reached, remaining items skipped", model.MaxSeatsPerTicket))
				return o.finalize(tx, t, res)
			case errors.Is(err, model.ErrInsufficientInventory),
				errors.Is(err, model.ErrInsufficientFunds),
				errors.Is(err, model.ErrUnknownCategory):
				log.Printf("boxoffice: purchase increment %dx %s on event %d failed: %v", it.Quantity, it.Category, ev.ID, err)
				res.Messages = append(res.Messages,
					fmt.Sprintf("could not buy %d %s seat(s): %v", it.Quantity, it.Category, err))
			default:
				// Configuration errors abandon the whole session.
				return err
			}
		}
		return o.finalize(tx, t, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// buyIncrement reserves n seats of one category onto a Building
// ticket: it checks the cap and the customer's funds, reserves
// inventory, appends the seat records at their discounted price,
// accrues the tax at all three scopes and debits the balance. On any
// failure no state has changed.
func buyIncrement(tx *registry.Tx, t *model.Ticket, cat model.SeatCategory, n int) error {
	if n <= 0 {
		return nil
	}
	if len(t.Seats)+n > model.MaxSeatsPerTicket {
		return model.ErrSeatLimit
	}
	ev, cu := t.Event, t.Customer
	price, err := ev.Inventory.Price(cat)
	if err != nil {
		return err
	}
	discount := pricing.MembershipDiscount(price, cu.Member)
	paid := price.Sub(discount)
	taxPerSeat, err := pricing.Tax(paid, ev.Jurisdiction)
	if err != nil {
		return err
	}
	qty := decimal.NewFromInt(int64(n))
	debit := paid.Add(taxPerSeat).Mul(qty)
	if cu.Balance.LessThan(debit) {
		return model.ErrInsufficientFunds
	}
	if err := ev.Inventory.ReserveSeats(cat, n); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		t.AddSeat(model.Seat{Category: cat, PricePaid: paid})
	}
	taxes := model.FeeTotals{Taxes: taxPerSeat.Mul(qty)}
	t.Fees.Accrue(taxes)
	ev.Fees.Accrue(taxes)
	tx.AccrueFees(taxes)
	cu.Balance = cu.Balance.Sub(debit)
	if cu.Member {
		saved := discount.Mul(qty)
		cu.TotalSaved = cu.TotalSaved.Add(saved)
		ev.TotalDiscounted = ev.TotalDiscounted.Add(saved)
	}
	return nil
}

// finalize closes out a purchase session. A ticket with no seats is
// discarded, not stored. Otherwise the ticket gets its purchase id
// and timestamp, the one-time fee schedule is applied and mirrored
// into event and registry, the fees are debited from the customer and
// the ticket is attached to all three scopes.
func (o *Office) finalize(tx *registry.Tx, t *model.Ticket, res *PurchaseResult) error {
	if len(t.Seats) == 0 {
		log.Printf("boxoffice: purchase session for customer %d on event %d ended with no seats, ticket discarded", t.Customer.ID, t.Event.ID)
		res.Messages = append(res.Messages, "no seats purchased")
		return nil
	}
	t.PurchaseID = tx.NextPurchaseID()
	t.PurchasedAt = o.now()

	fees := model.FeeTotals{
		ServiceFee:  pricing.ServiceFee(t.Subtotal),
		Convenience: pricing.ConvenienceFee,
		CharityFee:  pricing.CharityFee(t.Subtotal),
	}
	t.Fees.Accrue(fees)
	t.Event.Fees.Accrue(fees)
	tx.AccrueFees(fees)
	t.Customer.Balance = t.Customer.Balance.Sub(fees.Sum())

	t.State = model.Finalized
	t.Event.Tickets[t.PurchaseID] = t
	t.Customer.Tickets[t.PurchaseID] = t
	if err := tx.AddTicket(t); err != nil {
		return err
	}
	res.Ticket = t
	return nil
}

// ReturnSeat gives back a single seat of a finalized ticket. The
// customer is refunded only the seat's discounted price; taxes and
// the one-time ticket fees are kept, by policy. The seat re-enters
// the event's inventory, and any membership discount granted on it is
// rolled back from both discount totals. Returning the last seat
// closes the ticket, retires its residual fee totals from event and
// registry scope and detaches it everywhere.
//
// seatIndex selects the seat; pass a negative index for the most
// recently purchased one.
func (o *Office) ReturnSeat(customerID, ticketID, seatIndex int) (*model.Ticket, error) {
	var out *model.Ticket
	err := o.reg.Atomic(func(tx *registry.Tx) error {
		t, err := tx.TicketByID(ticketID)
		if err != nil {
			return err
		}
		if t.Customer.ID != customerID {
			return ErrForbidden
		}
		if seatIndex < 0 {
			seatIndex = len(t.Seats) - 1
		}
		if seatIndex >= len(t.Seats) {
			return ErrNoSeat
		}
		seat := t.RemoveSeat(seatIndex)
		relistSeat(t.Event.Inventory, seat)
		t.Customer.Balance = t.Customer.Balance.Add(seat.PricePaid)
		if t.Customer.Member {
			discount := pricing.DiscountGrantedOn(seat.PricePaid)
			t.Customer.TotalSaved = t.Customer.TotalSaved.Sub(discount)
			t.Event.TotalDiscounted = t.Event.TotalDiscounted.Sub(discount)
		}
		if len(t.Seats) == 0 {
			t.Event.Fees.Reverse(t.Fees)
			tx.ReverseFees(t.Fees)
			t.State = model.Closed
			tx.RemoveTicket(t, registry.RemoveScope{Event: true, Customer: true})
		} else {
			t.State = model.PartiallyReturned
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelTicket undoes a whole purchase: the customer gets totalCost
// back, every seat returns to inventory, all four fee totals are
// reversed at event and registry scope, discount totals are rolled
// back and the ticket is detached from all three collections. For a
// ticket with no prior returns this restores every balance and
// accumulator to its pre-purchase value exactly.
func (o *Office) CancelTicket(customerID, ticketID int) error {
	return o.reg.Atomic(func(tx *registry.Tx) error {
		t, err := tx.TicketByID(ticketID)
		if err != nil {
			return err
		}
		if customerID >= 0 && t.Customer.ID != customerID {
			return ErrForbidden
		}
		cancelTicket(tx, t, registry.RemoveScope{Event: true, Customer: true})
		return nil
	})
}

// cancelTicket does the shared cancellation bookkeeping under the
// registry lock.
func cancelTicket(tx *registry.Tx, t *model.Ticket, scope registry.RemoveScope) {
	cu, ev := t.Customer, t.Event
	cu.Balance = cu.Balance.Add(t.TotalCost())
	for _, seat := range t.Seats {
		relistSeat(ev.Inventory, seat)
		if cu.Member {
			discount := pricing.DiscountGrantedOn(seat.PricePaid)
			cu.TotalSaved = cu.TotalSaved.Sub(discount)
			ev.TotalDiscounted = ev.TotalDiscounted.Sub(discount)
		}
	}
	ev.Fees.Reverse(t.Fees)
	tx.ReverseFees(t.Fees)
	t.State = model.Closed
	tx.RemoveTicket(t, scope)
}

// CancelEvent cancels every ticket sold against the event, refunding
// each customer in full, then removes the event and its name index
// entry from the registry. It returns how many tickets were refunded.
func (o *Office) CancelEvent(eventID int) (int, error) {
	refunded := 0
	err := o.reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(eventID)
		if err != nil {
			return err
		}
		// Snapshot before cancellation mutates the ticket map.
		tickets := make([]*model.Ticket, 0, len(ev.Tickets))
		for _, t := range ev.Tickets {
			tickets = append(tickets, t)
		}
		sort.Slice(tickets, func(i, j int) bool { return tickets[i].PurchaseID < tickets[j].PurchaseID })
		for _, t := range tickets {
			cancelTicket(tx, t, registry.RemoveScope{Event: true, Customer: true})
			refunded++
		}
		return tx.RemoveEvent(eventID)
	})
	if err != nil {
		return 0, err
	}
	return refunded, nil
}

// relistSeat puts a returned seat back on sale. The category's list
// price is kept when it still exists; the paid price only seeds a
// category an admin has since dropped.
func relistSeat(inv *model.SeatInventory, seat model.Seat) {
	if err := inv.ReleaseSeats(seat.Category, 1); err != nil {
		inv.SetCategory(seat.Category, 1, seat.PricePaid)
	}
}
