package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxSeatsPerTicket caps how many seats one transaction may group.
const MaxSeatsPerTicket = 6

// TicketState tracks the purchase lifecycle:
// Building → Finalized → (PartiallyReturned)* → Closed.
type TicketState int

const (
	// Building tickets accept seats; they have no purchase id yet.
	Building TicketState = iota
	// Finalized tickets carry an id, a timestamp and the one-time fees.
	Finalized
	// PartiallyReturned tickets had at least one seat given back.
	PartiallyReturned
	// Closed tickets are emptied or cancelled and detached everywhere.
	Closed
)

// String returns the state name for logs and summaries.
func (s TicketState) String() string {
	switch s {
	case Building:
		return "BUILDING"
	case Finalized:
		return "FINALIZED"
	case PartiallyReturned:
		return "PARTIALLY_RETURNED"
	case Closed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// Ticket records one purchase transaction: a customer, an event, the
// ordered seats bought together, and the fee breakdown for the
// transaction. Its four fee totals are mirrored at event and registry
// scope; every increment or decrement here happens in lock-step with
// the two outer scopes.
//
// Fields:
//
//	PurchaseID  – unique, assigned at finalization, never reused.
//	Event       – owning event.
//	Customer    – purchasing customer.
//	Seats       – ordered line items, at most MaxSeatsPerTicket.
//	PurchasedAt – finalization timestamp.
//	Subtotal    – sum of seat prices paid, post-discount pre-tax.
//	Fees        – taxes plus the three one-time ticket fees.
//	State       – lifecycle state.
type Ticket struct {
	PurchaseID  int
	Event       *Event
	Customer    *Customer
	Seats       []Seat
	PurchasedAt time.Time
	Subtotal    decimal.Decimal
	Fees        FeeTotals
	State       TicketState
}

// NewTicket starts an empty Building ticket for a purchase session.
func NewTicket(ev *Event, cu *Customer) *Ticket {
	return &Ticket{Event: ev, Customer: cu, State: Building}
}

// AddSeat appends a purchased seat and grows the subtotal. Callers
// enforce the seat cap and inventory reservation first.
func (t *Ticket) AddSeat(s Seat) {
	t.Seats = append(t.Seats, s)
	t.Subtotal = t.Subtotal.Add(s.PricePaid)
}

// RemoveSeat drops the seat at index i, preserving order, and shrinks
// the subtotal by its paid price. The removed seat is returned.
func (t *Ticket) RemoveSeat(i int) Seat {
	s := t.Seats[i]
	t.Seats = append(t.Seats[:i], t.Seats[i+1:]...)
	t.Subtotal = t.Subtotal.Sub(s.PricePaid)
	return s
}

// TotalCost is the subtotal plus all four fee totals.
func (t *Ticket) TotalCost() decimal.Decimal {
	return t.Subtotal.Add(t.Fees.Sum())
}
