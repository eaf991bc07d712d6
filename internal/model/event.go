package model

import "github.com/shopspring/decimal"

// EventKind tags the event variant (closed set).
type EventKind string

const (
	Sport   EventKind = "Sport"
	Concert EventKind = "Concert"
	Special EventKind = "Special"
)

// ParseEventKind resolves an event kind from its stored name.
func ParseEventKind(s string) (EventKind, bool) {
	for _, k := range []EventKind{Sport, Concert, Special} {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Event owns a seat inventory, a venue and the set of tickets sold
// against it, and aggregates event-level fee totals mirroring the
// tickets'.
//
// Fields:
//
//	ID              – admin-assigned, monotonically increasing.
//	Kind            – tagged event variant.
//	Name            – unique; renames need an atomic registry key swap.
//	Date, Time      – validated at the input boundary, stored verbatim.
//	Jurisdiction    – tax-table key for this event's location.
//	Fireworks       – whether a fireworks show is planned.
//	FireworksCost   – cost of the fireworks show, if planned.
//	Venue           – owned 1:1.
//	Inventory       – per-category availability and pricing.
//	TotalDiscounted – cumulative membership discount granted.
//	Fees            – event-scope mirror of attached tickets' totals.
//	Tickets         – attached, non-cancelled tickets by purchase id.
type Event struct {
	ID              int
	Kind            EventKind
	Name            string
	Date            string
	Time            string
	Jurisdiction    string
	Fireworks       bool
	FireworksCost   decimal.Decimal
	Venue           *Venue
	Inventory       *SeatInventory
	TotalDiscounted decimal.Decimal
	Fees            FeeTotals
	Tickets         map[int]*Ticket
}

// NewEvent returns an event with an empty inventory and ticket set.
func NewEvent(id int, kind EventKind, name, date, tm string) *Event {
	return &Event{
		ID:        id,
		Kind:      kind,
		Name:      name,
		Date:      date,
		Time:      tm,
		Inventory: NewSeatInventory(),
		Tickets:   make(map[int]*Ticket),
	}
}
