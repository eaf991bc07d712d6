// Package registry is the system-wide identity store: the canonical
// id-keyed collections of events, customers and tickets, the two
// secondary name indexes, the system-level fee accumulators and the
// id generators. A single mutex guards it all; multi-scope mutations
// run inside one Atomic call so no intermediate state is ever
// observable to another operation.
package registry

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/ticketminer/box-office/internal/model"
)

// ErrNotFound is returned by lookups for ids or names absent from the
// registry. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert would collide with an
// existing id, event name or username. Handlers should translate this
// into an HTTP 409 response.
var ErrDuplicate = errors.New("already exists")

// RemoveScope selects which back-references RemoveTicket also prunes.
// Registry-level removal always happens.
type RemoveScope struct {
	Event    bool
	Customer bool
}

// Registry holds the canonical collections and their indexes.
type Registry struct {
	mu sync.Mutex

	events     map[int]*model.Event
	eventNames map[string]int // event name -> id
	customers  map[int]*model.Customer
	usernames  map[string]int // lowercased username -> id
	tickets    map[int]*model.Ticket

	fees model.FeeTotals

	nextEventID    int
	nextPurchaseID int
}

// New returns an empty registry with both id generators starting at 1.
func New() *Registry {
	return &Registry{
		events:         make(map[int]*model.Event),
		eventNames:     make(map[string]int),
		customers:      make(map[int]*model.Customer),
		usernames:      make(map[string]int),
		tickets:        make(map[int]*model.Ticket),
		nextEventID:    1,
		nextPurchaseID: 1,
	}
}

// Tx gives access to the registry while its mutex is held. Every
// method on Tx assumes the lock; obtain one only through Atomic.
type Tx struct {
	r *Registry
}

// Atomic runs fn as one critical section over the whole registry.
// All multi-scope bookkeeping (purchase sessions, returns, event
// cancellation) goes through here so the three aggregate scopes stay
// mutually consistent between operations.
func (r *Registry) Atomic(fn func(tx *Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&Tx{r: r})
}

// NextEventID hands out the next admin event id.
func (tx *Tx) NextEventID() int {
	id := tx.r.nextEventID
	tx.r.nextEventID++
	return id
}

// NextPurchaseID hands out the next ticket purchase id. Ids are never
// reused, even after a ticket is cancelled.
func (tx *Tx) NextPurchaseID() int {
	id := tx.r.nextPurchaseID
	tx.r.nextPurchaseID++
	return id
}

// BumpEventID raises the event generator past an externally loaded id.
func (tx *Tx) BumpEventID(id int) {
	if id >= tx.r.nextEventID {
		tx.r.nextEventID = id + 1
	}
}

// BumpPurchaseID raises the purchase generator past a loaded id.
func (tx *Tx) BumpPurchaseID(id int) {
	if id >= tx.r.nextPurchaseID {
		tx.r.nextPurchaseID = id + 1
	}
}

// AddEvent inserts an event into the primary collection and the name
// index together.
func (tx *Tx) AddEvent(ev *model.Event) error {
	if _, ok := tx.r.events[ev.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := tx.r.eventNames[ev.Name]; ok {
		return ErrDuplicate
	}
	tx.r.events[ev.ID] = ev
	tx.r.eventNames[ev.Name] = ev.ID
	tx.BumpEventID(ev.ID)
	return nil
}

// EventByID looks up an event by id.
func (tx *Tx) EventByID(id int) (*model.Event, error) {
	ev, ok := tx.r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ev, nil
}

// EventByName looks up an event through the secondary name index.
func (tx *Tx) EventByName(name string) (*model.Event, error) {
	id, ok := tx.r.eventNames[name]
	if !ok {
		return nil, ErrNotFound
	}
	return tx.r.events[id], nil
}

// Events returns all events ordered by id.
func (tx *Tx) Events() []*model.Event {
	out := make([]*model.Event, 0, len(tx.r.events))
	for _, ev := range tx.r.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RenameEvent swaps the name index entry in a single step. The old
// mapping is removed and the new one inserted together; the index is
// never observable with both or neither name resolving to the id.
func (tx *Tx) RenameEvent(oldName, newName string, id int) error {
	got, ok := tx.r.eventNames[oldName]
	if !ok || got != id {
		return ErrNotFound
	}
	if other, ok := tx.r.eventNames[newName]; ok && other != id {
		return ErrDuplicate
	}
	delete(tx.r.eventNames, oldName)
	tx.r.eventNames[newName] = id
	tx.r.events[id].Name = newName
	return nil
}

// RemoveEvent detaches an event and its name index entry.
func (tx *Tx) RemoveEvent(id int) error {
	ev, ok := tx.r.events[id]
	if !ok {
		return ErrNotFound
	}
	delete(tx.r.events, id)
	delete(tx.r.eventNames, ev.Name)
	return nil
}

// AddCustomer inserts a customer and its username index entry. The
// username is unique case-insensitively.
func (tx *Tx) AddCustomer(cu *model.Customer) error {
	key := strings.ToLower(cu.Username)
	if _, ok := tx.r.customers[cu.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := tx.r.usernames[key]; ok {
		return ErrDuplicate
	}
	tx.r.customers[cu.ID] = cu
	tx.r.usernames[key] = cu.ID
	return nil
}

// CustomerByID looks up a customer by id.
func (tx *Tx) CustomerByID(id int) (*model.Customer, error) {
	cu, ok := tx.r.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cu, nil
}

// CustomerByUsername looks up a customer case-insensitively.
func (tx *Tx) CustomerByUsername(username string) (*model.Customer, error) {
	id, ok := tx.r.usernames[strings.ToLower(username)]
	if !ok {
		return nil, ErrNotFound
	}
	return tx.r.customers[id], nil
}

// Customers returns all customers ordered by id.
func (tx *Tx) Customers() []*model.Customer {
	out := make([]*model.Customer, 0, len(tx.r.customers))
	for _, cu := range tx.r.customers {
		out = append(out, cu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddTicket stores a finalized ticket. Tickets without seats are not
// stored; backing out of a purchase is the normal path, so this is
// logged and ignored rather than treated as a failure.
func (tx *Tx) AddTicket(t *model.Ticket) error {
	if len(t.Seats) == 0 {
		log.Printf("registry: discarding empty ticket for customer %d", t.Customer.ID)
		return nil
	}
	if _, ok := tx.r.tickets[t.PurchaseID]; ok {
		return ErrDuplicate
	}
	tx.r.tickets[t.PurchaseID] = t
	tx.BumpPurchaseID(t.PurchaseID)
	return nil
}

// TicketByID looks up a ticket by purchase id.
func (tx *Tx) TicketByID(id int) (*model.Ticket, error) {
	t, ok := tx.r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// Tickets returns all tickets ordered by purchase id.
func (tx *Tx) Tickets() []*model.Ticket {
	out := make([]*model.Ticket, 0, len(tx.r.tickets))
	for _, t := range tx.r.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseID < out[j].PurchaseID })
	return out
}

// RemoveTicket detaches a ticket from the registry and, per scope,
// from its event's and customer's back-references.
func (tx *Tx) RemoveTicket(t *model.Ticket, scope RemoveScope) {
	delete(tx.r.tickets, t.PurchaseID)
	if scope.Event {
		delete(t.Event.Tickets, t.PurchaseID)
	}
	if scope.Customer {
		delete(t.Customer.Tickets, t.PurchaseID)
	}
}

// AccrueFees folds d into the system-level accumulators.
func (tx *Tx) AccrueFees(d model.FeeTotals) { tx.r.fees.Accrue(d) }

// ReverseFees subtracts d from the system-level accumulators.
func (tx *Tx) ReverseFees(d model.FeeTotals) { tx.r.fees.Reverse(d) }

// Fees returns a copy of the system-level accumulators.
func (tx *Tx) Fees() model.FeeTotals { return tx.r.fees }

// Convenience wrappers for single-step lookups.

// EventByID locks and looks up an event by id.
func (r *Registry) EventByID(id int) (*model.Event, error) {
	var ev *model.Event
	err := r.Atomic(func(tx *Tx) error {
		var e error
		ev, e = tx.EventByID(id)
		return e
	})
	return ev, err
}

// CustomerByUsername locks and resolves a username.
func (r *Registry) CustomerByUsername(username string) (*model.Customer, error) {
	var cu *model.Customer
	err := r.Atomic(func(tx *Tx) error {
		var e error
		cu, e = tx.CustomerByUsername(username)
		return e
	})
	return cu, err
}

// Fees locks and returns the system-level accumulators.
func (r *Registry) Fees() model.FeeTotals {
	var f model.FeeTotals
	r.Atomic(func(tx *Tx) error {
		f = tx.Fees()
		return nil
	})
	return f
}
