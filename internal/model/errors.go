// Package model holds the core entities of the box office: seat
// inventories, events with their venues, customers, and tickets with
// their mirrored fee totals. These sentinel values allow higher layers
// such as handlers to distinguish between different failure scenarios
// and translate them into the right HTTP responses.
package model

import "errors"

// ErrInsufficientInventory is returned when a reservation asks for
// more seats than a category has available. The inventory is left
// untouched on failure.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// ErrUnknownCategory is returned when an operation names a seat
// category the inventory has never been configured with.
var ErrUnknownCategory = errors.New("unknown seat category")

// ErrInsufficientFunds is returned when a customer's balance cannot
// cover a purchase increment. No state is mutated on failure.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrSeatLimit is returned when a purchase increment would push a
// ticket past the per-transaction seat cap. It ends the purchase
// session rather than failing it.
var ErrSeatLimit = errors.New("seat limit reached")
