package model

import (
	"log"
	"math"

	"github.com/shopspring/decimal"
)

// CategoryStock is the sellable state of one seat category.
//
// Fields:
//
//	Available – seats still on sale; never goes negative.
//	UnitPrice – list price per seat; overwritten only by admin edit.
type CategoryStock struct {
	Available int
	UnitPrice decimal.Decimal
}

// SeatInventory maps seat categories to their available count and
// unit price for one event. Reserved seats are house-held capacity
// tracked as a separate count; they are withheld from every category
// and never interact with reservations or releases.
type SeatInventory struct {
	stock    map[SeatCategory]*CategoryStock
	reserved int
}

// NewSeatInventory returns an empty inventory with no categories set.
func NewSeatInventory() *SeatInventory {
	return &SeatInventory{stock: make(map[SeatCategory]*CategoryStock)}
}

// SetCategory creates or overwrites a category's count and price.
// It is idempotent and is used both at event creation and by admin
// edits.
func (inv *SeatInventory) SetCategory(c SeatCategory, count int, price decimal.Decimal) {
	if count < 0 {
		count = 0
	}
	inv.stock[c] = &CategoryStock{Available: count, UnitPrice: price}
}

// SetCategoryByPct sizes a category as a percentage of the venue
// capacity: count = round(pct/100 × capacity). The value is always
// read as a percentage number, so 5 means 5%. Legacy data sometimes
// encoded fractions instead; values of 1 or below are still accepted
// but flagged, since they almost certainly meant a larger share.
func (inv *SeatInventory) SetCategoryByPct(c SeatCategory, pct int, capacity int, price decimal.Decimal) int {
	if pct <= 1 {
		log.Printf("inventory: category %s sized with pct=%d; suspicious legacy value, interpreting as %d%%", c, pct, pct)
	}
	count := int(math.Round(float64(pct) / 100 * float64(capacity)))
	inv.SetCategory(c, count, price)
	return count
}

// ReserveSeats takes n seats out of a category. It fails with
// ErrInsufficientInventory without touching any state when fewer than
// n seats are available.
func (inv *SeatInventory) ReserveSeats(c SeatCategory, n int) error {
	s, ok := inv.stock[c]
	if !ok {
		return ErrUnknownCategory
	}
	if s.Available < n {
		return ErrInsufficientInventory
	}
	s.Available -= n
	return nil
}

// ReleaseSeats puts n seats of a category back on sale. Returns are
// not capacity-bounded; the only failure is an unknown category.
func (inv *SeatInventory) ReleaseSeats(c SeatCategory, n int) error {
	s, ok := inv.stock[c]
	if !ok {
		return ErrUnknownCategory
	}
	s.Available += n
	return nil
}

// SetReservedSeats records the house-held seat count.
func (inv *SeatInventory) SetReservedSeats(n int) {
	if n < 0 {
		n = 0
	}
	inv.reserved = n
}

// ReservedSeats returns the house-held seat count.
func (inv *SeatInventory) ReservedSeats() int { return inv.reserved }

// Available returns the sellable count for a category, 0 if unknown.
func (inv *SeatInventory) Available(c SeatCategory) int {
	if s, ok := inv.stock[c]; ok {
		return s.Available
	}
	return 0
}

// Price returns the list price for a category.
func (inv *SeatInventory) Price(c SeatCategory) (decimal.Decimal, error) {
	s, ok := inv.stock[c]
	if !ok {
		return decimal.Decimal{}, ErrUnknownCategory
	}
	return s.UnitPrice, nil
}

// Has reports whether the category has been configured.
func (inv *SeatInventory) Has(c SeatCategory) bool {
	_, ok := inv.stock[c]
	return ok
}

// Categories returns the configured categories in the fixed ordering.
func (inv *SeatInventory) Categories() []SeatCategory {
	out := make([]SeatCategory, 0, len(inv.stock))
	for _, c := range CategoryOrder {
		if _, ok := inv.stock[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
