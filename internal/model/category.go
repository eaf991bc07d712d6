package model

import "strings"

// SeatCategory is a priced tier of seating. The set of categories is
// fixed process-wide and carries a total ordering from most to least
// expensive, used for neighbour-price warnings during admin edits.
type SeatCategory string

const (
	VIP              SeatCategory = "VIP"
	Gold             SeatCategory = "Gold"
	Silver           SeatCategory = "Silver"
	Bronze           SeatCategory = "Bronze"
	GeneralAdmission SeatCategory = "General Admission"
)

// CategoryOrder lists every seat category from most to least
// expensive. The order is shared by inventory iteration, statistics
// and CSV column layout, so it must never be reshuffled.
var CategoryOrder = []SeatCategory{VIP, Gold, Silver, Bronze, GeneralAdmission}

// categoryRank maps a category to its position in CategoryOrder.
var categoryRank = func() map[SeatCategory]int {
	m := make(map[SeatCategory]int, len(CategoryOrder))
	for i, c := range CategoryOrder {
		m[c] = i
	}
	return m
}()

// Rank returns the category's position in the ordering, 0 being the
// most expensive tier. Unknown categories rank last.
func (c SeatCategory) Rank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return len(CategoryOrder)
}

// Valid reports whether c is one of the known categories.
func (c SeatCategory) Valid() bool {
	_, ok := categoryRank[c]
	return ok
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (SeatCategory, bool) {
	for _, c := range CategoryOrder {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// MoreExpensiveNeighbor returns the category one tier above c, if any.
func (c SeatCategory) MoreExpensiveNeighbor() (SeatCategory, bool) {
	r := c.Rank()
	if r == 0 || r >= len(CategoryOrder) {
		return "", false
	}
	return CategoryOrder[r-1], true
}

// CheaperNeighbor returns the category one tier below c, if any.
func (c SeatCategory) CheaperNeighbor() (SeatCategory, bool) {
	r := c.Rank()
	if r >= len(CategoryOrder)-1 {
		return "", false
	}
	return CategoryOrder[r+1], true
}
