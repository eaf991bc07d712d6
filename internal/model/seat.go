package model

import "github.com/shopspring/decimal"

// Seat is one purchased-seat line item on a ticket: the category it
// was sold from and the price actually paid after any membership
// discount, before tax. A Seat is owned exclusively by the ticket
// that bought it; it is created at purchase time and dropped when the
// seat is returned or the ticket is cancelled.
type Seat struct {
	Category  SeatCategory
	PricePaid decimal.Decimal
}
