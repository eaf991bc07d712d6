// Package stats computes on-demand revenue statistics for an event.
// Everything here is a pure read-side aggregation over the event's
// attached tickets; nothing is maintained incrementally, so the same
// ticket set always reproduces the same numbers.
package stats

import (
	"github.com/shopspring/decimal"

	"github.com/ticketminer/box-office/internal/model"
)

// CategoryStats summarizes sales for one seat category.
type CategoryStats struct {
	Category model.SeatCategory `json:"category"`
	Sold     int                `json:"sold"`
	Revenue  decimal.Decimal    `json:"revenue"`
}

// EventStats is the full statistics snapshot for one event.
//
// ExpectedProfit assumes every remaining seat sells at list price;
// ActualProfit counts only revenue already taken. Both are net of the
// venue cost.
type EventStats struct {
	EventID        int             `json:"event_id"`
	TotalSold      int             `json:"total_sold"`
	PerCategory    []CategoryStats `json:"per_category"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	ExpectedProfit decimal.Decimal `json:"expected_profit"`
	ActualProfit   decimal.Decimal `json:"actual_profit"`
}

// Compute aggregates sold counts and revenue per category across all
// attached tickets' seats, then derives the profit figures.
func Compute(ev *model.Event) EventStats {
	sold := make(map[model.SeatCategory]int)
	revenue := make(map[model.SeatCategory]decimal.Decimal)
	for _, t := range ev.Tickets {
		for _, seat := range t.Seats {
			sold[seat.Category]++
			revenue[seat.Category] = revenue[seat.Category].Add(seat.PricePaid)
		}
	}

	out := EventStats{EventID: ev.ID}
	unsoldValue := decimal.Zero
	for _, c := range ev.Inventory.Categories() {
		out.PerCategory = append(out.PerCategory, CategoryStats{
			Category: c,
			Sold:     sold[c],
			Revenue:  revenue[c],
		})
		out.TotalSold += sold[c]
		out.TotalRevenue = out.TotalRevenue.Add(revenue[c])

		price, err := ev.Inventory.Price(c)
		if err != nil {
			continue
		}
		available := decimal.NewFromInt(int64(ev.Inventory.Available(c)))
		unsoldValue = unsoldValue.Add(available.Mul(price))
	}

	cost := decimal.Zero
	if ev.Venue != nil {
		cost = ev.Venue.Cost
	}
	out.ExpectedProfit = unsoldValue.Add(out.TotalRevenue).Sub(cost)
	out.ActualProfit = out.TotalRevenue.Sub(cost)
	return out
}
