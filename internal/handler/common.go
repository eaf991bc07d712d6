package handler // HTTP handlers for the box office API

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ticketminer/box-office/internal/boxoffice"
	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/pricing"
	"github.com/ticketminer/box-office/internal/registry"
)

// customerID pulls the authenticated subject out of the context. The
// JWT middleware stores the raw claim, which may arrive as a float64
// (JSON number) or string depending on how the token was minted.
func customerID(c echo.Context) (int, bool) {
	switch v := c.Get("customer_id").(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("id"))
}

// fail translates domain errors into JSON error responses.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, registry.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, registry.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, boxoffice.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrInsufficientFunds),
		errors.Is(err, model.ErrInsufficientInventory),
		errors.Is(err, model.ErrSeatLimit),
		errors.Is(err, model.ErrUnknownCategory),
		errors.Is(err, boxoffice.ErrNoSeat):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, pricing.ErrUnknownJurisdiction):
		status = http.StatusInternalServerError
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// ----- read-only views -----

type seatOptionView struct {
	Category  model.SeatCategory `json:"category"`
	Available int                `json:"available"`
	UnitPrice decimal.Decimal    `json:"unit_price"`
}

type venueView struct {
	Kind        model.VenueKind `json:"kind"`
	Description string          `json:"description"`
	Name        string          `json:"name"`
	Capacity    int             `json:"capacity"`
	Cost        decimal.Decimal `json:"cost"`
}

type eventView struct {
	ID              int              `json:"id"`
	Kind            model.EventKind  `json:"kind"`
	Name            string           `json:"name"`
	Date            string           `json:"date"`
	Time            string           `json:"time"`
	Jurisdiction    string           `json:"jurisdiction"`
	Fireworks       bool             `json:"fireworks"`
	FireworksCost   decimal.Decimal  `json:"fireworks_cost"`
	Venue           *venueView       `json:"venue,omitempty"`
	Seats           []seatOptionView `json:"seats"`
	ReservedSeats   int              `json:"reserved_seats"`
	TotalDiscounted decimal.Decimal  `json:"total_discounted"`
}

type seatView struct {
	Category  model.SeatCategory `json:"category"`
	PricePaid decimal.Decimal    `json:"price_paid"`
}

type ticketView struct {
	PurchaseID  int             `json:"purchase_id"`
	EventID     int             `json:"event_id"`
	EventName   string          `json:"event_name"`
	CustomerID  int             `json:"customer_id"`
	State       string          `json:"state"`
	PurchasedAt string          `json:"purchased_at"`
	Seats       []seatView      `json:"seats"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Taxes       decimal.Decimal `json:"taxes"`
	ServiceFee  decimal.Decimal `json:"service_fee"`
	Convenience decimal.Decimal `json:"convenience_fee"`
	CharityFee  decimal.Decimal `json:"charity_fee"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

type feeView struct {
	Taxes       decimal.Decimal `json:"taxes"`
	ServiceFee  decimal.Decimal `json:"service_fee"`
	Convenience decimal.Decimal `json:"convenience_fee"`
	CharityFee  decimal.Decimal `json:"charity_fee"`
}

func viewEvent(ev *model.Event) eventView {
	out := eventView{
		ID:              ev.ID,
		Kind:            ev.Kind,
		Name:            ev.Name,
		Date:            ev.Date,
		Time:            ev.Time,
		Jurisdiction:    ev.Jurisdiction,
		Fireworks:       ev.Fireworks,
		FireworksCost:   ev.FireworksCost,
		ReservedSeats:   ev.Inventory.ReservedSeats(),
		TotalDiscounted: ev.TotalDiscounted,
		Seats:           viewSeatOptions(ev.Inventory),
	}
	if ev.Venue != nil {
		out.Venue = &venueView{
			Kind:        ev.Venue.Kind,
			Description: ev.Venue.Kind.Describe(),
			Name:        ev.Venue.Name,
			Capacity:    ev.Venue.Capacity,
			Cost:        ev.Venue.Cost,
		}
	}
	return out
}

func viewSeatOptions(inv *model.SeatInventory) []seatOptionView {
	out := make([]seatOptionView, 0)
	for _, cat := range inv.Categories() {
		price, err := inv.Price(cat)
		if err != nil {
			continue
		}
		out = append(out, seatOptionView{Category: cat, Available: inv.Available(cat), UnitPrice: price})
	}
	return out
}

func viewTicket(t *model.Ticket) ticketView {
	seats := make([]seatView, 0, len(t.Seats))
	for _, s := range t.Seats {
		seats = append(seats, seatView{Category: s.Category, PricePaid: s.PricePaid})
	}
	return ticketView{
		PurchaseID:  t.PurchaseID,
		EventID:     t.Event.ID,
		EventName:   t.Event.Name,
		CustomerID:  t.Customer.ID,
		State:       t.State.String(),
		PurchasedAt: t.PurchasedAt.Format("01/02/2006 03:04 PM"),
		Seats:       seats,
		Subtotal:    t.Subtotal,
		Taxes:       t.Fees.Taxes,
		ServiceFee:  t.Fees.ServiceFee,
		Convenience: t.Fees.Convenience,
		CharityFee:  t.Fees.CharityFee,
		TotalCost:   t.TotalCost(),
	}
}

func viewFees(f model.FeeTotals) feeView {
	return feeView{
		Taxes:       f.Taxes,
		ServiceFee:  f.ServiceFee,
		Convenience: f.Convenience,
		CharityFee:  f.CharityFee,
	}
}
