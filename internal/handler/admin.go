package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ticketminer/box-office/internal/boxoffice"
	"github.com/ticketminer/box-office/internal/config"
	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/monitoring"
	"github.com/ticketminer/box-office/internal/queue"
	"github.com/ticketminer/box-office/internal/registry"
	queue_publisher "github.com/ticketminer/box-office/internal/service"
	"github.com/ticketminer/box-office/internal/stats"
	"github.com/ticketminer/box-office/internal/store"
)

// AdminHandler serves the administrator endpoints: event lifecycle,
// seat edits, statistics, fee audits and snapshot persistence.
type AdminHandler struct {
	Cfg    config.Config
	Reg    *registry.Registry
	Office *boxoffice.Office
	Store  store.Store
}

func NewAdminHandler(cfg config.Config, reg *registry.Registry, office *boxoffice.Office, st store.Store) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Reg: reg, Office: office, Store: st}
}

// ----- DTOs -----

type seatSetupReq struct {
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Count    *int            `json:"count,omitempty"`
	Pct      *int            `json:"pct,omitempty"`
}

type venueReq struct {
	Kind             string          `json:"kind"`
	Name             string          `json:"name"`
	Capacity         int             `json:"capacity"`
	Cost             decimal.Decimal `json:"cost"`
	SeatsUnavailable int             `json:"seats_unavailable"`
}

type createEventReq struct {
	Kind          string          `json:"kind"`
	Name          string          `json:"name"`
	Date          string          `json:"date"`
	Time          string          `json:"time"`
	Jurisdiction  string          `json:"jurisdiction"`
	Fireworks     bool            `json:"fireworks"`
	FireworksCost decimal.Decimal `json:"fireworks_cost"`
	Venue         venueReq        `json:"venue"`
	Seats         []seatSetupReq  `json:"seats"`
	ReservedCount *int            `json:"reserved_count,omitempty"`
	ReservedPct   *int            `json:"reserved_pct,omitempty"`
}

type priceEditReq struct {
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

type updateEventReq struct {
	Name  *string       `json:"name,omitempty"`
	Date  *string       `json:"date,omitempty"`
	Time  *string       `json:"time,omitempty"`
	Price *priceEditReq `json:"price,omitempty"`
}

type setSeatsReq struct {
	Seats         []seatSetupReq `json:"seats"`
	ReservedCount *int           `json:"reserved_count,omitempty"`
	ReservedPct   *int           `json:"reserved_pct,omitempty"`
}

// ----- input validation (date within [2022, 9999], 12-hour time) -----

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func validDate(s string) bool {
	var m, d, y int
	if _, err := fmt.Sscanf(s, "%d/%d/%d", &m, &d, &y); err != nil {
		return false
	}
	if y < 2022 || y > 9999 || m < 1 || m > 12 {
		return false
	}
	return d >= 1 && d <= daysInMonth[m]
}

func validTime(s string) bool {
	_, err := time.Parse("03:04 PM", s)
	return err == nil
}

// CreateEvent lists a new event with its venue and seat inventory.
// Seat counts may be given directly or as a percentage of the venue
// capacity.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	kind, ok := model.ParseEventKind(req.Kind)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown event kind: " + req.Kind})
	}
	vkind, ok := model.ParseVenueKind(req.Venue.Kind)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown venue kind: " + req.Venue.Kind})
	}
	if req.Name == "" || !validDate(req.Date) || !validTime(req.Time) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, date (MM/DD/YYYY) and time (HH:MM AM/PM) required"})
	}
	if req.Venue.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue capacity must be positive"})
	}

	var view eventView
	err := h.Reg.Atomic(func(tx *registry.Tx) error {
		ev := model.NewEvent(tx.NextEventID(), kind, req.Name, req.Date, req.Time)
		ev.Jurisdiction = req.Jurisdiction
		if ev.Jurisdiction == "" {
			ev.Jurisdiction = h.Cfg.DefaultJurisdiction
		}
		ev.Fireworks = req.Fireworks
		ev.FireworksCost = req.FireworksCost
		ev.Venue = &model.Venue{
			Kind:             vkind,
			Name:             req.Venue.Name,
			Capacity:         req.Venue.Capacity,
			Cost:             req.Venue.Cost,
			SeatsUnavailable: req.Venue.SeatsUnavailable,
		}
		if err := applySeatSetup(ev, req.Seats, req.ReservedCount, req.ReservedPct); err != nil {
			return err
		}
		if err := tx.AddEvent(ev); err != nil {
			return err
		}
		view = viewEvent(ev)
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// applySeatSetup configures inventory categories and the reserved
// count from a request, shared by create and seat edits.
func applySeatSetup(ev *model.Event, seats []seatSetupReq, reservedCount, reservedPct *int) error {
	for _, s := range seats {
		cat, ok := model.ParseCategory(s.Category)
		if !ok {
			return fmt.Errorf("%w: %q", model.ErrUnknownCategory, s.Category)
		}
		switch {
		case s.Pct != nil:
			ev.Inventory.SetCategoryByPct(cat, *s.Pct, ev.Venue.Capacity, s.Price)
		case s.Count != nil:
			ev.Inventory.SetCategory(cat, *s.Count, s.Price)
		default:
			// Unknown count defaults to 0, price is still recorded.
			ev.Inventory.SetCategory(cat, 0, s.Price)
		}
	}
	switch {
	case reservedPct != nil:
		ev.Inventory.SetReservedSeats(*reservedPct * ev.Venue.Capacity / 100)
	case reservedCount != nil:
		ev.Inventory.SetReservedSeats(*reservedCount)
	}
	return nil
}

// UpdateEvent patches an event: rename (atomic index swap), date,
// time, or one category's price. Price edits that break the tier
// ordering against a neighbouring category come back as warnings, not
// failures.
func (h *AdminHandler) UpdateEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Date != nil && !validDate(*req.Date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	if req.Time != nil && !validTime(*req.Time) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time"})
	}

	var (
		view     eventView
		warnings []string
	)
	err = h.Reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(id)
		if err != nil {
			return err
		}
		if req.Name != nil && *req.Name != ev.Name {
			if err := tx.RenameEvent(ev.Name, *req.Name, ev.ID); err != nil {
				return err
			}
		}
		if req.Date != nil {
			ev.Date = *req.Date
		}
		if req.Time != nil {
			ev.Time = *req.Time
		}
		if req.Price != nil {
			cat, ok := model.ParseCategory(req.Price.Category)
			if !ok {
				return fmt.Errorf("%w: %q", model.ErrUnknownCategory, req.Price.Category)
			}
			if !ev.Inventory.Has(cat) {
				return model.ErrUnknownCategory
			}
			warnings = priceOrderWarnings(ev.Inventory, cat, req.Price.Price)
			ev.Inventory.SetCategory(cat, ev.Inventory.Available(cat), req.Price.Price)
		}
		view = viewEvent(ev)
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event": view, "warnings": warnings})
}

// priceOrderWarnings checks a new price against the configured
// neighbouring tiers and reports any ordering violation.
func priceOrderWarnings(inv *model.SeatInventory, cat model.SeatCategory, price decimal.Decimal) []string {
	warnings := make([]string, 0)
	if up, ok := cat.MoreExpensiveNeighbor(); ok && inv.Has(up) {
		if upPrice, err := inv.Price(up); err == nil && price.GreaterThan(upPrice) {
			warnings = append(warnings, fmt.Sprintf("%s is now more expensive than %s", cat, up))
		}
	}
	if down, ok := cat.CheaperNeighbor(); ok && inv.Has(down) {
		if downPrice, err := inv.Price(down); err == nil && price.LessThan(downPrice) {
			warnings = append(warnings, fmt.Sprintf("%s is now cheaper than %s", cat, down))
		}
	}
	return warnings
}

// SetSeats overwrites seat categories and the reserved count.
func (h *AdminHandler) SetSeats(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req setSeatsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	var view eventView
	err = h.Reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(id)
		if err != nil {
			return err
		}
		if err := applySeatSetup(ev, req.Seats, req.ReservedCount, req.ReservedPct); err != nil {
			return err
		}
		view = viewEvent(ev)
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteEvent cancels an event: every sold ticket is refunded in full
// and the event disappears from the registry.
func (h *AdminHandler) DeleteEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	refunded, err := h.Office.CancelEvent(id)
	if err != nil {
		return fail(c, err)
	}

	for i := 0; i < refunded; i++ {
		monitoring.TrackCancellation("event_cancelled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = queue_publisher.PublishLedgerEvent(ctx, queue.LedgerEvent{
		Kind:       queue.KindEventCancelled,
		EventID:    id,
		Seats:      refunded,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "event cancelled", "tickets_refunded": refunded})
}

// Statistics returns the on-demand revenue aggregation for an event.
func (h *AdminHandler) Statistics(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var out stats.EventStats
	errLookup := h.Reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(id)
		if err != nil {
			return err
		}
		out = stats.Compute(ev)
		return nil
	})
	if errLookup != nil {
		return fail(c, errLookup)
	}
	return c.JSON(http.StatusOK, out)
}

// RegistryFees returns the system-wide fee accumulators.
func (h *AdminHandler) RegistryFees(c echo.Context) error {
	return c.JSON(http.StatusOK, viewFees(h.Reg.Fees()))
}

// EventFees returns one event's fee accumulators.
func (h *AdminHandler) EventFees(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var out feeView
	errLookup := h.Reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(id)
		if err != nil {
			return err
		}
		out = viewFees(ev.Fees)
		return nil
	})
	if errLookup != nil {
		return fail(c, errLookup)
	}
	return c.JSON(http.StatusOK, out)
}

// Save persists the registry snapshot through the configured store.
func (h *AdminHandler) Save(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()
	if err := h.Store.Save(ctx, h.Reg); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed: " + err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "registry saved"})
}

// ListCustomers is an audit view of all customers.
func (h *AdminHandler) ListCustomers(c echo.Context) error {
	type customerView struct {
		ID         int             `json:"id"`
		Name       string          `json:"name"`
		Username   string          `json:"username"`
		Member     bool            `json:"member"`
		Balance    decimal.Decimal `json:"balance"`
		TotalSaved decimal.Decimal `json:"total_saved"`
		Tickets    int             `json:"tickets"`
	}
	out := make([]customerView, 0)
	h.Reg.Atomic(func(tx *registry.Tx) error {
		for _, cu := range tx.Customers() {
			out = append(out, customerView{
				ID:         cu.ID,
				Name:       cu.FirstName + " " + cu.LastName,
				Username:   cu.Username,
				Member:     cu.Member,
				Balance:    cu.Balance,
				TotalSaved: cu.TotalSaved,
				Tickets:    len(cu.Tickets),
			})
		}
		return nil
	})
	return c.JSON(http.StatusOK, out)
}
