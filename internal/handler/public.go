package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/registry"
)

// PublicHandler serves the unauthenticated browse endpoints.
type PublicHandler struct {
	Reg *registry.Registry
}

func NewPublicHandler(reg *registry.Registry) *PublicHandler {
	return &PublicHandler{Reg: reg}
}

// ListEvents returns every listed event ordered by id.
func (h *PublicHandler) ListEvents(c echo.Context) error {
	out := make([]eventView, 0)
	h.Reg.Atomic(func(tx *registry.Tx) error {
		for _, ev := range tx.Events() {
			out = append(out, viewEvent(ev))
		}
		return nil
	})
	return c.JSON(http.StatusOK, out)
}

// GetEvent returns one event by id.
func (h *PublicHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var view eventView
	errLookup := h.Reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(id)
		if err != nil {
			return err
		}
		view = viewEvent(ev)
		return nil
	})
	if errLookup != nil {
		return fail(c, errLookup)
	}
	return c.JSON(http.StatusOK, view)
}

// EventSeats returns the remaining seat options for one event.
func (h *PublicHandler) EventSeats(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var (
		seats    []seatOptionView
		reserved int
	)
	errLookup := h.Reg.Atomic(func(tx *registry.Tx) error {
		ev, err := tx.EventByID(id)
		if err != nil {
			return err
		}
		seats = viewSeatOptions(ev.Inventory)
		reserved = ev.Inventory.ReservedSeats()
		return nil
	})
	if errLookup != nil {
		return fail(c, errLookup)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id":       id,
		"seats":          seats,
		"reserved_seats": reserved,
		"max_per_ticket": model.MaxSeatsPerTicket,
	})
}
