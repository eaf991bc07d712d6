package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ticketminer/box-office/internal/boxoffice"
	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/monitoring"
	"github.com/ticketminer/box-office/internal/queue"
	"github.com/ticketminer/box-office/internal/registry"
	queue_publisher "github.com/ticketminer/box-office/internal/service"
)

// CustomerHandler serves the authenticated customer endpoints:
// purchase sessions, ticket listing, seat returns and cancellation.
type CustomerHandler struct {
	Reg    *registry.Registry
	Office *boxoffice.Office
}

func NewCustomerHandler(reg *registry.Registry, office *boxoffice.Office) *CustomerHandler {
	return &CustomerHandler{Reg: reg, Office: office}
}

// ----- DTOs -----

type purchaseItemReq struct {
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

type purchaseReq struct {
	Items []purchaseItemReq `json:"items"`
}

type purchaseResp struct {
	Ticket   *ticketView `json:"ticket,omitempty"`
	Messages []string    `json:"messages,omitempty"`
}

type returnSeatReq struct {
	Seat *int `json:"seat,omitempty"` // index; omitted means the last seat
}

// Purchase runs one purchase session against an event. Unknown
// category names are rejected up front; business failures inside the
// session come back as messages alongside whatever was bought.
func (h *CustomerHandler) Purchase(c echo.Context) error {
	cid, ok := customerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no items"})
	}

	items := make([]boxoffice.PurchaseItem, 0, len(req.Items))
	for _, it := range req.Items {
		cat, ok := model.ParseCategory(it.Category)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category: " + it.Category})
		}
		if it.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be positive"})
		}
		items = append(items, boxoffice.PurchaseItem{Category: cat, Quantity: it.Quantity})
	}

	res, err := h.Office.Purchase(cid, eventID, items)
	if err != nil {
		return fail(c, err)
	}

	resp := purchaseResp{Messages: res.Messages}
	evLabel := strconv.Itoa(eventID)
	if res.Ticket == nil {
		monitoring.TrackPurchase(evLabel, "empty")
		return c.JSON(http.StatusOK, resp)
	}

	view := viewTicket(res.Ticket)
	resp.Ticket = &view
	monitoring.TrackPurchase(evLabel, "completed")
	for _, s := range res.Ticket.Seats {
		monitoring.TrackSeatsSold(evLabel, string(s.Category), 1)
	}
	h.publishLedger(c.Request().Context(), queue.KindTicketPurchased, res.Ticket, res.Ticket.TotalCost().String())
	h.publishFeeGauges()

	return c.JSON(http.StatusCreated, resp)
}

// MyTickets lists the caller's tickets ordered by purchase id.
func (h *CustomerHandler) MyTickets(c echo.Context) error {
	cid, ok := customerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	out := make([]ticketView, 0)
	err := h.Reg.Atomic(func(tx *registry.Tx) error {
		cu, err := tx.CustomerByID(cid)
		if err != nil {
			return err
		}
		for _, t := range tx.Tickets() {
			if t.Customer.ID == cu.ID {
				out = append(out, viewTicket(t))
			}
		}
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ReturnSeat gives one seat back. The body may name a seat index;
// without one the most recently purchased seat is returned.
func (h *CustomerHandler) ReturnSeat(c echo.Context) error {
	cid, ok := customerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ticketID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req returnSeatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	seatIndex := -1
	if req.Seat != nil {
		seatIndex = *req.Seat
	}

	t, err := h.Office.ReturnSeat(cid, ticketID, seatIndex)
	if err != nil {
		return fail(c, err)
	}

	monitoring.TrackReturn(strconv.Itoa(t.Event.ID))
	h.publishLedger(c.Request().Context(), queue.KindTicketReturned, t, "")
	h.publishFeeGauges()

	if t.State == model.Closed {
		return c.JSON(http.StatusOK, echo.Map{"message": "last seat returned, ticket closed", "purchase_id": t.PurchaseID})
	}
	view := viewTicket(t)
	return c.JSON(http.StatusOK, view)
}

// CancelTicket refunds the whole purchase and detaches the ticket.
func (h *CustomerHandler) CancelTicket(c echo.Context) error {
	cid, ok := customerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ticketID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	if err := h.Office.CancelTicket(cid, ticketID); err != nil {
		return fail(c, err)
	}

	monitoring.TrackCancellation("customer")
	h.publishFeeGauges()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = queue_publisher.PublishLedgerEvent(ctx, queue.LedgerEvent{
		Kind:       queue.KindTicketCancelled,
		PurchaseID: ticketID,
		CustomerID: cid,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "ticket cancelled and refunded", "purchase_id": ticketID})
}

// publishLedger sends a best-effort ledger event; failures are logged
// inside the publisher and ignored here.
func (h *CustomerHandler) publishLedger(ctx context.Context, kind string, t *model.Ticket, amount string) {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ev := queue.LedgerEvent{
		Kind:       kind,
		PurchaseID: t.PurchaseID,
		EventID:    t.Event.ID,
		EventName:  t.Event.Name,
		CustomerID: t.Customer.ID,
		Seats:      len(t.Seats),
		Subtotal:   t.Subtotal.String(),
		Taxes:      t.Fees.Taxes.String(),
		Fees:       t.Fees.ServiceFee.Add(t.Fees.Convenience).Add(t.Fees.CharityFee).String(),
		Amount:     amount,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	_ = queue_publisher.PublishLedgerEvent(pubCtx, ev)
}

// publishFeeGauges refreshes the registry-wide fee gauges.
func (h *CustomerHandler) publishFeeGauges() {
	f := h.Reg.Fees()
	monitoring.SetFeeTotal("taxes", f.Taxes)
	monitoring.SetFeeTotal("service", f.ServiceFee)
	monitoring.SetFeeTotal("convenience", f.Convenience)
	monitoring.SetFeeTotal("charity", f.CharityFee)
}
