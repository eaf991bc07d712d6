// Package queue defines the ledger messages exchanged over the
// message broker and the background consumer that records them.
package queue

// Ledger event kinds.
const (
	KindTicketPurchased = "ticket.purchased"
	KindTicketReturned  = "ticket.returned"
	KindTicketCancelled = "ticket.cancelled"
	KindEventCancelled  = "event.cancelled"
)

// LedgerEvent is published after every completed money movement so
// downstream consumers can log, notify or feed analytics without
// querying the registry. Amounts travel as decimal strings to keep
// exact currency values on the wire.
type LedgerEvent struct {
	MessageID  string `json:"message_id"`
	Kind       string `json:"kind"`
	PurchaseID int    `json:"purchase_id,omitempty"`
	EventID    int    `json:"event_id"`
	EventName  string `json:"event_name,omitempty"`
	CustomerID int    `json:"customer_id,omitempty"`
	Seats      int    `json:"seats,omitempty"`
	Subtotal   string `json:"subtotal,omitempty"`
	Taxes      string `json:"taxes,omitempty"`
	Fees       string `json:"fees,omitempty"`
	Amount     string `json:"amount"`
	OccurredAt string `json:"occurred_at"`
}
