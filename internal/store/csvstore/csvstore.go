// Package csvstore persists the registry as three CSV files using
// the platform's historical column layout. Saving rotates the
// previous file aside and writes a fresh one; writing, reading back
// and writing again produces byte-identical files.
package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/registry"
	"github.com/ticketminer/box-office/internal/stats"
)

// timeLayout is the stored purchase-timestamp format.
const timeLayout = "01/02/2006 03:04 PM"

// Store reads and writes the three record files.
type Store struct {
	EventsPath    string
	CustomersPath string
	TicketsPath   string

	// DefaultJurisdiction fills events from legacy files that
	// predate the jurisdiction column.
	DefaultJurisdiction string
}

// New returns a CSV store over the three file paths.
func New(eventsPath, customersPath, ticketsPath string) *Store {
	return &Store{
		EventsPath:          eventsPath,
		CustomersPath:       customersPath,
		TicketsPath:         ticketsPath,
		DefaultJurisdiction: "Texas",
	}
}

// Load rebuilds a registry from the three files. Missing files are
// logged and skipped so a fresh deployment starts empty. Events load
// first, then customers, then tickets, which are attached to their
// event and customer; event and registry accumulators are rebuilt by
// accruing each ticket's stored totals.
func (s *Store) Load(ctx context.Context) (*registry.Registry, error) {
	reg := registry.New()
	err := reg.Atomic(func(tx *registry.Tx) error {
		if err := s.loadEvents(tx); err != nil {
			return err
		}
		if err := s.loadCustomers(tx); err != nil {
			return err
		}
		return s.loadTickets(tx)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Save writes the three files, rotating any existing file to a
// "prev"-prefixed sibling first. Records are ordered by id so output
// is deterministic.
func (s *Store) Save(ctx context.Context, reg *registry.Registry) error {
	return reg.Atomic(func(tx *registry.Tx) error {
		if err := s.saveEvents(tx); err != nil {
			return err
		}
		if err := s.saveCustomers(tx); err != nil {
			return err
		}
		return s.saveTickets(tx)
	})
}

// rotate moves path aside to prev<basename> in the same directory,
// replacing any older rotation.
func rotate(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	prev := filepath.Join(filepath.Dir(path), "prev"+filepath.Base(path))
	if err := os.Remove(prev); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(path, prev)
}

func openRecords(path string) ([]map[string]string, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Printf("csvstore: %s not found, skipping", path)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("csvstore: read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, true, nil
	}
	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	return records, true, nil
}

func writeRecords(path string, header []string, rows [][]string) error {
	if err := rotate(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Event file layout.

func eventHeader() []string {
	h := []string{"Event ID", "Event Type", "Name", "Date", "Time"}
	for _, c := range model.CategoryOrder {
		h = append(h, string(c)+" Price", string(c)+" Num")
	}
	h = append(h, "Reserved Extra Num", "Fireworks Planned", "Fireworks Cost",
		"Venue Name", "Num Seats Unavailable", "Venue Type", "Capacity", "Cost",
		"Total Seats sold")
	for _, c := range model.CategoryOrder {
		h = append(h, "Total "+string(c)+" Seats sold", "Total revenue for "+string(c)+" tickets")
	}
	h = append(h, "Total revenue for all tickets", "Expected profit (Sell Out)", "Actual profit",
		"Total Discounted", "Jurisdiction")
	return h
}

func (s *Store) saveEvents(tx *registry.Tx) error {
	rows := make([][]string, 0)
	for _, ev := range tx.Events() {
		st := stats.Compute(ev)
		perCat := make(map[model.SeatCategory]stats.CategoryStats, len(st.PerCategory))
		for _, cs := range st.PerCategory {
			perCat[cs.Category] = cs
		}

		row := []string{
			strconv.Itoa(ev.ID), string(ev.Kind), ev.Name, ev.Date, ev.Time,
		}
		for _, c := range model.CategoryOrder {
			if ev.Inventory.Has(c) {
				price, _ := ev.Inventory.Price(c)
				row = append(row, price.String(), strconv.Itoa(ev.Inventory.Available(c)))
			} else {
				row = append(row, "", "")
			}
		}
		fireworks := "No"
		if ev.Fireworks {
			fireworks = "Yes"
		}
		row = append(row, strconv.Itoa(ev.Inventory.ReservedSeats()), fireworks, ev.FireworksCost.String())
		venue := ev.Venue
		if venue == nil {
			venue = &model.Venue{}
		}
		row = append(row, venue.Name, strconv.Itoa(venue.SeatsUnavailable), string(venue.Kind),
			strconv.Itoa(venue.Capacity), venue.Cost.String())
		row = append(row, strconv.Itoa(st.TotalSold))
		for _, c := range model.CategoryOrder {
			cs := perCat[c]
			row = append(row, strconv.Itoa(cs.Sold), cs.Revenue.String())
		}
		row = append(row, st.TotalRevenue.String(), st.ExpectedProfit.String(), st.ActualProfit.String(),
			ev.TotalDiscounted.String(), ev.Jurisdiction)
		rows = append(rows, row)
	}
	return writeRecords(s.EventsPath, eventHeader(), rows)
}

func (s *Store) loadEvents(tx *registry.Tx) error {
	records, ok, err := openRecords(s.EventsPath)
	if err != nil || !ok {
		return err
	}
	for _, rec := range records {
		kind, okKind := model.ParseEventKind(rec["Event Type"])
		if !okKind {
			log.Printf("csvstore: skipping event %q with unknown type %q", rec["Name"], rec["Event Type"])
			continue
		}
		ev := model.NewEvent(parseInt(rec["Event ID"]), kind, rec["Name"], rec["Date"], rec["Time"])
		ev.Jurisdiction = rec["Jurisdiction"]
		if ev.Jurisdiction == "" {
			ev.Jurisdiction = s.DefaultJurisdiction
		}
		ev.Fireworks = strings.EqualFold(rec["Fireworks Planned"], "Yes")
		if ev.FireworksCost, err = parseMoney(rec["Fireworks Cost"]); err != nil {
			return fmt.Errorf("csvstore: event %d fireworks cost: %w", ev.ID, err)
		}
		if ev.TotalDiscounted, err = parseMoney(rec["Total Discounted"]); err != nil {
			return fmt.Errorf("csvstore: event %d total discounted: %w", ev.ID, err)
		}

		vkind, _ := model.ParseVenueKind(rec["Venue Type"])
		cost, err := parseMoney(rec["Cost"])
		if err != nil {
			return fmt.Errorf("csvstore: event %d venue cost: %w", ev.ID, err)
		}
		ev.Venue = &model.Venue{
			Kind:             vkind,
			Name:             rec["Venue Name"],
			Capacity:         parseInt(rec["Capacity"]),
			Cost:             cost,
			SeatsUnavailable: parseInt(rec["Num Seats Unavailable"]),
		}

		for _, c := range model.CategoryOrder {
			priceCol := rec[string(c)+" Price"]
			if priceCol == "" {
				continue
			}
			price, err := parseMoney(priceCol)
			if err != nil {
				return fmt.Errorf("csvstore: event %d %s price: %w", ev.ID, c, err)
			}
			if pct, ok := rec[string(c)+" Pct"]; ok && pct != "" {
				ev.Inventory.SetCategoryByPct(c, parseInt(pct), ev.Venue.Capacity, price)
			} else {
				ev.Inventory.SetCategory(c, parseInt(rec[string(c)+" Num"]), price)
			}
		}
		ev.Inventory.SetReservedSeats(parseInt(rec["Reserved Extra Num"]))

		if err := tx.AddEvent(ev); err != nil {
			return fmt.Errorf("csvstore: event %d: %w", ev.ID, err)
		}
	}
	return nil
}

// Customer file layout.

func customerHeader() []string {
	return []string{"ID", "First Name", "Last Name", "Money Available", "Concerts Purchased",
		"TicketMiner Membership", "Username", "Password"}
}

func (s *Store) saveCustomers(tx *registry.Tx) error {
	rows := make([][]string, 0)
	for _, cu := range tx.Customers() {
		member := "FALSE"
		if cu.Member {
			member = "TRUE"
		}
		rows = append(rows, []string{
			strconv.Itoa(cu.ID), cu.FirstName, cu.LastName, cu.Balance.String(),
			strconv.Itoa(len(cu.Tickets)), member, cu.Username, cu.Password,
		})
	}
	return writeRecords(s.CustomersPath, customerHeader(), rows)
}

func (s *Store) loadCustomers(tx *registry.Tx) error {
	records, ok, err := openRecords(s.CustomersPath)
	if err != nil || !ok {
		return err
	}
	for _, rec := range records {
		balance, err := parseMoney(rec["Money Available"])
		if err != nil {
			return fmt.Errorf("csvstore: customer %s balance: %w", rec["ID"], err)
		}
		cu := model.NewCustomer(
			parseInt(rec["ID"]), rec["First Name"], rec["Last Name"], balance,
			strings.EqualFold(rec["TicketMiner Membership"], "TRUE"),
			rec["Username"], rec["Password"],
		)
		if err := tx.AddCustomer(cu); err != nil {
			return fmt.Errorf("csvstore: customer %d: %w", cu.ID, err)
		}
	}
	return nil
}

// Ticket file layout.

func ticketHeader() []string {
	h := []string{"Purchase ID", "Event ID", "Customer ID", "Purchase Time",
		"Taxes pay", "Service Fee", "Convenience Fee", "Charity Fee", "Subtotal", "Total"}
	for i := 1; i <= model.MaxSeatsPerTicket; i++ {
		h = append(h, fmt.Sprintf("Seat Type %d", i), fmt.Sprintf("Price %d", i))
	}
	return h
}

func (s *Store) saveTickets(tx *registry.Tx) error {
	rows := make([][]string, 0)
	for _, t := range tx.Tickets() {
		row := []string{
			strconv.Itoa(t.PurchaseID), strconv.Itoa(t.Event.ID), strconv.Itoa(t.Customer.ID),
			t.PurchasedAt.Format(timeLayout),
			t.Fees.Taxes.String(), t.Fees.ServiceFee.String(), t.Fees.Convenience.String(),
			t.Fees.CharityFee.String(), t.Subtotal.String(), t.TotalCost().String(),
		}
		for i := 0; i < model.MaxSeatsPerTicket; i++ {
			if i < len(t.Seats) {
				row = append(row, string(t.Seats[i].Category), t.Seats[i].PricePaid.String())
			} else {
				row = append(row, "", "")
			}
		}
		rows = append(rows, row)
	}
	return writeRecords(s.TicketsPath, ticketHeader(), rows)
}

// loadTickets attaches each stored ticket to its event and customer
// and accrues the stored totals into the event and registry
// accumulators. Stored totals are trusted as written; nothing is
// recomputed from the seat lines.
func (s *Store) loadTickets(tx *registry.Tx) error {
	records, ok, err := openRecords(s.TicketsPath)
	if err != nil || !ok {
		return err
	}
	for _, rec := range records {
		ev, err := tx.EventByID(parseInt(rec["Event ID"]))
		if err != nil {
			log.Printf("csvstore: ticket %s references missing event %s, skipping", rec["Purchase ID"], rec["Event ID"])
			continue
		}
		cu, err := tx.CustomerByID(parseInt(rec["Customer ID"]))
		if err != nil {
			log.Printf("csvstore: ticket %s references missing customer %s, skipping", rec["Purchase ID"], rec["Customer ID"])
			continue
		}
		t := model.NewTicket(ev, cu)
		t.PurchaseID = parseInt(rec["Purchase ID"])
		if ts, err := time.Parse(timeLayout, rec["Purchase Time"]); err == nil {
			t.PurchasedAt = ts
		}
		if t.Fees.Taxes, err = parseMoney(rec["Taxes pay"]); err != nil {
			return fmt.Errorf("csvstore: ticket %d taxes: %w", t.PurchaseID, err)
		}
		if t.Fees.ServiceFee, err = parseMoney(rec["Service Fee"]); err != nil {
			return fmt.Errorf("csvstore: ticket %d service fee: %w", t.PurchaseID, err)
		}
		if t.Fees.Convenience, err = parseMoney(rec["Convenience Fee"]); err != nil {
			return fmt.Errorf("csvstore: ticket %d convenience fee: %w", t.PurchaseID, err)
		}
		if t.Fees.CharityFee, err = parseMoney(rec["Charity Fee"]); err != nil {
			return fmt.Errorf("csvstore: ticket %d charity fee: %w", t.PurchaseID, err)
		}
		subtotal, err := parseMoney(rec["Subtotal"])
		if err != nil {
			return fmt.Errorf("csvstore: ticket %d subtotal: %w", t.PurchaseID, err)
		}

		for i := 1; i <= model.MaxSeatsPerTicket; i++ {
			typ := rec[fmt.Sprintf("Seat Type %d", i)]
			if typ == "" {
				break
			}
			cat, okCat := model.ParseCategory(typ)
			if !okCat {
				return fmt.Errorf("csvstore: ticket %d: %w: %q", t.PurchaseID, model.ErrUnknownCategory, typ)
			}
			price, err := parseMoney(rec[fmt.Sprintf("Price %d", i)])
			if err != nil {
				return fmt.Errorf("csvstore: ticket %d seat %d price: %w", t.PurchaseID, i, err)
			}
			t.AddSeat(model.Seat{Category: cat, PricePaid: price})
		}
		// The stored subtotal wins over the re-summed seat lines.
		t.Subtotal = subtotal
		t.State = model.Finalized

		ev.Fees.Accrue(t.Fees)
		tx.AccrueFees(t.Fees)
		ev.Tickets[t.PurchaseID] = t
		cu.Tickets[t.PurchaseID] = t
		if err := tx.AddTicket(t); err != nil {
			return fmt.Errorf("csvstore: ticket %d: %w", t.PurchaseID, err)
		}
	}
	return nil
}
