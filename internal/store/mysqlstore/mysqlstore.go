// Package mysqlstore persists the registry snapshot in MySQL. It is
// the durable alternative to the CSV files, selected with
// STORE_DRIVER=mysql. Saving replaces the whole snapshot inside one
// transaction; loading rebuilds the registry the same way the CSV
// reader does, trusting the stored ticket and event totals.
package mysqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/ticketminer/box-office/internal/model"
	"github.com/ticketminer/box-office/internal/registry"
)

// Store wraps the MySQL pool.
type Store struct {
	db *sql.DB
}

// Open connects to MySQL, verifies the connection and makes sure the
// snapshot tables exist.
func Open(user, pass, host, port, name string) (*Store, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INT PRIMARY KEY,
			kind VARCHAR(16) NOT NULL,
			name VARCHAR(255) NOT NULL UNIQUE,
			event_date VARCHAR(16) NOT NULL,
			event_time VARCHAR(16) NOT NULL,
			jurisdiction VARCHAR(64) NOT NULL,
			fireworks TINYINT(1) NOT NULL,
			fireworks_cost DECIMAL(14,4) NOT NULL,
			venue_kind VARCHAR(16) NOT NULL,
			venue_name VARCHAR(255) NOT NULL,
			venue_capacity INT NOT NULL,
			venue_cost DECIMAL(14,4) NOT NULL,
			venue_seats_unavailable INT NOT NULL,
			reserved_seats INT NOT NULL,
			total_discounted DECIMAL(14,4) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS event_categories (
			event_id INT NOT NULL,
			category VARCHAR(32) NOT NULL,
			available INT NOT NULL,
			unit_price DECIMAL(14,4) NOT NULL,
			PRIMARY KEY (event_id, category)
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id INT PRIMARY KEY,
			first_name VARCHAR(128) NOT NULL,
			last_name VARCHAR(128) NOT NULL,
			balance DECIMAL(14,4) NOT NULL,
			member TINYINT(1) NOT NULL,
			total_saved DECIMAL(14,4) NOT NULL,
			username VARCHAR(128) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			purchase_id INT PRIMARY KEY,
			event_id INT NOT NULL,
			customer_id INT NOT NULL,
			purchased_at DATETIME NOT NULL,
			taxes DECIMAL(14,4) NOT NULL,
			service_fee DECIMAL(14,4) NOT NULL,
			convenience_fee DECIMAL(14,4) NOT NULL,
			charity_fee DECIMAL(14,4) NOT NULL,
			subtotal DECIMAL(14,4) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ticket_seats (
			purchase_id INT NOT NULL,
			position INT NOT NULL,
			category VARCHAR(32) NOT NULL,
			price_paid DECIMAL(14,4) NOT NULL,
			PRIMARY KEY (purchase_id, position)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysqlstore: ensure schema: %w", err)
		}
	}
	return nil
}

// Save replaces the stored snapshot inside a single transaction.
func (s *Store) Save(ctx context.Context, reg *registry.Registry) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	for _, table := range []string{"ticket_seats", "tickets", "event_categories", "events", "customers"} {
		if _, err := dbTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	err = reg.Atomic(func(tx *registry.Tx) error {
		for _, ev := range tx.Events() {
			if err := insertEvent(ctx, dbTx, ev); err != nil {
				return err
			}
		}
		for _, cu := range tx.Customers() {
			_, err := dbTx.ExecContext(ctx,
				`INSERT INTO customers (id, first_name, last_name, balance, member, total_saved, username, password)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				cu.ID, cu.FirstName, cu.LastName, cu.Balance.String(), cu.Member,
				cu.TotalSaved.String(), cu.Username, cu.Password)
			if err != nil {
				return err
			}
		}
		for _, t := range tx.Tickets() {
			if err := insertTicket(ctx, dbTx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return dbTx.Commit()
}

func insertEvent(ctx context.Context, dbTx *sql.Tx, ev *model.Event) error {
	venue := ev.Venue
	if venue == nil {
		venue = &model.Venue{}
	}
	_, err := dbTx.ExecContext(ctx,
		`INSERT INTO events (id, kind, name, event_date, event_time, jurisdiction, fireworks, fireworks_cost,
		 venue_kind, venue_name, venue_capacity, venue_cost, venue_seats_unavailable, reserved_seats, total_discounted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Kind), ev.Name, ev.Date, ev.Time, ev.Jurisdiction, ev.Fireworks,
		ev.FireworksCost.String(), string(venue.Kind), venue.Name, venue.Capacity,
		venue.Cost.String(), venue.SeatsUnavailable, ev.Inventory.ReservedSeats(),
		ev.TotalDiscounted.String())
	if err != nil {
		return err
	}
	for _, c := range ev.Inventory.Categories() {
		price, _ := ev.Inventory.Price(c)
		_, err := dbTx.ExecContext(ctx,
			`INSERT INTO event_categories (event_id, category, available, unit_price) VALUES (?, ?, ?, ?)`,
			ev.ID, string(c), ev.Inventory.Available(c), price.String())
		if err != nil {
			return err
		}
	}
	return nil
}

func insertTicket(ctx context.Context, dbTx *sql.Tx, t *model.Ticket) error {
	_, err := dbTx.ExecContext(ctx,
		`INSERT INTO tickets (purchase_id, event_id, customer_id, purchased_at, taxes, service_fee, convenience_fee, charity_fee, subtotal)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.PurchaseID, t.Event.ID, t.Customer.ID, t.PurchasedAt.UTC(),
		t.Fees.Taxes.String(), t.Fees.ServiceFee.String(), t.Fees.Convenience.String(),
		t.Fees.CharityFee.String(), t.Subtotal.String())
	if err != nil {
		return err
	}
	for i, seat := range t.Seats {
		_, err := dbTx.ExecContext(ctx,
			`INSERT INTO ticket_seats (purchase_id, position, category, price_paid) VALUES (?, ?, ?, ?)`,
			t.PurchaseID, i, string(seat.Category), seat.PricePaid.String())
		if err != nil {
			return err
		}
	}
	return nil
}

// Load rebuilds a registry from the stored snapshot.
func (s *Store) Load(ctx context.Context) (*registry.Registry, error) {
	reg := registry.New()
	err := reg.Atomic(func(tx *registry.Tx) error {
		if err := s.loadEvents(ctx, tx); err != nil {
			return err
		}
		if err := s.loadCustomers(ctx, tx); err != nil {
			return err
		}
		return s.loadTickets(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *Store) loadEvents(ctx context.Context, tx *registry.Tx) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, event_date, event_time, jurisdiction, fireworks, fireworks_cost,
		 venue_kind, venue_name, venue_capacity, venue_cost, venue_seats_unavailable, reserved_seats, total_discounted
		 FROM events ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind, vkind, fireworksCost, venueCost, totalDiscounted string
			venue                                                  model.Venue
			ev                                                     model.Event
			reserved                                               int
		)
		if err := rows.Scan(&ev.ID, &kind, &ev.Name, &ev.Date, &ev.Time, &ev.Jurisdiction,
			&ev.Fireworks, &fireworksCost, &vkind, &venue.Name, &venue.Capacity,
			&venueCost, &venue.SeatsUnavailable, &reserved, &totalDiscounted); err != nil {
			return err
		}
		loaded := model.NewEvent(ev.ID, model.EventKind(kind), ev.Name, ev.Date, ev.Time)
		loaded.Jurisdiction = ev.Jurisdiction
		loaded.Fireworks = ev.Fireworks
		if loaded.FireworksCost, err = decimal.NewFromString(fireworksCost); err != nil {
			return err
		}
		if loaded.TotalDiscounted, err = decimal.NewFromString(totalDiscounted); err != nil {
			return err
		}
		venue.Kind = model.VenueKind(vkind)
		if venue.Cost, err = decimal.NewFromString(venueCost); err != nil {
			return err
		}
		loaded.Venue = &venue
		loaded.Inventory.SetReservedSeats(reserved)

		if err := s.loadEventCategories(ctx, loaded); err != nil {
			return err
		}
		if err := tx.AddEvent(loaded); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) loadEventCategories(ctx context.Context, ev *model.Event) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, available, unit_price FROM event_categories WHERE event_id = ?`, ev.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category, priceStr string
			available          int
		)
		if err := rows.Scan(&category, &available, &priceStr); err != nil {
			return err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return err
		}
		ev.Inventory.SetCategory(model.SeatCategory(category), available, price)
	}
	return rows.Err()
}

func (s *Store) loadCustomers(ctx context.Context, tx *registry.Tx) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, balance, member, total_saved, username, password
		 FROM customers ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                                        int
			first, last, balanceStr, savedStr, u, pwd string
			member                                    bool
		)
		if err := rows.Scan(&id, &first, &last, &balanceStr, &member, &savedStr, &u, &pwd); err != nil {
			return err
		}
		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return err
		}
		cu := model.NewCustomer(id, first, last, balance, member, u, pwd)
		if cu.TotalSaved, err = decimal.NewFromString(savedStr); err != nil {
			return err
		}
		if err := tx.AddCustomer(cu); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) loadTickets(ctx context.Context, tx *registry.Tx) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT purchase_id, event_id, customer_id, purchased_at, taxes, service_fee, convenience_fee, charity_fee, subtotal
		 FROM tickets ORDER BY purchase_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var loaded []*model.Ticket
	for rows.Next() {
		var (
			purchaseID, eventID, customerID          int
			purchasedAt                              time.Time
			taxes, service, convenience, charity, st string
		)
		if err := rows.Scan(&purchaseID, &eventID, &customerID, &purchasedAt,
			&taxes, &service, &convenience, &charity, &st); err != nil {
			return err
		}
		ev, err := tx.EventByID(eventID)
		if err != nil {
			log.Printf("mysqlstore: ticket %d references missing event %d, skipping", purchaseID, eventID)
			continue
		}
		cu, err := tx.CustomerByID(customerID)
		if err != nil {
			log.Printf("mysqlstore: ticket %d references missing customer %d, skipping", purchaseID, customerID)
			continue
		}
		t := model.NewTicket(ev, cu)
		t.PurchaseID = purchaseID
		t.PurchasedAt = purchasedAt
		if t.Fees.Taxes, err = decimal.NewFromString(taxes); err != nil {
			return err
		}
		if t.Fees.ServiceFee, err = decimal.NewFromString(service); err != nil {
			return err
		}
		if t.Fees.Convenience, err = decimal.NewFromString(convenience); err != nil {
			return err
		}
		if t.Fees.CharityFee, err = decimal.NewFromString(charity); err != nil {
			return err
		}
		if t.Subtotal, err = decimal.NewFromString(st); err != nil {
			return err
		}
		t.State = model.Finalized
		loaded = append(loaded, t)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, t := range loaded {
		if err := s.loadTicketSeats(ctx, t); err != nil {
			return err
		}
		t.Event.Fees.Accrue(t.Fees)
		tx.AccrueFees(t.Fees)
		t.Event.Tickets[t.PurchaseID] = t
		t.Customer.Tickets[t.PurchaseID] = t
		if err := tx.AddTicket(t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadTicketSeats(ctx context.Context, t *model.Ticket) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, price_paid FROM ticket_seats WHERE purchase_id = ? ORDER BY position`, t.PurchaseID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var category, priceStr string
		if err := rows.Scan(&category, &priceStr); err != nil {
			return err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return err
		}
		// Appended directly so the stored subtotal is left as read.
		t.Seats = append(t.Seats, model.Seat{Category: model.SeatCategory(category), PricePaid: price})
	}
	return rows.Err()
}
