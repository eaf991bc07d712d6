package model

import "github.com/shopspring/decimal"

// Customer owns a money balance, a membership flag and the tickets it
// purchased. Usernames are unique case-insensitively; the registry
// keeps the secondary username index in sync.
//
// Fields:
//
//	ID         – primary identifier.
//	FirstName  – given name.
//	LastName   – family name.
//	Balance    – money available for purchases.
//	Member     – TicketMiner membership flag; grants the 10% discount.
//	TotalSaved – cumulative discount ever granted to this customer.
//	Username   – unique login name, compared case-insensitively.
//	Password   – bcrypt hash, or a legacy plaintext record.
//	Tickets    – owned tickets by purchase id.
type Customer struct {
	ID         int
	FirstName  string
	LastName   string
	Balance    decimal.Decimal
	Member     bool
	TotalSaved decimal.Decimal
	Username   string
	Password   string
	Tickets    map[int]*Ticket
}

// NewCustomer returns a customer with an empty ticket set.
func NewCustomer(id int, first, last string, balance decimal.Decimal, member bool, username, password string) *Customer {
	return &Customer{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Balance:   balance,
		Member:    member,
		Username:  username,
		Password:  password,
		Tickets:   make(map[int]*Ticket),
	}
}
