// Package config loads application configuration from environment
// variables. A .env file is honoured when present; required keys halt
// startup with a fatal log message.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field
// corresponds to an environment variable. The store fields select and
// parameterize the persistence backend; the admin fields seed the one
// built-in administrator account.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	AdminUsername string // built-in administrator login
	AdminPassword string // built-in administrator password

	StoreDriver string // "csv" (default) or "mysql"

	// CSV backend file paths.
	EventsCSV    string
	CustomersCSV string
	TicketsCSV   string

	// MySQL backend connection, required when StoreDriver is "mysql".
	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	DefaultJurisdiction string // tax jurisdiction for new events
}

// Load reads the .env file if one exists, then builds the Config from
// the environment. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg := Config{
		Env:           getenv("APP_ENV", "dev"),
		Port:          getenv("APP_PORT", "8080"),
		JWTSecret:     must("JWT_SECRET"),
		AccessTTLMin:  envInt("ACCESS_TOKEN_TTL_MIN", 30),
		BcryptCost:    envInt("BCRYPT_COST", 10),
		AdminUsername: must("ADMIN_USERNAME"),
		AdminPassword: must("ADMIN_PASSWORD"),
		StoreDriver:   getenv("STORE_DRIVER", "csv"),

		EventsCSV:    getenv("EVENTS_CSV", "EventList.csv"),
		CustomersCSV: getenv("CUSTOMERS_CSV", "CustomerList.csv"),
		TicketsCSV:   getenv("TICKETS_CSV", "TicketList.csv"),

		DefaultJurisdiction: getenv("DEFAULT_JURISDICTION", "Texas"),
	}

	if cfg.StoreDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
