package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ticketminer/box-office/internal/boxoffice"
	"github.com/ticketminer/box-office/internal/config"
	"github.com/ticketminer/box-office/internal/handler"
	"github.com/ticketminer/box-office/internal/middleware"
	"github.com/ticketminer/box-office/internal/queue"
	"github.com/ticketminer/box-office/internal/router"
	"github.com/ticketminer/box-office/internal/store"
	"github.com/ticketminer/box-office/internal/store/csvstore"
	"github.com/ticketminer/box-office/internal/store/mysqlstore"
)

func main() {
	cfg := config.Load()

	st := openStore(cfg)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	reg, err := st.Load(loadCtx)
	cancelLoad()
	if err != nil {
		log.Fatalf("load registry: %v", err)
	}
	office := boxoffice.New(reg)

	// Redis is optional. A nil client turns the cache and the rate
	// limiter into pass-throughs.
	rdb := config.NewRedisClient()
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Ledger consumer runs for the lifetime of the process and
	// reconnects on broker failures.
	go func() {
		if err := queue.StartLedgerConsumer(); err != nil {
			log.Printf("ledger consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, reg), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(reg), cacheMW)
	router.RegisterCustomer(e, handler.NewCustomerHandler(reg, office), cfg.JWTSecret, rateMW)
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, reg, office, st), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	// Persist the registry on the way out so a restart resumes from
	// the last state.
	if err := st.Save(ctx, reg); err != nil {
		log.Printf("save registry: %v", err)
	}
}

// openStore selects the persistence backend from configuration. CSV is
// the default; MySQL requires a reachable server at startup.
func openStore(cfg config.Config) store.Store {
	switch cfg.StoreDriver {
	case "mysql":
		st, err := mysqlstore.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("mysql store: %v", err)
		}
		return st
	case "csv", "":
		st := csvstore.New(cfg.EventsCSV, cfg.CustomersCSV, cfg.TicketsCSV)
		st.DefaultJurisdiction = cfg.DefaultJurisdiction
		return st
	default:
		log.Fatalf("unknown STORE_DRIVER %q", cfg.StoreDriver)
		return nil
	}
}
