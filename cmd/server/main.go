package main // Entry point package

import (
	"context" // context for the periodic expiry sweep
	"log"     // Logging library
	"time"    // sweep ticker and TTL conversion

	"github.com/joho/godotenv"    // loads .env files into the process environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/redvan/bus-reservation/internal/config"      // Internal config loader
	"github.com/redvan/bus-reservation/internal/database"    // MySQL connection helper
	"github.com/redvan/bus-reservation/internal/handler"     // HTTP handlers
	"github.com/redvan/bus-reservation/internal/middleware"  // rate limiting and response cache
	"github.com/redvan/bus-reservation/internal/payment"     // payment gateway
	"github.com/redvan/bus-reservation/internal/queue"       // booking event consumer
	"github.com/redvan/bus-reservation/internal/repository"  // data access layer
	"github.com/redvan/bus-reservation/internal/reservation" // hold/commit core
	"github.com/redvan/bus-reservation/internal/router"      // route registration
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env directly

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Data access layer.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	trips := repository.NewTripRepo(db)
	inventory := repository.NewInventoryRepo(db)
	holds := repository.NewHoldRepo(db)
	ledger := repository.NewLedgerRepo(db)
	bookings := repository.NewBookingRepo(db)

	// Reservation core.  The coordinator owns the hold lifecycle; the
	// finalizer converts paid holds into bookings.
	coordinator := reservation.NewCoordinator(inventory, ledger, holds,
		reservation.WithDefaultTTL(time.Duration(cfg.HoldTTLSec)*time.Second))
	finalizer := reservation.NewFinalizer(inventory, ledger, holds, bookings, reservation.SystemClock())

	// Payment gateway.  The mock processor confirms every charge by default;
	// a real integration slots in behind the same interface.
	gateway := payment.NewMockGateway(payment.DefaultMockGatewayConfig())

	// HTTP handlers.
	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	publicHandler := handler.NewPublicHandler(trips, coordinator)
	operatorHandler := handler.NewOperatorHandler(trips)
	customerHandler := handler.NewCustomerHandler(coordinator, finalizer, trips, holds, bookings, gateway)

	e := echo.New() // Create Echo instance

	// Redis backs the token bucket rate limiter and the public response
	// cache.  Both attach only to the public browse group.
	rdb := config.NewRedisClient()
	publicMW := []echo.MiddlewareFunc{
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}

	router.RegisterRoutes(e)                                   // health check
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)         // register/login/refresh/logout
	router.RegisterPublic(e, publicHandler, publicMW...)       // guest trip browse
	router.RegisterOperator(e, operatorHandler, cfg.JWTSecret) // trip publishing
	router.RegisterCustomer(e, customerHandler, cfg.JWTSecret) // holds and bookings

	// Booking event consumer writes confirmed bookings to the booking log.
	// The connection retries internally; startup failure is non-fatal.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("queue: booking consumer stopped: %v", err)
		}
	}()

	// Periodic expiry sweep.  Correctness does not depend on it: expired
	// holds are also swept lazily on every hold request and seat read.
	if cfg.SweepEvery > 0 {
		go func() {
			ticker := time.NewTicker(cfg.SweepEvery)
			defer ticker.Stop()
			for now := range ticker.C {
				n, err := coordinator.ExpireSweep(context.Background(), now.UTC())
				if err != nil {
					log.Printf("sweep: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("sweep: expired %d holds", n)
				}
			}
		}()
	}

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
