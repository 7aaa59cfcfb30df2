package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/event-attendance/internal/clock"      // Clock abstraction shared by the services
	"github.com/iliyamo/event-attendance/internal/config"     // Internal config loader
	"github.com/iliyamo/event-attendance/internal/database"   // MySQL connection helper
	"github.com/iliyamo/event-attendance/internal/handler"    // HTTP handlers
	"github.com/iliyamo/event-attendance/internal/queue"      // RabbitMQ publisher and consumers
	"github.com/iliyamo/event-attendance/internal/repository" // Data access layer
	"github.com/iliyamo/event-attendance/internal/router"     // Internal router setup
	"github.com/iliyamo/event-attendance/internal/service"    // Admission core services
)

func main() {
	// Load .env if present; real deployments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis backs response caching and rate limiting on the public
	// routes.  A nil client disables both without failing startup.
	rdb := config.NewRedisClient()

	// Repositories.
	store := repository.NewStore(db)
	events := repository.NewEventRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	// The publisher delivers both offer notices and vacancy triggers
	// through RabbitMQ.
	publisher := queue.NewPublisher()
	clk := clock.NewSystem()

	// Admission core services.
	promotions := service.NewPromotionService(store, clk, publisher)
	admissions := service.NewAdmissionService(store, clk, publisher)
	waitlists := service.NewWaitlistService(store, clk)
	confirmations := service.NewConfirmationService(store, clk, promotions)

	// Handlers.
	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	organizerHandler := handler.NewOrganizerHandler(events, clk)
	attendanceHandler := handler.NewAttendanceHandler(admissions, waitlists, confirmations)
	publicHandler := handler.NewPublicHandler(events, clk)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler, rdb)
	router.RegisterOrganizer(e, organizerHandler, cfg.JWTSecret)
	router.RegisterAttendee(e, attendanceHandler, cfg.JWTSecret)

	// Consumers run for the lifetime of the process and reconnect on
	// broker failures.  The vacancy consumer drives waitlist promotion
	// whenever a confirmed slot frees up.
	go func() {
		if err := queue.StartOfferConsumer(); err != nil {
			log.Printf("offer consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := queue.StartVacancyConsumer(promotions); err != nil {
			log.Printf("vacancy consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
