package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/czaroPieczaro/sloik/internal/audit"
	"github.com/czaroPieczaro/sloik/internal/config"
	"github.com/czaroPieczaro/sloik/internal/db"
	"github.com/czaroPieczaro/sloik/internal/domain"
	"github.com/czaroPieczaro/sloik/internal/events"
	"github.com/czaroPieczaro/sloik/internal/handlers"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Optional .env for local development
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create database pool")
	}
	defer pool.Close()
	log.Info().Msg("database connection pool initialized")

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database schema up to date")

	jarRepo := db.NewJarRepository(pool.Pool)
	opRepo := db.NewOperationRepository(pool.Pool)
	txManager := db.NewTransactionManager(pool.Pool, log)

	var publisher domain.EventPublisher
	if cfg.RabbitMQ.Enabled() {
		p, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		defer p.Close()
		publisher = p
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("event publisher initialized")
	}

	ledgerService := domain.NewLedgerService(jarRepo, opRepo, txManager, publisher, log)
	jarService := domain.NewJarService(jarRepo)
	historyService := domain.NewHistoryService(jarRepo, opRepo)

	auditor := audit.NewAuditor(jarRepo, opRepo, log)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.AuditSchedule, func() {
		if _, err := auditor.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("ledger audit failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.AuditSchedule).Msg("failed to schedule ledger audit")
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler, err := handlers.NewHandler(ledgerService, jarService, historyService, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create handler")
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handlers.NewRouter(handler, log),
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("HTTP server stopped")
}
