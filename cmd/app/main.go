package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "gymhub/docs"
	"gymhub/internal/config"
	"gymhub/internal/db"
	"gymhub/internal/email"
	"gymhub/internal/logger"
	"gymhub/internal/scheduler"
	"gymhub/internal/server"
)

// @title GymHub API
// @version 1.0
// @description API for gym membership, class booking and front-desk operations.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting GymHub application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	emailService := email.New(email.Config{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	}, cfg.RedisAddr)
	defer emailService.Close()
	logger.Info("Email service initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)

	services := server.NewServices(database, cfg, emailService)

	jobs := scheduler.New(scheduler.Jobs(scheduler.Schedules{
		WaitlistSweep:   cfg.WaitlistSweepSchedule,
		MembershipSweep: cfg.MembershipSweepSchedule,
		Retention:       cfg.RetentionSchedule,
	}, services.Bookings, services.Memberships, services.Retention)...)
	if err := jobs.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	srv := server.New(database, cfg, services, emailService)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	jobs.Stop(shutdownCtx)
	cancel()

	logger.Info("Server stopped")
}
