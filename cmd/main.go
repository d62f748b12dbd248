package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"urltracker/db"
	"urltracker/internal/config"
	"urltracker/internal/geolocation"
	"urltracker/internal/tracking"
	"urltracker/internal/web"
	"urltracker/middleware"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	sqliteDB, err := db.ConnectToSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to connect to SQLite: %v", err)
	}

	if err := db.InitializeSchema(sqliteDB); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	trackingRepo := db.NewSQLiteTrackingRepository(sqliteDB)
	geoService := geolocation.NewGeolocationService()
	trackingService := tracking.NewTrackingService(cfg.URLs, geoService, trackingRepo)

	// Done channel to coordinate graceful shutdown of the tracking job
	done := make(chan bool)
	go runTrackingService(trackingService, cfg.TrackingInterval, done)

	webHandler, err := web.NewWebHandler(trackingRepo, cfg, "templates")
	if err != nil {
		log.Fatalf("Failed to initialize web handlers: %v", err)
	}

	router := webHandler.SetupRoutes()
	handler := middleware.LoggingMiddleware(middleware.SetupCORS(cfg.AllowedOrigins)(router))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		log.Infof("Server is starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	waitForShutdown(server, done)
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogDir != "" && cfg.LogFile != "" {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			log.Fatalf("Failed to create log directory: %v", err)
		}
		file, err := os.OpenFile(filepath.Join(cfg.LogDir, cfg.LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		log.SetOutput(file)
	}
}

// runTrackingService drives the tracking job: one cycle immediately, then one
// per tick. Ticks that fire while a cycle is still running are dropped inside
// Run, never queued.
func runTrackingService(service *tracking.TrackingService, interval time.Duration, done <-chan bool) {
	log.Info("Running initial tracking cycle...")
	service.Run(context.Background())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("Tracking job scheduled to run every %v", interval)
	for {
		select {
		case <-done:
			log.Info("Tracking job received shutdown signal")
			return
		case <-ticker.C:
			service.Run(context.Background())
		}
	}
}

func waitForShutdown(server *http.Server, done chan bool) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	// Signal the tracking job to stop
	close(done)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("Shutting down the server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown error: %v", err)
	}
	log.Info("Services stopped")
}
