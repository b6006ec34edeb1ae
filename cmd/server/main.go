package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/roomradar/rate-shopper/internal/api"
	"github.com/roomradar/rate-shopper/internal/config"
	"github.com/roomradar/rate-shopper/internal/database"
	"github.com/roomradar/rate-shopper/internal/services"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()

	// Initialize database
	if err := database.Initialize(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDB()

	// Platform extractors
	registry := services.NewExtractorRegistry(
		services.NewBookingExtractor(cfg.BookingAPIURL, cfg.PlatformRatePerSec),
		services.NewExpediaExtractor(cfg.ExpediaAPIURL, cfg.PlatformRatePerSec),
		services.NewDirectExtractor(cfg.PlatformRatePerSec*4),
	)

	// Pipeline services
	store := services.NewPriceStore(db)
	tracker := services.NewProgressTracker(db)
	queue := services.NewBundleQueue()
	scheduler := services.NewSearchScheduler(db, queue)
	aggregator := services.NewTrendAggregator(db, store)
	properties := services.NewPropertyService(db)

	worker := services.NewExtractionWorker(db, store, tracker, queue, registry, services.WorkerConfig{
		WorkerCount: cfg.WorkerCount,
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
	})

	scheduleService := services.NewScheduleService(db, scheduler, store, aggregator,
		cfg.ScheduleHour, cfg.ScheduleHorizonDays, cfg.PriceRetentionDays)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the extraction worker pool in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in extraction worker: %v - restarting in 30 seconds", r)
					}
				}()
				worker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Extraction worker restarting after panic recovery...")
			}
		}
	}()

	// Start the recurring schedule service in background
	if cfg.ScheduleEnabled {
		go scheduleService.Start(ctx)
	}

	// Setup router
	router := api.SetupRouter(scheduler, worker, aggregator, properties, cfg.CORSAllowedOrigins)

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the worker pool and schedule service
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
