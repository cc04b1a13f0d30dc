package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docflow/internal/analysis"
	"docflow/internal/config"
	"docflow/internal/database"
	"docflow/internal/database/migration"
	handlers "docflow/internal/http/handler"
	"docflow/internal/http/middleware"
	"docflow/internal/library"
	"docflow/internal/notify"
	"docflow/internal/otel"
	"docflow/internal/pipeline"
	"docflow/internal/storage"
	"docflow/internal/store"
	"docflow/internal/store/postgres"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}

	// The document store is PostgreSQL when DB_HOST is set, in-memory otherwise.
	var (
		db   *sql.DB
		docs store.DocumentStore
	)
	if cfg.Database.Host != "" {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		docs = postgres.New(db)
	} else {
		docs = store.NewMemory()
	}

	// S3-compatible object storage for uploaded payloads (MinIO-supported)
	objects, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Remote analyzer when configured, deterministic heuristic otherwise.
	var engine analysis.Engine = analysis.NewHeuristic()
	if cfg.Analyzer.URL != "" {
		engine = analysis.NewRemote(cfg.Analyzer.URL)
	}

	notifier := notify.NewSMTP(cfg.SMTP, objects)

	p := pipeline.New(docs, objects, engine, notifier, time.Duration(cfg.Analyzer.TimeoutSec)*time.Second)
	lib := library.New(docs)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, p, lib, docs, objects)

	// Serve until interrupted, then drain in-flight analyses before exit.
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	case <-sigCh:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
		p.Wait()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}
}
