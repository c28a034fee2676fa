package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"laporan/docs"
	"laporan/internal/config"
	"laporan/internal/database"
	"laporan/internal/database/migration"
	"laporan/internal/export"
	"laporan/internal/fetcher"
	handlers "laporan/internal/http/handler"
	"laporan/internal/http/middleware"
	"laporan/internal/http/views"
	"laporan/internal/logging"
	tracing "laporan/internal/otel"
	"laporan/internal/repository"
	"laporan/internal/repository/memory"
	mongorepo "laporan/internal/repository/mongo"
	"laporan/internal/repository/postgres"
	"laporan/internal/service"
	"laporan/internal/storage"
	"laporan/internal/upload"
)

// Photos are read fully by the multipart parser, so the body limit bounds upload size.
const bodyLimit = 20 << 20

// recordStore is a report repository that can report its own health.
type recordStore interface {
	repository.ReportRepository
	handlers.Pinger
}

// @title Laporan Gangguan API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	log := logging.Default(loc)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log)
	if err != nil {
		fatal(log, "tracing_init_failed", err)
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		fatal(log, "store_init_failed", err)
	}
	defer closeStore()

	// S3-compatible object storage holding the report photos
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		fatal(log, "object_storage_init_failed", err)
	}
	uploader := upload.NewObjectUploader(objStore, cfg.Upload.Folder, cfg.Upload.AllowedFormats)
	reportSvc := service.NewReportService(uploader, store, log)

	images := fetcher.New(fetcher.Options{
		Timeout:     time.Duration(cfg.Export.FetchTimeoutSec) * time.Second,
		Transformer: fetcher.TransformerFor(cfg.Export.Transform),
		MaxBytes:    cfg.Export.MaxImageBytes,
		MaxPixels:   cfg.Export.MaxImagePixels,
		CacheSize:   cfg.Export.CacheSize,
		CacheTTL:    time.Duration(cfg.Export.CacheTTLSec) * time.Second,
	})
	exporter := export.New(store, images, export.Options{
		Variant: fetcher.Variant{
			Width:   cfg.Export.ThumbWidth,
			Height:  cfg.Export.ThumbHeight,
			Fit:     cfg.Export.Fit,
			Quality: cfg.Export.Quality,
		},
		Concurrency: cfg.Export.Concurrency,
		Timeout:     time.Duration(cfg.Export.TimeoutSec) * time.Second,
		Location:    loc,
		Logger:      log,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(log, "metrics_init_failed", err)
	}

	app := fiber.New(fiber.Config{
		Views:        views.New(loc),
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(loc))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, store, reportSvc, exporter, loc)

	go func() {
		<-ctx.Done()
		log.Info("shutting_down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", slog.String("addr", addr), slog.String("store_driver", cfg.StoreDriver))
	if err := app.Listen(addr); err != nil {
		fatal(log, "server_failed", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing_shutdown_failed", slog.String("error", err.Error()))
	}
}

// openStore selects the record store backend from STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (recordStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return pgStore{ReportPostgres: postgres.NewReportPostgres(db), Pinger: db}, func() { db.Close() }, nil

	case config.StoreMongo:
		client, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		repo := mongorepo.NewReportMongo(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return mongoStore{ReportMongo: repo, MongoPinger: database.MongoPinger{Client: client}}, closeFn, nil

	case config.StoreMemory:
		log.Warn("memory_store_in_use", slog.String("hint", "reports are lost on restart"))
		return memory.NewReportMemory(), func() {}, nil
	}
	return nil, nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
}

type pgStore struct {
	*postgres.ReportPostgres
	handlers.Pinger
}

type mongoStore struct {
	*mongorepo.ReportMongo
	database.MongoPinger
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
