package main

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"archiveapi/internal/cache"
	"archiveapi/internal/config"
	"archiveapi/internal/database"
	"archiveapi/internal/database/migration"
	handlers "archiveapi/internal/http/handler"
	"archiveapi/internal/http/middleware"
	"archiveapi/internal/otel"
	"archiveapi/internal/repository/postgres"
	"archiveapi/internal/search"
	"archiveapi/internal/service"
	"archiveapi/internal/storage"
)

// ensureSchemaWithRetry keeps trying to create the search index mapping.
// Elasticsearch is commonly the last dependency to come up in a fresh stack.
func ensureSchemaWithRetry(ctx context.Context, idx search.Index, log zerolog.Logger) error {
	const attempts = 5
	const delay = 5 * time.Second

	var err error
	for i := 1; i <= attempts; i++ {
		if err = idx.EnsureSchema(ctx); err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", i).Int("max_attempts", attempts).
			Msg("search index schema not ready, retrying")
		if i < attempts {
			time.Sleep(delay)
		}
	}
	return err
}

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer shutdownTracing(ctx)

	// Metadata store first: nothing works without it.
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Object storage gateway.
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	// Search index, with retry: index writes degrade into the ledger at
	// runtime, but the mapping must exist before serving traffic.
	idx, err := search.NewElasticsearch(cfg.Elasticsearch)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create search client")
	}
	if err := ensureSchemaWithRetry(ctx, idx, log); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure search index schema")
	}

	// Cache last; an unreachable Redis only costs latency, so the service
	// starts without it.
	var resultCache cache.Cache
	if c, err := cache.NewRedis(cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, caching disabled")
	} else {
		resultCache = c
	}

	archiveRepo := postgres.NewArchivePostgres(db)
	ledger := postgres.NewFailedIndexPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	archiveSvc := service.NewArchiveService(
		objStore, archiveRepo, ledger, idx, resultCache,
		cfg.MinIO.PresignExpiry, nil, log,
	)
	authSvc := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, postgres.IsUniqueViolation)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register prometheus middleware")
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, archiveSvc, authSvc, cfg.Auth.JWTSecret)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("starting server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
