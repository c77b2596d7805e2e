package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/adapters/cache"
	"github.com/civicpulse/reporter/backend/internal/adapters/database"
	"github.com/civicpulse/reporter/backend/internal/adapters/events"
	"github.com/civicpulse/reporter/backend/internal/adapters/memory"
	"github.com/civicpulse/reporter/backend/internal/adapters/providers/geolocation"
	"github.com/civicpulse/reporter/backend/internal/adapters/providers/security"
	"github.com/civicpulse/reporter/backend/internal/adapters/search"
	"github.com/civicpulse/reporter/backend/internal/adapters/session"
	"github.com/civicpulse/reporter/backend/internal/adapters/storage"
	"github.com/civicpulse/reporter/backend/internal/api/handlers"
	"github.com/civicpulse/reporter/backend/internal/api/middleware"
	"github.com/civicpulse/reporter/backend/internal/api/routes"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/clients/minio"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/clients/postgres"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/clients/redis"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/clients/typesense"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/observability"
	"github.com/civicpulse/reporter/backend/pkg/config"
	"github.com/civicpulse/reporter/backend/pkg/secrets"
)

type stores struct {
	users    repositories.UserRepository
	issues   repositories.IssueRepository
	comments repositories.CommentRepository
	close    func()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	if _, err := secrets.ApplyVault(context.Background(), secrets.VaultConfigFromEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load vault secrets: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open storage")
	}
	defer st.close()

	// Redis backs the cache, the session store and the event bus
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
		sessionStore  providers.SessionStore = memory.NewSessionStore()
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using process-local sessions and limits")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			sessionStore = session.NewRedisStore(redisClient)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}

	tokens, err := security.NewJWTTokenIssuer(cfg.Auth.SessionSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token issuer")
	}
	if cfg.Auth.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET is not set; sessions will not survive a restart")
	}

	sessionService := services.NewSessionService(st.users, sessionStore, tokens, security.NewBcryptHasher(0), services.SessionConfig{
		InstitutionSecret: cfg.Auth.InstitutionSecret,
		TTL:               cfg.Auth.SessionTTL,
	})
	if cfg.Auth.AdminEmail != "" {
		if err := sessionService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName); err != nil {
			log.Error().Err(err).Msg("failed to bootstrap admin account")
		}
	}

	locker := services.NewIssueLocker()
	issueService := services.NewIssueService(st.issues, st.users, locker)
	issueService.SetMetrics(metrics)
	issueService.SetSessionStore(sessionStore)
	engagementService := services.NewEngagementService(st.comments, st.issues, locker)
	engagementService.SetMetrics(metrics)
	if eventBus != nil {
		issueService.SetEventBus(eventBus)
		engagementService.SetEventBus(eventBus)
	}

	// The index only stays current through issue events, so it needs the bus
	var indexer *services.SearchIndexerService
	if cfg.Typesense.Enabled && eventBus == nil {
		log.Warn().Msg("Typesense requires REDIS_ENABLED for index updates; search falls back to listing scan")
	} else if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, search falls back to listing scan")
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := adapter.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to init Typesense schema")
			}
			issueService.SetSearch(adapter)

			indexer = services.NewSearchIndexerService(st.issues, adapter, eventBus)
			if n, err := indexer.Reindex(ctx); err != nil {
				log.Warn().Err(err).Msg("initial issue reindex failed")
			} else {
				log.Info().Int("issues", n).Msg("issue search index rebuilt")
			}
			if err := indexer.Start(); err != nil {
				log.Warn().Err(err).Msg("failed to start search indexer")
			}
		}
	}

	var geocoder providers.ReverseGeocoder
	switch cfg.Geolocation.Provider {
	case "nominatim":
		geocoder = geolocation.NewNominatimGeocoder(
			cfg.Geolocation.NominatimURL,
			cfg.Geolocation.UserAgent,
			cacheProvider,
			&http.Client{Timeout: 5 * time.Second},
		)
	default:
		geocoder = geolocation.NewMockGeocoder()
	}
	log.Info().Str("provider", cfg.Geolocation.Provider).Msg("reverse geocoder configured")

	intakeService := services.NewIntakeService(issueService, geocoder)
	moderationService := services.NewModerationService(issueService)

	var imageHandler *handlers.ImageHandler
	if cfg.ObjectStorage.Enabled {
		minioClient, err := minio.NewClient(ctx, &cfg.ObjectStorage)
		if err != nil {
			log.Warn().Err(err).Msg("MinIO unavailable, image uploads disabled")
		} else {
			imageHandler = handlers.NewImageHandler(storage.NewMinioImageStore(minioClient, cfg.ObjectStorage.PublicURL))
		}
	}

	router := routes.NewRouter(
		handlers.NewAuthHandler(sessionService),
		handlers.NewIssueHandler(issueService, intakeService, engagementService),
		handlers.NewEngagementHandler(engagementService),
		handlers.NewModerationHandler(moderationService),
		handlers.NewGeolocationHandler(geocoder),
		imageHandler,
		routes.Options{
			Sessions:       sessionService,
			Users:          st.users,
			IntakeLimiter:  middleware.NewRateLimiter(cacheProvider, "ratelimit:intake:", cfg.Intake.RateLimit, cfg.Intake.RateWindow),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Metrics:        metrics,
		},
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("storage", cfg.Storage.Backend).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if indexer != nil {
		indexer.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}

// openStores returns the issue, comment and user repositories for the
// configured backend
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Storage.Backend != "postgres" {
		log.Info().Msg("using in-memory storage")
		return &stores{
			users:    memory.NewUserStore(),
			issues:   memory.NewIssueStore(),
			comments: memory.NewCommentStore(),
			close:    func() {},
		}, nil
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := pgClient.EnsureSchema(ctx); err != nil {
		pgClient.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Info().Str("host", cfg.Database.Host).Msg("PostgreSQL client initialized")

	return &stores{
		users:    database.NewUserAdapter(pgClient),
		issues:   database.NewIssueAdapter(pgClient),
		comments: database.NewCommentAdapter(pgClient),
		close:    func() { _ = pgClient.Close() },
	}, nil
}
