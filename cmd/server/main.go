package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/selfspeak/api/openapi"
	"github.com/benvon/selfspeak/internal/config"
	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/handlers"
	"github.com/benvon/selfspeak/internal/logger"
	"github.com/benvon/selfspeak/internal/metrics"
	"github.com/benvon/selfspeak/internal/middleware"
	"github.com/benvon/selfspeak/internal/queue"
	"github.com/benvon/selfspeak/internal/services/ai"
	"github.com/benvon/selfspeak/internal/services/analysis"
	"github.com/benvon/selfspeak/internal/services/auth"
	"github.com/benvon/selfspeak/internal/services/journal"
	"github.com/benvon/selfspeak/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including engine prompts and responses")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(telemetry.ServiceName, logger.Format(cfg.LogFormat), debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("weekly_analysis_limit", cfg.WeeklyAnalysisLimit),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
			Endpoint:    cfg.OTELEndpoint,
			SampleRatio: cfg.OTELSampleRatio,
			Insecure:    cfg.OTELInsecure,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(ctx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
			zapLogger.Fatal("failed_to_apply_migrations", zap.Error(err))
		}
		zapLogger.Info("migrations_applied")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisClient, err := connectRedis(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	if redisClient != nil {
		zapLogger.Info("connected_to_redis")
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
	} else {
		zapLogger.Info("redis_not_configured_using_memory_rate_limit_store")
	}

	publisher := connectPublisher(cfg, zapLogger)
	defer func() {
		if err := publisher.Close(); err != nil {
			zapLogger.Warn("failed_to_close_event_publisher", zap.Error(err))
		}
	}()

	if cfg.OpenAIKey == "" {
		zapLogger.Warn("openai_api_key_not_configured_analysis_will_fail")
	}
	engine := ai.NewOpenAIEngine(ai.Config{
		APIKey:       cfg.OpenAIKey,
		BaseURL:      cfg.AIBaseURL,
		Model:        cfg.AIModel,
		Temperature:  cfg.AITemperature,
		Timeout:      cfg.AITimeout,
		MaxRetries:   cfg.AIMaxRetries,
		RetryBackoff: cfg.AIRetryBackoff,
		DebugMode:    debugMode,
	}, zapLogger)

	entryRepo := database.NewJournalEntryRepository(db)
	analysisRepo := database.NewAnalysisRepository(db)
	usageRepo := database.NewUsageRepository(db)
	insightRepo := database.NewInsightRepository(db)

	quota := analysis.NewQuotaTracker(usageRepo, cfg.WeeklyAnalysisLimit, time.Now)
	daily := analysis.NewDailyOrchestrator(analysisRepo, quota, engine, publisher, zapLogger)
	weekly := analysis.NewWeeklyInsightService(analysisRepo, insightRepo, engine, publisher, zapLogger, time.Now)
	journalService := journal.NewService(entryRepo, analysisRepo, quota, daily, weekly, zapLogger, time.Now)

	verifier, err := auth.NewVerifier(auth.Config{
		Secret:    cfg.JWTSecret,
		JWKSURL:   cfg.JWKSURL,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		CacheSize: cfg.AuthCacheSize,
		CacheTTL:  cfg.AuthCacheTTL,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_create_token_verifier", zap.Error(err))
	}

	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}
	rateLimitMW, err := middleware.RateLimit(limiterStore, cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("invalid_rate_limit", zap.String("rate", cfg.RateLimit), zap.Error(err))
	}

	healthChecker := handlers.NewHealthChecker().
		AddCheck("database", db.HealthCheck).
		AddCheck("queue", publisher.HealthCheck)
	if redisClient != nil {
		healthChecker.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, outermost first.
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	if cfg.MetricsEnabled {
		r.Use(metrics.InstrumentHandler)
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, zapLogger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")
	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	// Registered before the protected subrouter so the /api/v1 prefix does not shadow them.
	handlers.NewOpenAPIHandler(openapi.Spec).RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.Auth(verifier, zapLogger))
	apiRouter.Use(rateLimitMW)
	apiRouter.Use(middleware.ContentType(zapLogger))

	handlers.NewAuthHandler().RegisterRoutes(apiRouter.PathPrefix("/auth").Subrouter())
	handlers.NewJournalHandler(journalService, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/journal").Subrouter())
	handlers.NewInsightHandler(journalService, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/insights").Subrouter())

	// CORS wraps the router so preflight requests are answered before route
	// method matching.
	handler := middleware.RequestID(middleware.CORS(cfg.FrontendOrigins(), zapLogger)(r))

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRedis returns nil when no URL is configured.
func connectRedis(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// connectPublisher dials RabbitMQ with exponential backoff. Events are best
// effort, so a broker that stays unreachable degrades to a no-op publisher.
func connectPublisher(cfg *config.Config, zapLogger *zap.Logger) queue.Publisher {
	if cfg.RabbitMQURL == "" {
		zapLogger.Info("rabbitmq_not_configured_events_disabled")
		return queue.NoopPublisher{}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 2 * time.Minute

	var publisher *queue.RabbitMQPublisher
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		p, err := queue.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return err
		}
		publisher = p
		return nil
	}, policy, func(err error, delay time.Duration) {
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
	})
	if err != nil {
		zapLogger.Error("failed_to_connect_to_rabbitmq_events_disabled",
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		return queue.NoopPublisher{}
	}

	zapLogger.Info("connected_to_rabbitmq", zap.String("exchange", cfg.RabbitMQExchange))
	return publisher
}

func versionInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":%q,"timestamp":%q}`, version, time.Now().UTC().Format(time.RFC3339))
}
