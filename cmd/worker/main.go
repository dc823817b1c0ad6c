package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/config"
	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/logger"
	"github.com/benvon/selfspeak/internal/queue"
	"github.com/benvon/selfspeak/internal/services/ai"
	"github.com/benvon/selfspeak/internal/services/analysis"
	"github.com/benvon/selfspeak/internal/workers"
)

const serviceName = "selfspeak-worker"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including engine prompts and responses")
	flag.Parse()

	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.New(serviceName, logger.Format(cfg.LogFormat), debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_model", cfg.AIModel),
		zap.String("queue", cfg.RabbitMQWarmerQueue),
	)

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

	consumer, err := queue.NewRabbitMQConsumer(queue.ConsumerConfig{
		URL:           cfg.RabbitMQURL,
		Exchange:      cfg.RabbitMQExchange,
		Queue:         cfg.RabbitMQWarmerQueue,
		Prefetch:      cfg.RabbitMQPrefetch,
		DeadLetterTTL: cfg.RabbitMQDeadLetterTTL,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	// Insight events from the worker go back to the same exchange; the
	// warmer queue only binds analysis events, so they are not re-consumed.
	publisher, err := queue.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		zapLogger.Fatal("failed_to_create_event_publisher", zap.Error(err))
	}
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

	weekly := analysis.NewWeeklyInsightService(
		database.NewAnalysisRepository(db),
		database.NewInsightRepository(db),
		engine,
		publisher,
		zapLogger,
		time.Now,
	)
	warmer := workers.NewInsightWarmer(weekly, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := consumer.Consume(ctx)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}
	zapLogger.Info("worker_started")

	done := make(chan struct{})
	go func() {
		defer close(done)
		warmer.Run(ctx, msgChan)
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	select {
	case <-sigChan:
		zapLogger.Info("worker_shutting_down")
	case <-done:
		zapLogger.Warn("message_stream_ended")
	}

	cancel()
	<-done
	zapLogger.Info("worker_stopped")
}
