package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Valerolactone/analytics-todo/internal/api"
	"github.com/Valerolactone/analytics-todo/internal/config"
	"github.com/Valerolactone/analytics-todo/internal/dispatcher"
	"github.com/Valerolactone/analytics-todo/internal/kafka"
	"github.com/Valerolactone/analytics-todo/internal/postgres"
	redisstore "github.com/Valerolactone/analytics-todo/internal/redis"
	"github.com/Valerolactone/analytics-todo/internal/tracker"
	"github.com/Valerolactone/analytics-todo/pkg/retry"
	"github.com/Valerolactone/analytics-todo/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the event consumer and the statistics API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-port", "8080", "HTTP server port")
	serveCmd.Flags().String("metrics-addr", ":9095", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("kafka-topic", "projects_and_related_tasks_topic", "topic with project and task events")
	serveCmd.Flags().String("kafka-group-id", "core", "Kafka consumer group id")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().Int("rate-limit", 0, "max statistics requests per second per client (0 = disabled)")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("http_port", serveCmd.Flags(), "http-port")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("kafka_topic", serveCmd.Flags(), "kafka-topic")
	bindFlag("kafka_group_id", serveCmd.Flags(), "kafka-group-id")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("rate_limit", serveCmd.Flags(), "rate-limit")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = viper.BindEnv("postgres_dsn", "POSTGRES_DSN")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "analytics")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "analytics", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	initCtx, initCancel := context.WithTimeout(context.Background(), time.Minute)
	pool, err := postgres.ConnectWithRetry(initCtx, cfg.PostgresDSN, retry.Config{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		OnRetry: func(attempt int, err error) {
			logger.Warn("postgres not ready",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		},
	})
	initCancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	projects := postgres.NewProjectStore(pool)
	tasks := postgres.NewTaskStore(pool)

	lifecycle := tracker.NewLifecycle(tasks, projects, logger)
	membership := tracker.NewMembership(projects, logger)
	stats := tracker.NewStats(projects, tasks, logger)

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	consumer := kafka.NewConsumer(brokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger)
	defer func() { _ = consumer.Close() }()

	d := dispatcher.NewDispatcher(consumer, lifecycle, membership, logger)

	restHandler := api.NewREST(stats, pool, logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(api.RequestLogger(logger))
	if cfg.RateLimit > 0 {
		redisClient := redisstore.NewClient(cfg.RedisAddr)
		defer func() { _ = redisClient.Close() }()
		limiter := redisstore.NewRateLimiter(redisClient, cfg.RateLimit, time.Second)
		r.Use(api.RateLimit(limiter, logger))
		logger.Info("rate limiter enabled", slog.Int("limit_per_second", cfg.RateLimit))
	}
	r.Get("/healthz", restHandler.Healthz)
	r.Get("/readyz", restHandler.Readyz)
	r.Route("/statistics", restHandler.Routes)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	// Keep the entity gauges close to the store without touching the event path.
	gaugeCron := cron.New()
	_, err = gaugeCron.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(runCtx, 10*time.Second)
		defer cancel()
		counts, err := stats.GlobalCounts(ctx)
		if err != nil {
			logger.Error("gauge refresh", slog.String("error", err.Error()))
			return
		}
		telemetry.ProjectsTotal.Set(float64(counts.TotalProjects))
		telemetry.TasksTotal.Set(float64(counts.TotalTasks))
		telemetry.ParticipantsTotal.Set(float64(counts.TotalParticipants))
	})
	if err != nil {
		return fmt.Errorf("gauge cron: %w", err)
	}
	gaugeCron.Start()
	defer gaugeCron.Stop()

	dispatcherDone := make(chan error, 1)
	go func() {
		logger.Info("consumer starting",
			slog.String("topic", cfg.KafkaTopic),
			slog.String("group_id", cfg.KafkaGroupID))
		dispatcherDone <- d.Run(runCtx)
	}()

	go func() {
		logger.Info("analytics HTTP starting", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
		logger.Info("shutting down...")
	case err := <-dispatcherDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("dispatcher error", slog.String("error", err.Error()))
		}
	}
	runCancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stopped")
	return nil
}
