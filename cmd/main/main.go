package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/config"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/healthcheck"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/observer"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/segmentation"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/storage"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/trigger"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	analysisDateStr := flag.String("analysis-date", utils.DateOnly(utils.Now()).Format(utils.DateLayout),
		"Analysis date (YYYY-MM-DD) the recency window is computed against")
	listen := flag.Bool("listen", false,
		"Stay resident and run on NATS trigger messages instead of running once and exiting")
	configPath := flag.String("config", "", "Optional config file directory")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("Invalid configuration", zap.Error(err))
	}

	observer.InitMetrics(cfg.Metrics.Enabled)

	analysisDate, err := utils.ParseDate(*analysisDateStr)
	if err != nil {
		logger.Log.Fatal("Invalid analysis date", zap.String("analysis_date", *analysisDateStr), zap.Error(err))
	}

	logger.Log.Info("Starting RFM Segmentation Service",
		zap.String("environment", cfg.Environment),
		zap.String("analysis_date", *analysisDateStr),
		zap.Bool("listen", *listen),
	)

	// Initialize repositories
	postgresRepo, err := storage.NewPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	sourceRepo := storage.NewSourceRepoAdapter(postgresRepo)
	segmentRepo := storage.NewSegmentRepoAdapter(postgresRepo)
	runRepo := storage.NewRunRepoAdapter(postgresRepo)

	service := segmentation.NewService(sourceRepo, segmentRepo, runRepo, cfg.Pipeline.InsertBatchSize)

	if !*listen {
		runOnce(service, postgresRepo, analysisDate)
		return
	}

	if cfg.NATS.URL == "" {
		logger.Log.Fatal("nats.url must be configured for listen mode")
	}

	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	// Create health check server
	healthServer := healthcheck.NewServer(strconv.Itoa(cfg.Server.Port), logger.Log, postgresRepo.Ping)
	if cfg.Metrics.Enabled {
		healthServer.RegisterMetricsHandler(promhttp.Handler())
		logger.Log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Server.Port))
	}
	healthServer.Start()

	listener, err := trigger.NewListener(trigger.Config{
		URL:              cfg.NATS.URL,
		RunSubject:       cfg.NATS.RunSubject,
		CompletedSubject: cfg.NATS.CompletedSubject,
		QueueGroup:       cfg.NATS.QueueGroup,
	}, service)
	if err != nil {
		logger.Log.Fatal("Failed to initialize NATS listener", zap.Error(err))
	}
	if err := listener.Start(mainCtx); err != nil {
		logger.Log.Fatal("Failed to start NATS listener", zap.Error(err))
	}

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))
	mainCancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := listener.Drain(); err != nil {
		logger.Log.Error("Failed to drain NATS listener", zap.Error(err))
	}
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Log.Error("Failed to stop health check server", zap.Error(err))
	}
	if err := postgresRepo.Close(shutdownCtx); err != nil {
		logger.Log.Error("Failed to close database connection", zap.Error(err))
	}
	logger.Log.Info("Shutdown complete")
}

// runOnce executes a single pipeline run and exits non-zero on failure.
// The audit row is written either way, so operators can re-invoke with
// the same date after fixing the cause.
func runOnce(service *segmentation.Service, repo *storage.PostgresRepo, analysisDate time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	run, err := service.Run(ctx, analysisDate)
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if closeErr := repo.Close(closeCtx); closeErr != nil {
		logger.Log.Error("Failed to close database connection", zap.Error(closeErr))
	}

	if err != nil {
		logger.Sync()
		os.Exit(1)
	}
	logger.Log.Info("Run complete",
		zap.String("run_id", run.RunID),
		zap.Int("segments_written", run.SegmentsWritten),
	)
}
