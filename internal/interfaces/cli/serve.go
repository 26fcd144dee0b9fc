package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	appenrichment "github.com/promptdeck/promptdeck/internal/application/enrichment"
	"github.com/promptdeck/promptdeck/internal/config"
	"github.com/promptdeck/promptdeck/internal/infrastructure/database/postgres"
	"github.com/promptdeck/promptdeck/internal/infrastructure/database/redis"
	"github.com/promptdeck/promptdeck/internal/infrastructure/messaging/kafka"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	prommetrics "github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/prometheus"
	apphttp "github.com/promptdeck/promptdeck/internal/interfaces/http"
	"github.com/promptdeck/promptdeck/internal/interfaces/http/handlers"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the enrichment API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	log.Info("starting promptdeck",
		logging.String("version", serveVersion(cfg)),
		logging.String("environment", cfg.App.Environment),
		logging.String("transport_mode", cfg.Enrichment.TransportMode),
	)

	metrics := prommetrics.NewMetrics(prometheus.DefaultRegisterer)
	eng := buildEngine(cfg.Enrichment, metrics, log)

	conn, err := postgres.NewConnection(cfg.Database, log)
	if err != nil {
		return err
	}
	defer conn.Close()
	repo := postgres.NewEnrichmentRepository(conn.DB(), log)

	redisClient, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	guard := redis.NewDedupeGuard(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.DedupeTTL, log)

	var audit appenrichment.AuditPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, log)
		defer producer.Close()
		audit = producer
	} else {
		log.Info("kafka audit publishing disabled")
	}

	svc := appenrichment.NewService(eng.classifier, eng.risk, eng.batch, repo, guard, audit, metrics, log)

	router := apphttp.NewRouter(apphttp.RouterDeps{
		Enrichment: handlers.NewEnrichmentHandler(svc),
		Health: handlers.NewHealthHandler(serveVersion(cfg), map[string]handlers.Pinger{
			"postgres": handlers.PingerFunc(conn.Ping),
			"redis": handlers.PingerFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		}),
		Log: log,
	})
	server := apphttp.NewServer(cfg.Server, router, log)

	watchConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// watchConfig reloads the config file on change; only the log level is safe
// to adjust at runtime, everything else requires a restart.
func watchConfig(log logging.Logger) {
	if cfgFile == "" {
		return
	}
	err := config.Watch(cfgFile,
		func(next *config.AppConfig) {
			if logging.SetLevel(log, next.Log.Level) {
				log.Info("log level updated", logging.String("level", next.Log.Level))
			}
		},
		func(err error) {
			log.Warn("config reload rejected", logging.Err(err))
		},
	)
	if err != nil {
		log.Warn("config watching unavailable", logging.Err(err))
	}
}

func serveVersion(cfg *config.AppConfig) string {
	if cfg.App.Version != "" {
		return cfg.App.Version
	}
	return Version
}
