// Command apiserver runs the studyatlas HTTP retrieval server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atlaslab/studyatlas/internal/application/retrieval"
	"github.com/atlaslab/studyatlas/internal/config"
	"github.com/atlaslab/studyatlas/internal/infrastructure/database/postgres"
	"github.com/atlaslab/studyatlas/internal/infrastructure/database/redis"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/atlaslab/studyatlas/internal/interfaces/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "apiserver:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config(cfg.Log))
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := postgres.NewStudyStore(pool, cfg.Query.TargetSRID, logger)

	var collector *prometheus.Collector
	var metrics *prometheus.AppMetrics
	if cfg.Metrics.Enabled {
		collector = prometheus.NewCollector("studyatlas")
		metrics = prometheus.NewAppMetrics(collector)
		prometheus.RegisterPoolGauges(collector, pool)
	}

	opts := []retrieval.Option{}
	if metrics != nil {
		opts = append(opts, retrieval.WithMetrics(metrics))
	}
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache := redis.NewResultCache(rdb, cfg.Redis.TTL, logger)
		opts = append(opts, retrieval.WithCache(cache, cfg.Redis.Prefix))
	}

	svc := retrieval.NewService(store, cfg.Query.DefaultLimit, cfg.Query.MaxLimit, logger, opts...)

	engine := httpiface.NewRouter(cfg, httpiface.RouterDeps{
		Service:   svc,
		Logger:    logger,
		Collector: collector,
		Metrics:   metrics,
	})
	server := httpiface.NewServer(cfg.Server, engine, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := server.Shutdown(context.Background()); err != nil {
		return err
	}
	logger.Info("apiserver stopped")
	return nil
}
