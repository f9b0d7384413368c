// Command searcher builds the authority-ranked index from the configured
// link graph and serves boolean queries over HTTP.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/engine"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "graph_source", cfg.Graph.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdownMetrics(context.Background())
	}

	corpus, err := indexer.Bootstrap(ctx, cfg, nil, m)
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	if corpus.Report.Err != nil {
		slog.Warn("some pages were not indexed", "failed", corpus.Report.Failed, "error", corpus.Report.Err)
	}
	eng, err := engine.New(corpus.Index, corpus.Authority)
	if err != nil {
		slog.Error("failed to create query engine", "error", err)
		os.Exit(1)
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		generation := corpus.Generation()
		queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, generation, m)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL, "generation", generation)
	}

	// A nil *Collector must not end up inside the Tracker interface.
	var tracker handler.Tracker
	if kafka.Enabled(cfg.Kafka) {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics.BufferSize)
		collector.Start(ctx)
		defer collector.Close()
		collector.TrackIndex(analytics.IndexEvent{
			Type:       analytics.EventIndexBuilt,
			Requested:  corpus.Report.Requested,
			Indexed:    corpus.Report.Indexed,
			Failed:     corpus.Report.Failed,
			Terms:      corpus.Report.Terms,
			Documents:  corpus.Report.Documents,
			DurationMs: corpus.Report.Duration.Milliseconds(),
			Timestamp:  time.Now().UTC(),
		})
		tracker = collector
		slog.Info("search analytics enabled", "topic", cfg.Kafka.Topics.SearchEvents)
	} else {
		slog.Info("no kafka brokers configured, search analytics disabled")
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if !corpus.Index.Sealed() {
			return health.ComponentHealth{Status: health.StatusDown, Message: "index not sealed"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d terms over %d documents", corpus.Index.Terms(), corpus.Index.DocCount()),
		}
	})
	var redisPing func(context.Context) error
	if redisClient != nil {
		redisPing = redisClient.Ping
	}
	checker.Register("redis", health.PingCheck(redisPing, true))

	h := handler.New(executor.New(eng, m), corpus.Index, queryCache, tracker, cfg.Search.DefaultLimit, cfg.Search.MaxResults)

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
