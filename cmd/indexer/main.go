// Command indexer performs a one-off index build and prints its report as
// JSON. With -seed it first copies a graph file into PostgreSQL so that
// services configured with the postgres graph source can read it.
//
// Usage:
//
//	go run ./cmd/indexer [-config configs/development.yaml] [-seed configs/graph.yaml]
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/graph/pgstore"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/postgres"
	"github.com/hashicorp/go-multierror"
)

type output struct {
	indexer.Report
	Failures []string `json:"failures,omitempty"`
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	seedPath := flag.String("seed", "", "graph file to load into postgres before building")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seedPath != "" {
		if err := seed(ctx, cfg.Postgres, *seedPath); err != nil {
			slog.Error("seeding graph failed", "error", err)
			os.Exit(1)
		}
	}

	corpus, err := indexer.Bootstrap(ctx, cfg, nil, nil)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
	out := output{Report: corpus.Report}
	if corpus.Report.Err != nil {
		out.Failures = failureMessages(corpus.Report.Err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		slog.Error("writing report failed", "error", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg config.PostgresConfig, path string) error {
	nodes, err := graph.LoadFile(path)
	if err != nil {
		return err
	}
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	store := pgstore.New(db.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return db.InTx(ctx, func(tx *sql.Tx) error {
		return store.SaveNodes(ctx, tx, nodes)
	})
}

func failureMessages(err error) []string {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		msgs = append(msgs, e.Error())
	}
	return msgs
}
