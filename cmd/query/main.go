// Command query builds the index from the configured link graph, answers a
// single boolean query and prints one "url<TAB>rank" line per result.
//
// Usage:
//
//	go run ./cmd/query -q "fish AND NOT bike" [-limit 20] [-config configs/development.yaml]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/engine"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	query := flag.String("q", "", `query: "w", "w1 AND w2", "w1 OR w2" or "w1 AND NOT w2"`)
	limit := flag.Int("limit", 0, "maximum results to print (0 prints all)")
	flag.Parse()

	plan, err := parser.Parse(*query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Logs go to stderr so that stdout carries only results.
	slog.SetDefault(logger.New(os.Stderr, cfg.Logging.Level, "text"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	corpus, err := indexer.Bootstrap(ctx, cfg, nil, nil)
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	eng, err := engine.New(corpus.Index, corpus.Authority)
	if err != nil {
		slog.Error("failed to create query engine", "error", err)
		os.Exit(1)
	}
	result, err := executor.New(eng, nil).Execute(ctx, plan, *limit)
	if err != nil {
		slog.Error("query failed", "error", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for _, r := range result.Results {
		fmt.Fprintf(out, "%s\t%d\n", r.URL, r.Rank)
	}
}
