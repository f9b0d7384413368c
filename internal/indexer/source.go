package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/fetcher"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/graph/pgstore"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/postgres"
)

// LoadGraph reads the crawled urls and their indegrees from the configured
// source.
func LoadGraph(ctx context.Context, cfg *config.Config) ([]graph.Node, error) {
	switch cfg.Graph.Source {
	case config.GraphSourceFile:
		return graph.LoadFile(cfg.Graph.Path)
	case config.GraphSourcePostgres:
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting graph store: %w", err)
		}
		defer db.Close()
		store := pgstore.New(db.DB)
		if cfg.Graph.FromEdges {
			return store.LoadFromEdges(ctx)
		}
		return store.LoadNodes(ctx)
	default:
		return nil, fmt.Errorf("unknown graph source %q", cfg.Graph.Source)
	}
}

// Corpus is everything the query engine needs, produced once at startup.
type Corpus struct {
	Index     *index.InvertedIndex
	Authority graph.AuthorityTable
	Report    Report
}

// Generation fingerprints the searchable content: every posting together with
// the authority of its url. Corpora that would rank every query identically
// share a generation, so replicas built from the same crawl share cache
// entries while a rebuilt index gets fresh ones.
func (c *Corpus) Generation() string {
	h := sha256.New()
	for _, entry := range c.Index.Snapshot() {
		fmt.Fprintf(h, "%s\n", entry.Term)
		for _, p := range entry.Postings {
			fmt.Fprintf(h, "\t%s %d %d\n", p.URL, p.Count, c.Authority.Authority(p.URL))
		}
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// Bootstrap loads the graph, fetches and indexes every page and returns the
// sealed index with its authority table. m may be nil.
func Bootstrap(ctx context.Context, cfg *config.Config, client *http.Client, m *metrics.Metrics) (*Corpus, error) {
	nodes, err := LoadGraph(ctx, cfg)
	if err != nil {
		return nil, err
	}
	table, err := graph.NewAuthorityTable(nodes)
	if err != nil {
		return nil, fmt.Errorf("building authority table: %w", err)
	}
	builder := NewBuilder(fetcher.New(cfg.Fetcher, client), cfg.Fetcher.Workers, m)
	idx, report, err := builder.Build(ctx, nodes)
	if err != nil {
		return nil, err
	}
	return &Corpus{Index: idx, Authority: table, Report: report}, nil
}
