// Package indexer builds a sealed inverted index from the pages of a crawled
// link graph.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/metrics"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// PageFetcher returns the text of the page at url.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Report summarises one build.
type Report struct {
	Requested int           `json:"requested"`
	Indexed   int           `json:"indexed"`
	Failed    int           `json:"failed"`
	Tokens    int64         `json:"tokens"`
	Terms     int           `json:"terms"`
	Documents int           `json:"documents"`
	Duration  time.Duration `json:"duration"`
	// Err collects the per-url fetch failures. They do not fail the build.
	Err error `json:"-"`
}

type Builder struct {
	fetcher PageFetcher
	workers int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewBuilder creates a Builder fetching with the given number of workers.
// m may be nil.
func NewBuilder(fetcher PageFetcher, workers int, m *metrics.Metrics) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		fetcher: fetcher,
		workers: workers,
		metrics: m,
		logger:  slog.Default().With("component", "index-builder"),
	}
}

type page struct {
	url   string
	terms []string
	err   error
}

// Build fetches every node's page and returns the sealed index. Pages that
// cannot be fetched are skipped and reported; only cancellation of ctx
// fails the build.
func (b *Builder) Build(ctx context.Context, nodes []graph.Node) (*index.InvertedIndex, Report, error) {
	start := time.Now()
	urls := uniqueURLs(nodes)
	report := Report{Requested: len(urls)}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan string)
	pages := make(chan page, b.workers)

	g.Go(func() error {
		defer close(jobs)
		for _, url := range urls {
			select {
			case jobs <- url:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < b.workers; i++ {
		g.Go(func() error {
			for url := range jobs {
				text, err := b.fetcher.Fetch(gctx, url)
				if err != nil && gctx.Err() != nil {
					return gctx.Err()
				}
				p := page{url: url, err: err}
				if err == nil {
					p.terms = tokenizer.Tokenize(text)
				}
				select {
				case pages <- p:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(pages)
	}()

	idx := index.NewInvertedIndex()
	var failures *multierror.Error
	for p := range pages {
		if p.err != nil {
			report.Failed++
			failures = multierror.Append(failures, fmt.Errorf("%s: %w", p.url, p.err))
			b.observeFetch("failed")
			b.logger.Warn("page skipped", "url", p.url, "error", p.err)
			continue
		}
		report.Indexed++
		report.Tokens += int64(Ingest(idx, p.url, p.terms))
		b.observeFetch("ok")
		b.logger.Debug("page indexed", "url", p.url, "terms", len(p.terms))
	}
	if err := <-waitErr; err != nil {
		return nil, report, fmt.Errorf("building index: %w", err)
	}

	idx.Seal()
	report.Terms = idx.Terms()
	report.Documents = idx.DocCount()
	report.Duration = time.Since(start)
	report.Err = failures.ErrorOrNil()
	if b.metrics != nil {
		b.metrics.PostingsRecorded.Add(float64(report.Tokens))
		b.metrics.IndexTerms.Set(float64(report.Terms))
		b.metrics.IndexDocuments.Set(float64(report.Documents))
	}
	b.logger.Info("index built",
		"requested", report.Requested,
		"indexed", report.Indexed,
		"failed", report.Failed,
		"terms", report.Terms,
		"tokens", report.Tokens,
		"duration", report.Duration,
	)
	return idx, report, nil
}

// Ingest records every term of one page and returns how many were recorded.
// idx must not be shared with another writer.
func Ingest(idx *index.InvertedIndex, url string, terms []string) int {
	for _, term := range terms {
		idx.Record(term, url)
	}
	return len(terms)
}

func (b *Builder) observeFetch(status string) {
	if b.metrics != nil {
		b.metrics.PagesFetchedTotal.WithLabelValues(status).Inc()
	}
}

func uniqueURLs(nodes []graph.Node) []string {
	seen := make(map[string]struct{}, len(nodes))
	urls := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.URL]; dup || n.URL == "" {
			continue
		}
		seen[n.URL] = struct{}{}
		urls = append(urls, n.URL)
	}
	return urls
}
