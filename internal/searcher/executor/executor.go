package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/metrics"
)

// QueryEngine is the set of boolean operators the executor dispatches to.
type QueryEngine interface {
	Search(term string) []ranker.RankedResult
	SearchAnd(w1, w2 string) []ranker.RankedResult
	SearchOr(w1, w2 string) []ranker.RankedResult
	SearchAndNot(w1, w2 string) []ranker.RankedResult
}

type SearchResult struct {
	Query     string                `json:"query"`
	Operator  parser.Operator       `json:"operator"`
	Terms     []string              `json:"terms"`
	TotalHits int                   `json:"total_hits"`
	Results   []ranker.RankedResult `json:"results"`
}

type Executor struct {
	engine  QueryEngine
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Executor. m may be nil.
func New(engine QueryEngine, m *metrics.Metrics) *Executor {
	return &Executor{
		engine:  engine,
		metrics: m,
		logger:  logger.WithComponent("query-executor"),
	}
}

// Execute runs plan and keeps the first limit results; limit <= 0 keeps
// all. TotalHits counts results before truncation.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var ranked []ranker.RankedResult
	switch plan.Operator {
	case parser.OpSingle:
		ranked = e.engine.Search(plan.Left)
	case parser.OpAnd:
		ranked = e.engine.SearchAnd(plan.Left, plan.Right)
	case parser.OpOr:
		ranked = e.engine.SearchOr(plan.Left, plan.Right)
	case parser.OpAndNot:
		ranked = e.engine.SearchAndNot(plan.Left, plan.Right)
	default:
		return nil, fmt.Errorf("executing %q: unsupported operator %d", plan.RawQuery, plan.Operator)
	}

	total := len(ranked)
	ranked = ranker.Truncate(ranked, limit)
	elapsed := time.Since(start)
	if e.metrics != nil {
		resultType := "hit"
		if total == 0 {
			resultType = "zero_result"
		}
		e.metrics.SearchQueriesTotal.WithLabelValues(plan.Operator.String(), resultType).Inc()
		e.metrics.SearchLatency.WithLabelValues(plan.Operator.String()).Observe(elapsed.Seconds())
		e.metrics.SearchResultsCount.Observe(float64(len(ranked)))
	}
	e.logger.Debug("query executed",
		"request_id", logger.RequestID(ctx),
		"query", plan.RawQuery,
		"operator", plan.Operator.String(),
		"total_hits", total,
		"returned", len(ranked),
	)
	return &SearchResult{
		Query:     plan.RawQuery,
		Operator:  plan.Operator,
		Terms:     plan.Terms(),
		TotalHits: total,
		Results:   ranked,
	}, nil
}
