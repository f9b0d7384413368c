// Package engine answers single-term and two-term boolean queries against a
// sealed inverted index, ranking documents by occurrence count times
// authority.
//
// An Engine never mutates its index or authority table, so one Engine may
// serve any number of concurrent callers.
package engine

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/errors"
)

type Engine struct {
	index     *index.InvertedIndex
	authority ranker.Authority
}

// New wraps a sealed index and an authority table.
func New(idx *index.InvertedIndex, authority ranker.Authority) (*Engine, error) {
	if idx == nil || !idx.Sealed() {
		return nil, fmt.Errorf("creating query engine: %w", apperrors.ErrIndexNotSealed)
	}
	if authority == nil {
		return nil, fmt.Errorf("creating query engine: authority table is nil: %w", apperrors.ErrInvalidInput)
	}
	return &Engine{
		index:     idx,
		authority: authority,
	}, nil
}

// Search ranks every document containing term. Unknown terms yield an empty
// result.
func (e *Engine) Search(term string) []ranker.RankedResult {
	return ranker.FromCounts(e.authority, e.index.Postings(term))
}

// SearchAnd ranks documents present in the results of both terms by the sum
// of their two ranks.
func (e *Engine) SearchAnd(w1, w2 string) []ranker.RankedResult {
	return combine(e.Search(w1), e.Search(w2), true)
}

// SearchOr ranks documents present in the results of either term by the sum
// of their ranks, a missing side counting as 0.
func (e *Engine) SearchOr(w1, w2 string) []ranker.RankedResult {
	return combine(e.Search(w1), e.Search(w2), false)
}

// SearchAndNot returns the results of w1 minus any document that appears in
// the ranked results of w2. A document containing w2 whose w2 rank is zero
// (no authority) is not in those results and therefore is not excluded.
func (e *Engine) SearchAndNot(w1, w2 string) []ranker.RankedResult {
	exclude := ranker.Index(e.Search(w2))
	first := e.Search(w1)
	result := make([]ranker.RankedResult, 0, len(first))
	for _, r := range first {
		if _, found := exclude[r.URL]; found {
			continue
		}
		if r.Rank > 0 {
			result = append(result, r)
		}
	}
	ranker.Sort(result)
	return result
}

// combine merges two ranked lists by summing ranks per url. With
// intersect set only urls present in both lists survive.
func combine(left, right []ranker.RankedResult, intersect bool) []ranker.RankedResult {
	rightRanks := ranker.Index(right)
	result := make([]ranker.RankedResult, 0, len(left)+len(right))
	for _, l := range left {
		r, inRight := rightRanks[l.URL]
		if intersect && !inRight {
			continue
		}
		if rank := l.Rank + r; rank > 0 {
			result = append(result, ranker.RankedResult{URL: l.URL, Rank: rank})
		}
	}
	if !intersect {
		leftRanks := ranker.Index(left)
		for _, r := range right {
			if _, inLeft := leftRanks[r.URL]; inLeft {
				continue
			}
			if r.Rank > 0 {
				result = append(result, r)
			}
		}
	}
	ranker.Sort(result)
	return result
}
