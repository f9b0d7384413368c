// Package ranker turns raw occurrence counts into authority-weighted ranks
// and orders them deterministically.
package ranker

import "sort"

// RankedResult is a url with its rank for a query. Rank is always positive
// in returned results.
type RankedResult struct {
	URL  string `json:"url"`
	Rank int    `json:"rank"`
}

// Authority supplies a url's authority score; unknown urls score 0.
type Authority interface {
	Authority(url string) int
}

// Score is the single scoring rule: occurrences times authority.
func Score(auth Authority, url string, count int) int {
	return count * auth.Authority(url)
}

// FromCounts scores each url -> count pair, drops ranks <= 0 and sorts.
func FromCounts(auth Authority, counts map[string]int) []RankedResult {
	result := make([]RankedResult, 0, len(counts))
	for url, count := range counts {
		rank := Score(auth, url, count)
		if rank <= 0 {
			continue
		}
		result = append(result, RankedResult{URL: url, Rank: rank})
	}
	Sort(result)
	return result
}

// Sort orders results by rank descending, breaking ties by url ascending.
func Sort(results []RankedResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Rank != results[j].Rank {
			return results[i].Rank > results[j].Rank
		}
		return results[i].URL < results[j].URL
	})
}

// Index maps each url in results to its rank.
func Index(results []RankedResult) map[string]int {
	m := make(map[string]int, len(results))
	for _, r := range results {
		m[r.URL] = r.Rank
	}
	return m
}

// Truncate returns at most limit results. A limit <= 0 keeps everything.
func Truncate(results []RankedResult, limit int) []RankedResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
