// Package index holds the term-first inverted index built during ingestion.
//
// An InvertedIndex has a single writer while it is being built and any number
// of readers once it has been sealed. It does no locking of its own: the
// builder owns it until Seal is called and hands it to the query engine
// afterwards.
package index

import "sort"

type InvertedIndex struct {
	postings map[string]map[string]int
	docs     map[string]struct{}
	records  int64
	sealed   bool
}

func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string]map[string]int),
		docs:     make(map[string]struct{}),
	}
}

// Record adds one occurrence of term in the document at url.
// It panics if the index has already been sealed.
func (x *InvertedIndex) Record(term string, url string) {
	if x.sealed {
		panic("index: Record called on sealed index")
	}
	docs, exists := x.postings[term]
	if !exists {
		docs = make(map[string]int)
		x.postings[term] = docs
	}
	docs[url]++
	x.docs[url] = struct{}{}
	x.records++
}

// Postings returns a copy of the url -> count map for term. Unknown terms
// yield an empty map.
func (x *InvertedIndex) Postings(term string) map[string]int {
	docs := x.postings[term]
	result := make(map[string]int, len(docs))
	for url, count := range docs {
		result[url] = count
	}
	return result
}

// Seal ends construction. Further calls to Record panic.
func (x *InvertedIndex) Seal() {
	x.sealed = true
}

func (x *InvertedIndex) Sealed() bool {
	return x.sealed
}

// Terms returns the number of distinct terms.
func (x *InvertedIndex) Terms() int {
	return len(x.postings)
}

// DocCount returns the number of distinct urls that contributed at least one
// posting.
func (x *InvertedIndex) DocCount() int {
	return len(x.docs)
}

// Records returns the total number of Record calls, i.e. the sum of all
// posting counts.
func (x *InvertedIndex) Records() int64 {
	return x.records
}

// Snapshot returns every term with its postings, terms and urls both sorted
// ascending.
func (x *InvertedIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(x.postings))
	for term, docs := range x.postings {
		postings := make(PostingList, 0, len(docs))
		for url, count := range docs {
			postings = append(postings, Posting{URL: url, Count: count})
		}
		sort.Slice(postings, func(i, j int) bool {
			return postings[i].URL < postings[j].URL
		})
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}
