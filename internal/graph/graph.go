// Package graph models the crawled link graph that supplies each url's
// authority score (its indegree) and loads it from files or PostgreSQL.
package graph

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/errors"
)

// Node is a crawled url tagged with its indegree in the link graph.
type Node struct {
	URL      string `yaml:"url" json:"url"`
	Indegree int    `yaml:"indegree" json:"indegree"`
}

// Edge is a hyperlink from one url to another.
type Edge struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// AuthorityTable maps url to authority score. It is immutable once built.
type AuthorityTable struct {
	scores map[string]int
}

// NewAuthorityTable builds a table from nodes. A url listed twice keeps its
// last score. Negative indegrees and empty urls are rejected.
func NewAuthorityTable(nodes []Node) (AuthorityTable, error) {
	scores := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if n.URL == "" {
			return AuthorityTable{}, fmt.Errorf("node %d: empty url: %w", i, apperrors.ErrInvalidInput)
		}
		if n.Indegree < 0 {
			return AuthorityTable{}, fmt.Errorf("node %q: negative indegree %d: %w", n.URL, n.Indegree, apperrors.ErrInvalidInput)
		}
		scores[n.URL] = n.Indegree
	}
	return AuthorityTable{scores: scores}, nil
}

// Authority returns the score for url, or 0 when url is not in the table.
func (t AuthorityTable) Authority(url string) int {
	return t.scores[url]
}

func (t AuthorityTable) Len() int {
	return len(t.scores)
}

// IndegreeFromEdges derives nodes from an edge list. A url's indegree is the
// number of distinct urls linking to it; urls that only appear as link
// sources get indegree 0. Nodes are returned sorted by url.
func IndegreeFromEdges(edges []Edge) []Node {
	sources := make(map[string]map[string]struct{})
	for _, e := range edges {
		if e.From == "" || e.To == "" {
			continue
		}
		if _, ok := sources[e.From]; !ok {
			sources[e.From] = make(map[string]struct{})
		}
		in, ok := sources[e.To]
		if !ok {
			in = make(map[string]struct{})
			sources[e.To] = in
		}
		in[e.From] = struct{}{}
	}
	nodes := make([]Node, 0, len(sources))
	for url, in := range sources {
		nodes = append(nodes, Node{URL: url, Indegree: len(in)})
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].URL < nodes[j].URL
	})
	return nodes
}
