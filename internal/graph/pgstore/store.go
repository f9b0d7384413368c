// Package pgstore loads the link graph from the graph_nodes and graph_edges
// PostgreSQL tables.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/graph"
	apperrors "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/errors"
)

const (
	createSchema = `
CREATE TABLE IF NOT EXISTS graph_nodes (
	url      TEXT PRIMARY KEY,
	indegree INTEGER NOT NULL CHECK (indegree >= 0)
);
CREATE TABLE IF NOT EXISTS graph_edges (
	src_url TEXT NOT NULL,
	dst_url TEXT NOT NULL,
	PRIMARY KEY (src_url, dst_url)
)`

	selectNodes = `SELECT url, indegree FROM graph_nodes ORDER BY url`

	// Every url that appears on either side of an edge is a node; sources
	// without inbound links come out with indegree 0.
	selectIndegrees = `
SELECT u.url, COUNT(DISTINCT e.src_url)
FROM (SELECT src_url AS url FROM graph_edges UNION SELECT dst_url FROM graph_edges) u
LEFT JOIN graph_edges e ON e.dst_url = u.url
GROUP BY u.url
ORDER BY u.url`

	upsertNode = `
INSERT INTO graph_nodes (url, indegree) VALUES ($1, $2)
ON CONFLICT (url) DO UPDATE SET indegree = EXCLUDED.indegree`
)

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "graph-store"),
	}
}

// EnsureSchema creates the graph tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSchema); err != nil {
		return fmt.Errorf("creating graph schema: %w", err)
	}
	return nil
}

// LoadNodes reads precomputed indegrees from graph_nodes.
func (s *Store) LoadNodes(ctx context.Context) ([]graph.Node, error) {
	return s.query(ctx, selectNodes)
}

// LoadFromEdges computes indegrees from graph_edges.
func (s *Store) LoadFromEdges(ctx context.Context) ([]graph.Node, error) {
	return s.query(ctx, selectIndegrees)
}

// SaveNodes upserts nodes into graph_nodes inside tx.
func (s *Store) SaveNodes(ctx context.Context, tx *sql.Tx, nodes []graph.Node) error {
	stmt, err := tx.PrepareContext(ctx, upsertNode)
	if err != nil {
		return fmt.Errorf("preparing node upsert: %w", err)
	}
	defer stmt.Close()
	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx, n.URL, n.Indegree); err != nil {
			return fmt.Errorf("upserting node %q: %w", n.URL, err)
		}
	}
	s.logger.Info("graph nodes saved", "count", len(nodes))
	return nil
}

func (s *Store) query(ctx context.Context, q string) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying graph: %v: %w", err, apperrors.ErrGraphLoad)
	}
	defer rows.Close()
	nodes := make([]graph.Node, 0)
	for rows.Next() {
		var n graph.Node
		if err := rows.Scan(&n.URL, &n.Indegree); err != nil {
			return nil, fmt.Errorf("scanning graph node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating graph nodes: %w", err)
	}
	s.logger.Info("graph loaded from postgres", "nodes", len(nodes))
	return nodes, nil
}
