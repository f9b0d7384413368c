//go:build integration

// Run with:
//
//	go test -v -tags=integration ./internal/graph/pgstore/...
package pgstore

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/postgres"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(context.Background(), testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPostgresConfig() config.PostgresConfig {
	port, err := strconv.Atoi(envOrDefault("TEST_POSTGRES_PORT", "5432"))
	if err != nil {
		port = 5432
	}
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            port,
		Database:        envOrDefault("TEST_POSTGRES_DB", "authority_search_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "search"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func resetSchema(t *testing.T, db *postgres.Client) {
	t.Helper()
	ctx := context.Background()
	if _, err := db.DB.ExecContext(ctx, `DROP TABLE IF EXISTS graph_nodes, graph_edges`); err != nil {
		t.Fatalf("dropping tables: %v", err)
	}
	if err := New(db.DB).EnsureSchema(ctx); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
}

func TestSaveAndLoadNodes(t *testing.T) {
	db := skipIfNoPostgres(t)
	resetSchema(t, db)
	store := New(db.DB)
	ctx := context.Background()

	nodes := []graph.Node{{URL: "http://b", Indegree: 2}, {URL: "http://a", Indegree: 3}}
	err := db.InTx(ctx, func(tx *sql.Tx) error {
		return store.SaveNodes(ctx, tx, nodes)
	})
	if err != nil {
		t.Fatalf("saving nodes: %v", err)
	}
	got, err := store.LoadNodes(ctx)
	if err != nil {
		t.Fatalf("loading nodes: %v", err)
	}
	if len(got) != 2 || got[0].URL != "http://a" || got[0].Indegree != 3 {
		t.Errorf("unexpected nodes: %+v", got)
	}
}

func TestLoadFromEdges(t *testing.T) {
	db := skipIfNoPostgres(t)
	resetSchema(t, db)
	ctx := context.Background()
	_, err := db.DB.ExecContext(ctx, `INSERT INTO graph_edges (src_url, dst_url) VALUES
		('http://a', 'http://b'), ('http://c', 'http://b'), ('http://b', 'http://a')`)
	if err != nil {
		t.Fatalf("inserting edges: %v", err)
	}
	got, err := New(db.DB).LoadFromEdges(ctx)
	if err != nil {
		t.Fatalf("loading from edges: %v", err)
	}
	want := map[string]int{"http://a": 1, "http://b": 2, "http://c": 0}
	if len(got) != len(want) {
		t.Fatalf("expected %d nodes, got %+v", len(want), got)
	}
	for _, n := range got {
		if want[n.URL] != n.Indegree {
			t.Errorf("%s: indegree %d, want %d", n.URL, n.Indegree, want[n.URL])
		}
	}
}
