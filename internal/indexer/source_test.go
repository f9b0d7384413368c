package indexer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/engine"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/config"
)

func TestBootstrapFromFile(t *testing.T) {
	pages := map[string]string{
		"/u1": `<html><body><p>Fish fish fish</p><p>bike, bike!</p></body></html>`,
		"/u2": `<html><body><h1>Fish</h1></body></html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	graphPath := filepath.Join(t.TempDir(), "graph.yaml")
	doc := fmt.Sprintf("nodes:\n  - url: %[1]s/u1\n    indegree: 2\n  - url: %[1]s/u2\n    indegree: 10\n  - url: %[1]s/missing\n    indegree: 50\n", srv.URL)
	if err := os.WriteFile(graphPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing graph: %v", err)
	}
	cfg := &config.Config{
		Graph: config.GraphConfig{Source: config.GraphSourceFile, Path: graphPath},
		Fetcher: config.FetcherConfig{
			Workers:      2,
			Timeout:      2 * time.Second,
			MaxAttempts:  1,
			MaxBodyBytes: 1 << 20,
		},
	}

	corpus, err := Bootstrap(context.Background(), cfg, srv.Client(), nil)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if corpus.Report.Indexed != 2 || corpus.Report.Failed != 1 {
		t.Errorf("expected 2 indexed and 1 failed, got %+v", corpus.Report)
	}
	if corpus.Authority.Authority(srv.URL+"/missing") != 50 {
		t.Error("unfetchable pages keep their authority entry")
	}

	e, err := engine.New(corpus.Index, corpus.Authority)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	got := e.SearchOr("fish", "bike")
	want := []ranker.RankedResult{{URL: srv.URL + "/u1", Rank: 10}, {URL: srv.URL + "/u2", Rank: 10}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("SearchOr = %v, want %v", got, want)
	}
}

func TestLoadGraphUnknownSource(t *testing.T) {
	cfg := &config.Config{Graph: config.GraphConfig{Source: "s3"}}
	if _, err := LoadGraph(context.Background(), cfg); err == nil {
		t.Error("expected an error for an unknown graph source")
	}
}

func buildCorpus(t *testing.T, fishAuthority int, extraTerm string) *Corpus {
	t.Helper()
	idx := index.NewInvertedIndex()
	idx.Record("fish", "U1")
	idx.Record("fish", "U1")
	idx.Record("bike", "U2")
	if extraTerm != "" {
		idx.Record(extraTerm, "U2")
	}
	idx.Seal()
	table, err := graph.NewAuthorityTable([]graph.Node{
		{URL: "U1", Indegree: fishAuthority},
		{URL: "U2", Indegree: 3},
	})
	if err != nil {
		t.Fatalf("authority table: %v", err)
	}
	return &Corpus{Index: idx, Authority: table}
}

func TestCorpusGeneration(t *testing.T) {
	base := buildCorpus(t, 2, "").Generation()
	if base == "" {
		t.Fatal("expected a non-empty generation")
	}
	if again := buildCorpus(t, 2, "").Generation(); again != base {
		t.Errorf("identical corpora got generations %q and %q", base, again)
	}
	if other := buildCorpus(t, 7, "").Generation(); other == base {
		t.Error("a changed authority score must change the generation")
	}
	if other := buildCorpus(t, 2, "wheel").Generation(); other == base {
		t.Error("a new term must change the generation")
	}
}
