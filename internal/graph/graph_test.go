package graph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/errors"
)

func TestAuthorityTable(t *testing.T) {
	table, err := NewAuthorityTable([]Node{
		{URL: "u1", Indegree: 2},
		{URL: "u2", Indegree: 10},
		{URL: "u1", Indegree: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Authority("u1") != 3 {
		t.Errorf("expected last value 3 for u1, got %d", table.Authority("u1"))
	}
	if table.Authority("u2") != 10 {
		t.Errorf("expected 10 for u2, got %d", table.Authority("u2"))
	}
	if table.Authority("missing") != 0 {
		t.Errorf("expected 0 for unknown url, got %d", table.Authority("missing"))
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", table.Len())
	}
}

func TestAuthorityTableRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
	}{
		{"negative", []Node{{URL: "u1", Indegree: -1}}},
		{"empty url", []Node{{URL: "", Indegree: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuthorityTable(tt.nodes)
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestZeroValueTable(t *testing.T) {
	var table AuthorityTable
	if table.Authority("u1") != 0 {
		t.Error("zero table must score every url 0")
	}
}

func TestIndegreeFromEdges(t *testing.T) {
	nodes := IndegreeFromEdges([]Edge{
		{From: "a", To: "b"},
		{From: "c", To: "b"},
		{From: "a", To: "b"},
		{From: "b", To: "c"},
		{From: "", To: "d"},
	})
	want := []Node{{URL: "a", Indegree: 0}, {URL: "b", Indegree: 2}, {URL: "c", Indegree: 1}}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %v", len(want), nodes)
	}
	for i := range want {
		if nodes[i] != want[i] {
			t.Errorf("node %d = %v, want %v", i, nodes[i], want[i])
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadFileNodes(t *testing.T) {
	path := writeFile(t, "graph.yaml", `
nodes:
  - url: https://a.example
    indegree: 4
  - url: https://b.example
    indegree: 1
`)
	nodes, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 || nodes[0].URL != "https://a.example" || nodes[0].Indegree != 4 {
		t.Errorf("unexpected nodes: %v", nodes)
	}
}

func TestLoadFileEdgesJSON(t *testing.T) {
	path := writeFile(t, "graph.json", `{"edges":[{"from":"x","to":"y"},{"from":"z","to":"y"}]}`)
	nodes, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table, err := NewAuthorityTable(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Authority("y") != 2 {
		t.Errorf("expected indegree 2 for y, got %d", table.Authority("y"))
	}
}

func TestLoadFileErrors(t *testing.T) {
	both := writeFile(t, "both.yaml", "nodes: [{url: a, indegree: 1}]\nedges: [{from: a, to: b}]\n")
	empty := writeFile(t, "empty.yaml", "{}\n")
	for _, path := range []string{both, empty} {
		if _, err := LoadFile(path); !errors.Is(err, apperrors.ErrGraphLoad) {
			t.Errorf("%s: expected ErrGraphLoad, got %v", path, err)
		}
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
