package ranker

import "testing"

type fixedAuthority map[string]int

func (f fixedAuthority) Authority(url string) int { return f[url] }

func TestFromCounts(t *testing.T) {
	auth := fixedAuthority{"u1": 2, "u2": 10, "u3": 0}
	got := FromCounts(auth, map[string]int{"u1": 3, "u2": 1, "u3": 7, "u4": 5})
	want := []RankedResult{{URL: "u2", Rank: 10}, {URL: "u1", Rank: 6}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSortTieBreak(t *testing.T) {
	results := []RankedResult{
		{URL: "https://b", Rank: 5},
		{URL: "https://c", Rank: 9},
		{URL: "https://a", Rank: 5},
	}
	Sort(results)
	want := []string{"https://c", "https://a", "https://b"}
	for i, url := range want {
		if results[i].URL != url {
			t.Errorf("position %d = %s, want %s", i, results[i].URL, url)
		}
	}
}

func TestTruncate(t *testing.T) {
	results := []RankedResult{{URL: "a", Rank: 3}, {URL: "b", Rank: 2}, {URL: "c", Rank: 1}}
	if got := Truncate(results, 2); len(got) != 2 {
		t.Errorf("expected 2 results, got %d", len(got))
	}
	if got := Truncate(results, 0); len(got) != 3 {
		t.Errorf("limit 0 must keep all results, got %d", len(got))
	}
	if got := Truncate(results, 10); len(got) != 3 {
		t.Errorf("expected 3 results, got %d", len(got))
	}
}
