package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	default:
		return errors.New("unsupported value type")
	}
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func mustParse(t *testing.T, q string) *parser.QueryPlan {
	t.Helper()
	plan, err := parser.Parse(q)
	if err != nil {
		t.Fatalf("parse %q: %v", q, err)
	}
	return plan
}

func sampleResult(q string) *executor.SearchResult {
	return &executor.SearchResult{
		Query:     q,
		Operator:  parser.OpAnd,
		Terms:     []string{"fish", "bike"},
		TotalHits: 1,
		Results:   []ranker.RankedResult{{URL: "http://a", Rank: 6}},
	}
}

func TestBuildKeyCanonical(t *testing.T) {
	a := BuildKey("g1", mustParse(t, "fish AND bike"), 10)
	b := BuildKey("g1", mustParse(t, "Bike and FISH"), 10)
	if a != b {
		t.Errorf("commutative AND queries should share a key: %s vs %s", a, b)
	}
	if a == BuildKey("g1", mustParse(t, "fish AND bike"), 5) {
		t.Error("different limits must produce different keys")
	}
	if BuildKey("g1", mustParse(t, "fish AND NOT bike"), 10) == BuildKey("g1", mustParse(t, "bike AND NOT fish"), 10) {
		t.Error("AND NOT is not commutative")
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	store := newMemStore()
	m := metrics.New(prometheus.NewRegistry())
	c := New(store, time.Minute, "g1", m)
	ctx := context.Background()
	plan := mustParse(t, "fish AND bike")

	if _, ok := c.Get(ctx, plan, 10); ok {
		t.Fatal("expected a miss on an empty store")
	}
	c.Set(ctx, plan, 10, sampleResult(plan.RawQuery))
	got, ok := c.Get(ctx, plan, 10)
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if got.Results[0].URL != "http://a" || got.Results[0].Rank != 6 || got.Operator != parser.OpAnd {
		t.Errorf("unexpected cached result: %+v", got)
	}
	if ttl := store.ttls[BuildKey("g1", plan, 10)]; ttl != time.Minute {
		t.Errorf("expected ttl 1m, got %v", ttl)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("cache_hits_total = %v", got)
	}
}

func TestGetOrComputeSingleflight(t *testing.T) {
	c := New(newMemStore(), time.Minute, "g1", nil)
	plan := mustParse(t, "fish")
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrCompute(context.Background(), plan, 10, func() (*executor.SearchResult, error) {
				calls.Add(1)
				<-release
				return sampleResult(plan.RawQuery), nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected compute to run once, ran %d times", n)
	}
	_, hit, err := c.GetOrCompute(context.Background(), plan, 10, func() (*executor.SearchResult, error) {
		t.Fatal("compute should not run on a warm cache")
		return nil, nil
	})
	if err != nil || !hit {
		t.Errorf("expected warm hit, got hit=%v err=%v", hit, err)
	}
}

func TestGetOrComputeError(t *testing.T) {
	c := New(newMemStore(), time.Minute, "g1", nil)
	plan := mustParse(t, "fish")
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), plan, 10, func() (*executor.SearchResult, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected compute error, got %v", err)
	}
	if _, ok := c.Get(context.Background(), plan, 10); ok {
		t.Error("failed computations must not be cached")
	}
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	store.data["unrelated"] = "x"
	c := New(store, time.Minute, "g1", nil)
	ctx := context.Background()
	for _, q := range []string{"fish", "bike", "fish OR bike"} {
		plan := mustParse(t, q)
		c.Set(ctx, plan, 10, sampleResult(q))
	}
	n, err := c.Invalidate(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 keys deleted, got %d", n)
	}
	if _, ok := store.data["unrelated"]; !ok {
		t.Error("keys outside the cache prefix must survive invalidation")
	}
}

func orResult(q string) *executor.SearchResult {
	plan, _ := parser.Parse(q)
	return &executor.SearchResult{
		Query:     q,
		Operator:  parser.OpOr,
		Terms:     plan.Terms(),
		TotalHits: 2,
		Results:   []ranker.RankedResult{{URL: "U1", Rank: 10}, {URL: "U2", Rank: 10}},
	}
}

func assertEchoes(t *testing.T, got *executor.SearchResult, q string, terms ...string) {
	t.Helper()
	if got.Query != q {
		t.Errorf("query = %q, want %q", got.Query, q)
	}
	if len(got.Terms) != len(terms) {
		t.Fatalf("terms = %v, want %v", got.Terms, terms)
	}
	for i := range terms {
		if got.Terms[i] != terms[i] {
			t.Errorf("terms = %v, want %v", got.Terms, terms)
			break
		}
	}
	if got.TotalHits != 2 || len(got.Results) != 2 {
		t.Errorf("ranked results not preserved: %+v", got)
	}
}

func TestCommutedQueriesEchoOwnQuery(t *testing.T) {
	c := New(newMemStore(), time.Minute, "g1", nil)
	ctx := context.Background()
	first := mustParse(t, "fish OR bike")
	second := mustParse(t, "bike OR fish")

	got, hit, err := c.GetOrCompute(ctx, first, 10, func() (*executor.SearchResult, error) {
		return orResult(first.RawQuery), nil
	})
	if err != nil || hit {
		t.Fatalf("expected a computed miss, got hit=%v err=%v", hit, err)
	}
	assertEchoes(t, got, "fish OR bike", "fish", "bike")

	got, hit, err = c.GetOrCompute(ctx, second, 10, func() (*executor.SearchResult, error) {
		t.Fatal("commuted query should be served from the cache")
		return nil, nil
	})
	if err != nil || !hit {
		t.Fatalf("expected a hit, got hit=%v err=%v", hit, err)
	}
	assertEchoes(t, got, "bike OR fish", "bike", "fish")

	again, ok := c.Get(ctx, first, 10)
	if !ok {
		t.Fatal("expected a hit for the original order")
	}
	assertEchoes(t, again, "fish OR bike", "fish", "bike")
}

func TestCommutedQueriesShareComputation(t *testing.T) {
	c := New(newMemStore(), time.Minute, "g1", nil)
	queries := []string{"fish OR bike", "bike OR fish"}
	var calls atomic.Int32
	release := make(chan struct{})
	results := make([]*executor.SearchResult, len(queries))
	plans := make([]*parser.QueryPlan, len(queries))
	for i, q := range queries {
		plans[i] = mustParse(t, q)
	}

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			got, _, err := c.GetOrCompute(context.Background(), plans[i], 10, func() (*executor.SearchResult, error) {
				calls.Add(1)
				<-release
				return orResult(q), nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = got
		}(i, q)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected one shared computation, ran %d", n)
	}
	if results[0] == nil || results[1] == nil {
		t.Fatal("missing results")
	}
	assertEchoes(t, results[0], "fish OR bike", "fish", "bike")
	assertEchoes(t, results[1], "bike OR fish", "bike", "fish")
}

func TestGenerationSeparatesEntries(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	plan := mustParse(t, "fish")
	if BuildKey("g1", plan, 10) == BuildKey("g2", plan, 10) {
		t.Fatal("different generations must produce different keys")
	}

	stale := New(store, time.Minute, "g1", nil)
	stale.Set(ctx, plan, 10, sampleResult(plan.RawQuery))

	fresh := New(store, time.Minute, "g2", nil)
	if _, ok := fresh.Get(ctx, plan, 10); ok {
		t.Error("results cached by an older index generation must not be served")
	}
	if _, ok := stale.Get(ctx, plan, 10); !ok {
		t.Error("same generation should still hit")
	}
	if n, _ := fresh.Invalidate(ctx); n != 1 {
		t.Errorf("invalidate should sweep every generation, deleted %d", n)
	}
}
