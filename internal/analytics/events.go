package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventIndexBuilt EventType = "index_built"
)

// SearchEvent describes one answered query.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Operator  string    `json:"operator"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// IndexEvent is emitted once when an index build finishes.
type IndexEvent struct {
	Type       EventType `json:"type"`
	Requested  int       `json:"requested"`
	Indexed    int       `json:"indexed"`
	Failed     int       `json:"failed"`
	Terms      int       `json:"terms"`
	Documents  int       `json:"documents"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// envelope is decoded first to route a raw message by its type.
type envelope struct {
	Type EventType `json:"type"`
}
