package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/kafka"
)

const drainTimeout = 5 * time.Second

// Publisher is the producer side the collector writes to.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Collector queues analytics events and publishes them from a single
// background goroutine so that request handlers never block on Kafka.
type Collector struct {
	publisher Publisher
	eventCh   chan kafka.Event
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
	dropped   atomic.Int64
	logger    *slog.Logger
}

func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher: publisher,
		eventCh:   make(chan kafka.Event, bufferSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "analytics-collector"),
	}
}

// Start launches the publish loop. It exits when ctx is cancelled or Close
// is called, publishing whatever is still queued first.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event := <-c.eventCh:
				c.publish(ctx, event)
			case <-c.stop:
				c.drainRemaining()
				return
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues a search event, dropping it when the buffer is full.
func (c *Collector) Track(event SearchEvent) {
	c.enqueue(kafka.Event{Key: event.Query, Value: event})
}

// TrackIndex enqueues an index build event.
func (c *Collector) TrackIndex(event IndexEvent) {
	c.enqueue(kafka.Event{Key: string(EventIndexBuilt), Value: event})
}

// Dropped returns how many events were discarded because the buffer was full.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops the publish loop and waits for queued events to be flushed.
// Start must have been called.
func (c *Collector) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Collector) enqueue(event kafka.Event) {
	select {
	case <-c.stop:
		c.dropped.Add(1)
		return
	default:
	}
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

func (c *Collector) publish(ctx context.Context, event kafka.Event) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Error("failed to publish analytics event", "key", event.Key, "error", err)
	}
}

func (c *Collector) drainRemaining() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-c.eventCh:
			c.publish(ctx, event)
		default:
			return
		}
	}
}
