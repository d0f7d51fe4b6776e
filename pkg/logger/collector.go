package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Publisher ships aggregated batches. pkg/kafka's Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

type CollectorConfig struct {
	Interval  time.Duration // flush interval
	Threshold int           // distinct entries that force a flush
	Topic     string
	Publisher Publisher
	// OnPublishError is called when a batch cannot be shipped. Defaults to stderr.
	OnPublishError func(err error)
}

// AggregatedEntry is one distinct (level, message, fields) tuple seen since the last flush.
type AggregatedEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// Collector folds repeated warn/error events into counted entries and publishes them in
// batches, so a flapping provider produces one record per interval instead of one per call.
type Collector struct {
	cfg     CollectorConfig
	mu      sync.Mutex
	entries map[string]*AggregatedEntry
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	loopWg sync.WaitGroup
	sendWg sync.WaitGroup
}

func NewCollector(cfg CollectorConfig) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 100
	}
	if cfg.OnPublishError == nil {
		cfg.OnPublishError = func(err error) { fmt.Printf("failed to send aggregated logs: %v\n", err) }
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Collector{
		cfg:     cfg,
		entries: make(map[string]*AggregatedEntry),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	c.loopWg.Add(1)
	go c.loop()
	return c
}

// Add records one event. Reaching the threshold flushes immediately.
func (c *Collector) Add(level, msg string, fields []Field) {
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		k, v := f.GetKeyValue()
		m[k] = v
	}
	key := entryKey(level, msg, m)
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &AggregatedEntry{Level: level, Message: msg, Fields: m, Count: 1, FirstSeen: now, LastSeen: now}
	}
	var batch []AggregatedEntry
	if len(c.entries) >= c.cfg.Threshold {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	c.send(batch)
}

// Flush publishes whatever has been collected so far.
func (c *Collector) Flush() {
	c.mu.Lock()
	batch := c.drainLocked()
	c.mu.Unlock()
	c.send(batch)
}

// Close stops the ticker, flushes the remainder and waits for in-flight sends.
func (c *Collector) Close() {
	if c == nil {
		return
	}
	c.cancel()
	c.loopWg.Wait()
	c.sendWg.Wait()
}

func (c *Collector) loop() {
	defer c.loopWg.Done()
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Flush()
		case <-c.ctx.Done():
			c.Flush()
			return
		}
	}
}

func (c *Collector) drainLocked() []AggregatedEntry {
	if len(c.entries) == 0 {
		return nil
	}
	out := make([]AggregatedEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	c.entries = make(map[string]*AggregatedEntry)
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.Before(out[j].FirstSeen) })
	return out
}

func (c *Collector) send(batch []AggregatedEntry) {
	if len(batch) == 0 || c.cfg.Publisher == nil {
		return
	}
	c.sendWg.Add(1)
	go func() {
		defer c.sendWg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.cfg.Publisher.Publish(ctx, c.cfg.Topic, nil, batch); err != nil {
			c.cfg.OnPublishError(err)
		}
	}()
}

func entryKey(level, msg string, fields map[string]interface{}) string {
	// json.Marshal sorts map keys, so equal field sets hash equally.
	b, _ := json.Marshal(struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
	}{level, msg, fields})
	return fmt.Sprintf("%x", sha256.Sum256(b))
}
