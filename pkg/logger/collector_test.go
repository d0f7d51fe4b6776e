package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedEntry
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ []byte, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, value.([]AggregatedEntry))
	return nil
}

func (p *capturePublisher) snapshot() [][]AggregatedEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]AggregatedEntry(nil), p.batches...)
}

func TestCollectorAggregatesRepeats(t *testing.T) {
	pub := &capturePublisher{}
	c := NewCollector(CollectorConfig{Interval: time.Hour, Threshold: 10, Topic: "marketlens.logs", Publisher: pub})

	l := NewNop().WithCollector(c)
	for i := 0; i < 3; i++ {
		l.Warn("provider call failed", String("provider", "yahoo"), String("symbol", "AAPL"), Error(errors.New("timeout")))
	}
	l.Warn("provider call failed", String("provider", "binance"), String("symbol", "BTC"))
	l.Info("not collected")
	c.Close()

	batches := pub.snapshot()
	if len(batches) != 1 || pub.topic != "marketlens.logs" {
		t.Fatalf("batches=%d topic=%q", len(batches), pub.topic)
	}
	if len(batches[0]) != 2 {
		t.Fatalf("entries=%d want 2", len(batches[0]))
	}
	byProvider := map[interface{}]AggregatedEntry{}
	for _, e := range batches[0] {
		byProvider[e.Fields["provider"]] = e
	}
	if y := byProvider["yahoo"]; y.Count != 3 || y.Fields["error"] != "timeout" {
		t.Fatalf("yahoo entry=%+v", y)
	}
	if b := byProvider["binance"]; b.Count != 1 || b.Level != "warn" {
		t.Fatalf("binance entry=%+v", b)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewCollector(CollectorConfig{Interval: time.Hour, Threshold: 2, Topic: "t", Publisher: pub})
	c.Add("error", "a", nil)
	c.Add("error", "b", nil)
	c.Add("error", "c", nil)
	c.Close()

	batches := pub.snapshot()
	if len(batches) != 2 {
		t.Fatalf("batches=%d want 2", len(batches))
	}
	sizes := map[int]bool{len(batches[0]): true, len(batches[1]): true}
	if !sizes[2] || !sizes[1] {
		t.Fatalf("batch sizes=%d,%d want 2 and 1", len(batches[0]), len(batches[1]))
	}
}

func TestCollectorReportsPublishErrors(t *testing.T) {
	var mu sync.Mutex
	var got error
	c := NewCollector(CollectorConfig{
		Interval:  time.Hour,
		Topic:     "t",
		Publisher: failingPublisher{},
		OnPublishError: func(err error) {
			mu.Lock()
			got = err
			mu.Unlock()
		},
	})
	c.Add("warn", "x", nil)
	c.Close()
	mu.Lock()
	defer mu.Unlock()
	if got == nil {
		t.Fatalf("publish error not reported")
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, []byte, interface{}) error {
	return errors.New("broker down")
}

func TestWithCollectorNilKeepsLogger(t *testing.T) {
	l := NewNop()
	if l.WithCollector(nil) != l {
		t.Fatalf("nil collector should return the same logger")
	}
	var c *Collector
	c.Close()
}
