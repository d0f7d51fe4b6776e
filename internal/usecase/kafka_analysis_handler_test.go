package usecase

import (
	"context"
	"testing"

	"MarketLens/internal/domain/models"
	pkgkafka "MarketLens/pkg/kafka"
	pkgmetrics "MarketLens/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

func newTestHandler(pub *capturePublisher) *KafkaAnalysisHandler {
	orch := newTestOrchestrator()
	hist := newTestHistory(orch, HistoryEntry{Provider: &fakeHistory{name: "yahoo", series: daily(40, 20)}, Rank: 1})
	uc := newTestAnalysis(orch, hist, nil, nil, nil)
	return NewKafkaAnalysisHandler("analysis.requests", uc, pub, pkgmetrics.Nop{})
}

func TestKafkaAnalysisHandlerPublishes(t *testing.T) {
	pub := &capturePublisher{}
	h := newTestHandler(pub)
	if h.Topic() != "analysis.requests" {
		t.Fatalf("topic=%s", h.Topic())
	}

	err := h.Handle(context.Background(), []byte(`{"request_id":"req-7","symbol":"nvda","timeframe":"30d"}`))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(pub.got) != 1 {
		t.Fatalf("published=%d want 1", len(pub.got))
	}
	a := pub.got[0]
	if a.RequestID != "req-7" || a.Symbol != "NVDA" || a.Class != models.AssetStock || a.Timeframe != "30d" {
		t.Fatalf("analysis header=%s %s %s %s", a.RequestID, a.Symbol, a.Class, a.Timeframe)
	}
	if a.Provenance != models.ProvenanceLive {
		t.Errorf("provenance=%s", a.Provenance)
	}
}

func TestKafkaAnalysisHandlerRejectsInvalid(t *testing.T) {
	pub := &capturePublisher{}
	h := newTestHandler(pub)
	cases := []string{
		`not json`,
		`{"asset":"stock"}`,
		`{"symbol":"AAPL","asset":"bond"}`,
		`{"symbol":"AAPL","timeframe":"5y"}`,
	}
	for _, c := range cases {
		err := h.Handle(context.Background(), []byte(c))
		if err == nil {
			t.Errorf("%s: expected error", c)
			continue
		}
		if !pkgkafka.Permanent(err) {
			t.Errorf("%s: %v should skip retries", c, err)
		}
	}
	if len(pub.got) != 0 {
		t.Fatalf("published invalid requests")
	}
}

func TestKafkaAnalysisHandlerReturnsPublishError(t *testing.T) {
	pub := &capturePublisher{err: errDown}
	h := newTestHandler(pub)
	err := h.Handle(context.Background(), []byte(`{"symbol":"AAPL"}`))
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if pkgkafka.Permanent(err) {
		t.Fatalf("publish failure must stay retryable: %v", err)
	}
}

func TestKafkaAnalysisHandlerTakesRequestIDFromContext(t *testing.T) {
	pub := &capturePublisher{}
	h := newTestHandler(pub)
	ctx := pkgkafka.WithRequestID(context.Background(), "hdr-1")
	if err := h.Handle(ctx, []byte(`{"symbol":"AAPL","timeframe":"30d"}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(pub.got) != 1 || pub.got[0].RequestID != "hdr-1" {
		t.Fatalf("request id not taken from context: %+v", pub.got)
	}
}

func TestAnalysisConsumerHook(t *testing.T) {
	hook := NewAnalysisConsumerHook(pkgmetrics.Nop{}, nil)

	if _, _, err := hook.BeforeHandle(context.Background(), "analysis.requests", kafka.Message{}, nil); !pkgkafka.Permanent(err) {
		t.Fatalf("empty payload: err=%v", err)
	}

	msg := kafka.Message{Headers: []kafka.Header{{Key: "request_id", Value: []byte("abc")}}}
	ctx, data, err := hook.BeforeHandle(context.Background(), "analysis.requests", msg, []byte(`{}`))
	if err != nil || string(data) != `{}` {
		t.Fatalf("before: data=%s err=%v", data, err)
	}
	if got := pkgkafka.RequestID(ctx); got != "abc" {
		t.Fatalf("request id=%q", got)
	}
	hook.AfterHandle(ctx, "analysis.requests", msg, nil)
	hook.OnError(ctx, "analysis.requests", msg, pkgkafka.ValidationError(errDown))
}
