package repository

import (
	"context"
	"time"

	"MarketLens/internal/domain/models"
	"MarketLens/internal/domain/repository"
	pkgkafka "MarketLens/pkg/kafka"
)

// AnalysisEvent is the message published for every completed analysis.
type AnalysisEvent struct {
	Type        string            `json:"type"`
	RequestID   string            `json:"request_id"`
	Symbol      string            `json:"symbol"`
	Provenance  models.Provenance `json:"provenance"`
	PublishedAt time.Time         `json:"published_at"`
	Analysis    *models.Analysis  `json:"analysis"`
}

// KafkaPublisher implements Publisher for Kafka, keyed by symbol.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishAnalysis(ctx context.Context, a *models.Analysis) error {
	return p.producer.Publish(ctx, p.topic, []byte(a.Symbol), AnalysisEvent{
		Type:        "analysis.completed",
		RequestID:   a.RequestID,
		Symbol:      a.Symbol,
		Provenance:  a.Provenance,
		PublishedAt: time.Now().UTC(),
		Analysis:    a,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops analyses; used when kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishAnalysis(context.Context, *models.Analysis) error { return nil }
func (NopPublisher) Close() error                                          { return nil }
