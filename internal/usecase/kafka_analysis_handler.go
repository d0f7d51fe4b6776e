package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	xhttp "MarketLens/pkg/http"
	pkgkafka "MarketLens/pkg/kafka"
	applogger "MarketLens/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// KafkaAnalysisHandler consumes analysis requests and publishes the results.
type KafkaAnalysisHandler struct {
	topic     string
	analysis  *AnalysisUseCase
	publisher domrepo.Publisher
	metrics   domrepo.Metrics
}

func NewKafkaAnalysisHandler(topic string, analysis *AnalysisUseCase, publisher domrepo.Publisher, metrics domrepo.Metrics) *KafkaAnalysisHandler {
	return &KafkaAnalysisHandler{topic: topic, analysis: analysis, publisher: publisher, metrics: metrics}
}

func (h *KafkaAnalysisHandler) Topic() string { return h.topic }

// incoming message schema: {request_id?, symbol, asset?, timeframe?, news?}
func (h *KafkaAnalysisHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		RequestID string `json:"request_id"`
		models.AnalysisRequest
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.ValidationError(err)
	}
	if errs := xhttp.ValidateStruct(ctx, &m.AnalysisRequest); len(errs) > 0 {
		h.metrics.RecordError("consumer_validate")
		return pkgkafka.ValidationError(fmt.Errorf("invalid analysis request: %s %s", errs[0].Field, errs[0].Message))
	}
	if m.RequestID == "" {
		m.RequestID = pkgkafka.RequestID(ctx)
	}

	a, err := h.analysis.Analyze(ctx, AnalyzeParams{
		RequestID:   m.RequestID,
		Symbol:      m.Symbol,
		Class:       models.AssetClass(m.Asset),
		Timeframe:   domrepo.Timeframe(m.Timeframe),
		IncludeNews: m.News,
	})
	if err != nil {
		h.metrics.RecordError("consumer_analyze")
		return err
	}
	if err := h.publisher.PublishAnalysis(ctx, a); err != nil {
		h.metrics.RecordError("consumer_publish")
		return err
	}
	return nil
}

// NewAnalysisConsumerHook threads the request_id header into the context, rejects empty
// payloads before they reach the pipeline and logs every outcome.
func NewAnalysisConsumerHook(metrics domrepo.Metrics, l *applogger.Logger) pkgkafka.ConsumerHook {
	if l == nil {
		l = applogger.NewNop()
	}
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, []byte, error) {
			if len(data) == 0 {
				return ctx, data, pkgkafka.ValidationError(errors.New("empty payload"))
			}
			return pkgkafka.WithRequestID(ctx, pkgkafka.Header(km, "request_id")), data, nil
		},
		After: func(ctx context.Context, topic string, km kafka.Message, err error) {
			fields := []applogger.Field{
				applogger.String("topic", topic),
				applogger.String("key", string(km.Key)),
				applogger.String("request_id", pkgkafka.RequestID(ctx)),
			}
			if start, ok := pkgkafka.StartTime(ctx); ok {
				fields = append(fields, applogger.Duration("duration_ms", time.Since(start)))
			}
			if err != nil {
				l.Warn("analysis request failed", append(fields, applogger.String("code", pkgkafka.ErrorCode(err)), applogger.Error(err))...)
				return
			}
			l.Info("analysis request handled", fields...)
		},
		Err: func(_ context.Context, _ string, _ kafka.Message, err error) {
			if pkgkafka.Permanent(err) {
				metrics.RecordError("consumer_rejected")
			}
		},
	}
}

var _ pkgkafka.MessageHandler = (*KafkaAnalysisHandler)(nil)
