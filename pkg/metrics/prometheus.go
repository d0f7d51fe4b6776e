package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	fallbacks       *prometheus.CounterVec
	seriesPoints    *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a recorder registered on reg; nil means the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		providerCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_provider_calls_total",
				Help: "Provider adapter calls by outcome",
			},
			[]string{"provider", "kind", "result"},
		),
		providerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_provider_call_seconds",
				Help:    "Provider adapter call latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
			},
			[]string{"provider", "kind"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_synthetic_fallbacks_total",
				Help: "Requests answered with synthetic data",
			},
			[]string{"asset_class"},
		),
		seriesPoints: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_series_points",
				Help:    "Candles in reconciled live series",
				Buckets: []float64{5, 10, 20, 30, 60, 90, 180, 260, 370},
			},
			[]string{"asset_class"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketlens_last_price",
				Help: "Last reconciled close for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_operation_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordProviderCall(provider, kind string, ok bool, seconds float64) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.providerCalls.WithLabelValues(provider, kind, result).Inc()
	r.providerLatency.WithLabelValues(provider, kind).Observe(seconds)
}

func (r *Recorder) RecordFallback(class string) {
	r.fallbacks.WithLabelValues(class).Inc()
}

func (r *Recorder) RecordSeriesPoints(class string, n int) {
	r.seriesPoints.WithLabelValues(class).Observe(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordProviderCall(string, string, bool, float64) {}
func (Nop) RecordFallback(string)                            {}
func (Nop) RecordSeriesPoints(string, int)                   {}
func (Nop) RecordError(string)                               {}
func (Nop) RecordLastPrice(string, float64)                  {}
func (Nop) RecordLatency(string, float64)                    {}
