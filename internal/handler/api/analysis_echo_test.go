package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	"MarketLens/internal/service/cache"
	"MarketLens/internal/services/indicators"
	"MarketLens/internal/services/patterns"
	"MarketLens/internal/services/prediction"
	"MarketLens/internal/services/sentiment"
	"MarketLens/internal/usecase"
	pkgmetrics "MarketLens/pkg/metrics"

	"github.com/labstack/echo/v4"
)

type stubHistory struct{ n int }

func (stubHistory) Name() string                     { return "stub" }
func (stubHistory) Supports(models.AssetClass) bool { return true }

func (s stubHistory) FetchHistory(_ context.Context, q domrepo.HistoryQuery) (models.Series, error) {
	to := q.To.UTC()
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	out := make(models.Series, s.n)
	for i := range out {
		c := 50 + float64(i)
		out[i] = models.Candle{Date: end.AddDate(0, 0, i-s.n+1), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 10}
	}
	return out, nil
}

type stubNews struct{}

func (stubNews) Name() string { return "stub-news" }

func (stubNews) FetchNews(context.Context, domrepo.NewsQuery) ([]models.NewsItem, error) {
	return []models.NewsItem{{Title: "Apple up", Link: "https://n.test/1", Published: time.Now()}}, nil
}

func newTestEcho(limit ClientLimit) *echo.Echo {
	orch := usecase.NewOrchestrator(time.Second, nil, pkgmetrics.Nop{}, nil)
	hist := usecase.NewHistoryUseCase(orch, []usecase.HistoryEntry{{Provider: stubHistory{n: 30}, Rank: 1}}, 10, pkgmetrics.Nop{}, nil)
	news := usecase.NewNewsUseCase(orch, []usecase.NewsEntry{{Provider: stubNews{}}}, cache.NewTTLCache(), 0, 0, nil)
	quotes := usecase.NewQuoteUseCase(orch, nil, hist)
	analysis := usecase.NewAnalysisUseCase(usecase.AnalysisDeps{
		Orchestrator: orch,
		History:      hist,
		News:         news,
		Indicators:   indicators.New(),
		Patterns:     patterns.New(),
		Fuser:        sentiment.NewFuser(0),
		Predictor:    prediction.New(),
		Metrics:      pkgmetrics.Nop{},
	})
	h := NewAnalysisEchoHandler(nil, analysis, quotes, news, nil, limit)
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalysisEndpoint(t *testing.T) {
	e := newTestEcho(ClientLimit{})
	rec := get(e, "/api/analysis?symbol=aapl&timeframe=30d&news=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status int             `json:"status"`
		Data   models.Analysis `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	a := body.Data
	if a.Symbol != "AAPL" || a.Timeframe != "30d" || a.Class != models.AssetStock {
		t.Fatalf("header=%s %s %s", a.Symbol, a.Timeframe, a.Class)
	}
	if a.Provenance != models.ProvenanceLive || len(a.Series) != 30 {
		t.Fatalf("provenance=%s points=%d", a.Provenance, len(a.Series))
	}
	if len(a.News) != 1 {
		t.Errorf("news=%d want 1", len(a.News))
	}
	if rec.Header().Get(echo.HeaderXRequestID) != a.RequestID || a.RequestID == "" {
		t.Errorf("request id header=%q body=%q", rec.Header().Get(echo.HeaderXRequestID), a.RequestID)
	}
}

func TestValidationErrors(t *testing.T) {
	e := newTestEcho(ClientLimit{})
	for _, target := range []string{
		"/api/analysis",
		"/api/analysis?symbol=AAPL&asset=bond",
		"/api/series?symbol=AAPL&timeframe=2d",
		"/api/quote?asset=crypto",
		"/api/news",
	} {
		if rec := get(e, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d want 400", target, rec.Code)
		}
	}
}

func TestQuoteDerivedFromSeries(t *testing.T) {
	e := newTestEcho(ClientLimit{})
	rec := get(e, "/api/quote?symbol=msft")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data models.WatchlistEntry `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Data.Derived || body.Data.Price != 79 || body.Data.Provenance != models.ProvenanceLive {
		t.Fatalf("quote=%+v", body.Data)
	}
}

func TestWatchlistEmpty(t *testing.T) {
	e := newTestEcho(ClientLimit{})
	rec := get(e, "/api/watchlist")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestClientRateLimit(t *testing.T) {
	e := newTestEcho(ClientLimit{Burst: 1, RPS: 0.001})
	if rec := get(e, "/api/series?symbol=AAPL"); rec.Code != http.StatusOK {
		t.Fatalf("first status=%d", rec.Code)
	}
	if rec := get(e, "/api/series?symbol=AAPL"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d want 429", rec.Code)
	}
	if rec := get(e, "/api/news?symbol=AAPL"); rec.Code != http.StatusOK {
		t.Fatalf("other endpoint status=%d", rec.Code)
	}
}
