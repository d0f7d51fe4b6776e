package api

import (
	"time"

	models "MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	"MarketLens/internal/service/metrics"
	"MarketLens/internal/service/ratelimit"
	"MarketLens/internal/usecase"
	xhttp "MarketLens/pkg/http"
	xlogger "MarketLens/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ClientLimit is the per-client token bucket applied to every /api route.
type ClientLimit struct {
	Burst float64
	RPS   float64
}

// AnalysisEchoHandler serves the analysis pipeline over HTTP.
type AnalysisEchoHandler struct {
	logger    *xlogger.Logger
	analysis  *usecase.AnalysisUseCase
	quotes    *usecase.QuoteUseCase
	news      *usecase.NewsUseCase
	watchlist *usecase.WatchlistUseCase
	rl        *ratelimit.Limiter
	limit     ClientLimit
}

func NewAnalysisEchoHandler(
	logger *xlogger.Logger,
	analysis *usecase.AnalysisUseCase,
	quotes *usecase.QuoteUseCase,
	news *usecase.NewsUseCase,
	watchlist *usecase.WatchlistUseCase,
	limit ClientLimit,
) *AnalysisEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &AnalysisEchoHandler{
		logger:    logger,
		analysis:  analysis,
		quotes:    quotes,
		news:      news,
		watchlist: watchlist,
		rl:        ratelimit.New(),
		limit:     limit,
	}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analysis", h.Analysis, h.observe("analysis"))
	g.GET("/series", h.Series, h.observe("series"))
	g.GET("/quote", h.Quote, h.observe("quote"))
	g.GET("/news", h.News, h.observe("news"))
	g.GET("/watchlist", h.Watchlist, h.observe("watchlist"))
}

// observe applies the client limiter and records endpoint latency and errors.
func (h *AnalysisEchoHandler) observe(endpoint string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !h.rl.Allow(c.RealIP()+":"+endpoint, h.limit.Burst, h.limit.RPS) {
				metrics.RateLimited.WithLabelValues(endpoint).Inc()
				h.logger.Warn("api rate_limited",
					xlogger.String("endpoint", endpoint),
					xlogger.String("remote", c.RealIP()),
				)
				return xhttp.TooManyRequestsResponse(c)
			}
			start := time.Now()
			err := next(c)
			metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
			if err != nil || c.Response().Status >= 400 {
				metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
			}
			return err
		}
	}
}

func (h *AnalysisEchoHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analysis.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		RequestID:   c.Request().Header.Get(echo.HeaderXRequestID),
		Symbol:      req.Symbol,
		Class:       models.AssetClass(req.Asset),
		Timeframe:   domrepo.Timeframe(req.Timeframe),
		IncludeNews: req.News,
	})
	if err != nil {
		h.logger.Error("analysis usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("%v", err))
	}
	c.Response().Header().Set(echo.HeaderXRequestID, res.RequestID)
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Series(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analysis.Series(c.Request().Context(), req.Symbol, models.AssetClass(req.Asset), domrepo.Timeframe(req.Timeframe))
	if err != nil {
		h.logger.Error("series usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("%v", err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.quotes.GetQuote(c.Request().Context(), req.Symbol, models.AssetClass(req.Asset))
	if err != nil {
		h.logger.Error("quote usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("%v", err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, models.WatchlistEntry{Asset: res.Quote, Provenance: res.Provenance, UpdatedAt: time.Now().UTC()})
}

func (h *AnalysisEchoHandler) News(c echo.Context) error {
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	items, err := h.news.GetNews(c.Request().Context(), req.Symbol, models.AssetClass(req.Asset))
	if err != nil {
		h.logger.Error("news usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("%v", err))
	}
	return xhttp.SuccessResponse(c, items)
}

func (h *AnalysisEchoHandler) Watchlist(c echo.Context) error {
	if h.watchlist == nil {
		return xhttp.SuccessResponse(c, []models.WatchlistEntry{})
	}
	return xhttp.SuccessResponse(c, h.watchlist.Snapshot())
}

var _ xhttp.Handler = (*AnalysisEchoHandler)(nil)
