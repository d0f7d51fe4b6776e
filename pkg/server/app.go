package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "MarketLens/internal/domain/repository"
	"MarketLens/internal/scheduler"
	"MarketLens/internal/usecase"
	pkgch "MarketLens/pkg/clickhouse"
	"MarketLens/pkg/config"
	xhttp "MarketLens/pkg/http"
	pkgkafka "MarketLens/pkg/kafka"
	applogger "MarketLens/pkg/logger"
)

// Deps are the components the App starts and stops. Optional parts are nil when disabled.
type Deps struct {
	Config    *config.Config
	Logger    *applogger.Logger
	Handler   xhttp.Handler
	Consumer  *pkgkafka.Consumer
	Kafka     pkgkafka.MessageHandler
	Publisher domrepo.Publisher
	Watchlist *usecase.WatchlistUseCase
	CH        *pkgch.Client
	Logs      *applogger.Collector
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	pub        domrepo.Publisher
	watchlist  *usecase.WatchlistUseCase
	chClient   *pkgch.Client
	logs       *applogger.Collector
	httpServer *xhttp.Server
	sched      *scheduler.Scheduler
}

// New creates a new App instance with all dependencies.
func New(d Deps) *App {
	l := d.Logger
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		cfg:       d.Config,
		l:         l,
		handler:   d.Handler,
		consumer:  d.Consumer,
		kh:        d.Kafka,
		pub:       d.Publisher,
		watchlist: d.Watchlist,
		chClient:  d.CH,
		logs:      d.Logs,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithCORS(!a.cfg.Server.DisableCORS),
		xhttp.WithLogger(a.l),
	)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer error", applogger.Error(err))
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.cfg.Scheduler.Enabled && a.watchlist != nil {
		a.sched = scheduler.New(ctx, a.watchlist, a.cfg.Pipeline.ProviderTimeout*3, a.l)
		if err := a.sched.Register(a.cfg.Scheduler.Spec); err != nil {
			return err
		}
		a.sched.Start()
		go a.sched.RunNow()
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops intake first, then closes the clients the pipeline writes to.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	// last batch of aggregated logs goes out before the producer closes
	a.logs.Close()
	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
