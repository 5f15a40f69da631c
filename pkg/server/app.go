package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "github.com/MiguelT18/trading-bot/internal/domain/repository"
	mid "github.com/MiguelT18/trading-bot/internal/middleware"
	"github.com/MiguelT18/trading-bot/internal/usecase"
	xhttp "github.com/MiguelT18/trading-bot/pkg/http"
	pkgkafka "github.com/MiguelT18/trading-bot/pkg/kafka"
	applogger "github.com/MiguelT18/trading-bot/pkg/logger"
)

// Ingest is the optional Kafka tick consumer feeding a stream feed.
type Ingest struct {
	Consumer *pkgkafka.Consumer
	Handler  pkgkafka.MessageHandler
}

// Delivery is the intent sink handed to the loop and the pipelines behind it.
type Delivery struct {
	Sink      domrepo.IntentSink
	Pipelines mid.PipelineGroup
}

// App encapsulates the entire application lifecycle.
type App struct {
	log             *applogger.Logger
	feed            domrepo.PriceFeed
	ingest          Ingest
	delivery        Delivery
	loop            *usecase.TradingLoop
	httpServer      *xhttp.Server
	shutdownTimeout time.Duration
}

// New creates a new App instance with all dependencies.
func New(
	log *applogger.Logger,
	feed domrepo.PriceFeed,
	ingest Ingest,
	delivery Delivery,
	loop *usecase.TradingLoop,
	httpServer *xhttp.Server,
	shutdownTimeout time.Duration,
) *App {
	if log == nil {
		log = applogger.NewNop()
	}
	return &App{
		log:             log.With(applogger.String("component", "app")),
		feed:            feed,
		ingest:          ingest,
		delivery:        delivery,
		loop:            loop,
		httpServer:      httpServer,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done or the HTTP
// server fails, then shuts down in reverse order.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cf, ok := a.feed.(domrepo.ConnectedFeed); ok {
		if err := cf.Connect(ctx); err != nil {
			// the feed redials on the next fetch
			a.log.Warn("price feed connect failed", applogger.Error(err))
		} else {
			a.log.Info("price feed connected")
		}
	}

	if a.ingest.Consumer != nil && a.ingest.Handler != nil {
		a.ingest.Consumer.RegisterHandler(a.ingest.Handler)
		if err := a.ingest.Consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.ingest.Handler.Topic()))
	}

	a.delivery.Pipelines.Start(runCtx)

	if err := a.loop.Start(runCtx); err != nil {
		a.shutdown()
		return fmt.Errorf("start trading loop: %w", err)
	}

	var httpErrs <-chan error
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("start http server: %w", err)
		}
		httpErrs = a.httpServer.Errors()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-httpErrs:
		runErr = fmt.Errorf("http server: %w", err)
	}

	cancel()
	a.shutdown()
	return runErr
}

// shutdown stops components in reverse start order. Errors are logged and
// do not stop the remaining steps.
func (a *App) shutdown() {
	ctx := context.Background()
	if a.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.shutdownTimeout)
		defer cancel()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if err := a.loop.Stop(ctx); err != nil {
		a.log.Warn("trading loop stop error", applogger.Error(err))
	}

	if a.ingest.Consumer != nil {
		if err := a.ingest.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if cf, ok := a.feed.(domrepo.ConnectedFeed); ok {
		if err := cf.Close(); err != nil {
			a.log.Warn("price feed close error", applogger.Error(err))
		}
	}

	if a.delivery.Sink != nil {
		if err := a.delivery.Sink.Close(); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("intent sink close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
