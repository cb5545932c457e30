package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"EarnView/internal/dashboard"
	"EarnView/pkg/config"
	xhttp "EarnView/pkg/http"
	pkgkafka "EarnView/pkg/kafka"
	applogger "EarnView/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	sessions   *dashboard.Manager
	producer   *pkgkafka.Producer
}

// New creates a new App instance with all dependencies. producer may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sessions *dashboard.Manager,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:        cfg,
		logger:     l,
		httpServer: httpServer,
		sessions:   sessions,
		producer:   producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.producer != nil {
		ship := a.cfg.Logging.Ship
		a.logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   ship.FlushInterval,
			CountThreshold: ship.CountThreshold,
			Topic:          ship.Topic,
			Publisher:      a.producer,
		})
		a.logger.Info("log shipping enabled",
			applogger.Strings("brokers", ship.Brokers),
			applogger.String("topic", ship.Topic))
	}

	go a.sessions.Run(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("dashboard started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("api", a.cfg.API.BaseURL))

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	a.sessions.Close()

	// flushes the aggregated logs before the producer goes away
	a.logger.Info("shutdown complete")
	a.logger.RemoveCollector()
	return firstErr
}
