package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"EarnView/internal/dashboard"
	"EarnView/internal/domain/repository"
	"EarnView/internal/handler/api"
	"EarnView/internal/handler/web"
	"EarnView/internal/service/earningsapi"
	"EarnView/internal/service/ratelimit"
	"EarnView/pkg/config"
	xhttp "EarnView/pkg/http"
	pkgkafka "EarnView/pkg/kafka"
	applogger "EarnView/pkg/logger"
	"EarnView/pkg/metrics"
	"EarnView/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideKafkaProducer creates the log-shipping producer. It is nil when
// shipping is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Logging.Ship.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Logging.Ship.Brokers),
		pkgkafka.WithCompression("snappy"),
		pkgkafka.WithRequiredAcks(1),
		pkgkafka.WithBatchTimeout(50*time.Millisecond),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideMetrics creates the Prometheus recorder on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideHTTPClient creates the outbound client, behind a breaker when enabled.
func ProvideHTTPClient(cfg *config.Config, l *applogger.Logger) *xhttp.Client {
	opts := []xhttp.ClientOption{xhttp.WithTimeout(cfg.API.Timeout)}
	if b := cfg.API.Breaker; b.Enabled {
		opts = append(opts, xhttp.WithBreaker(xhttp.BreakerSettings{
			Name:                "earnings-api",
			MaxRequests:         b.MaxRequests,
			Interval:            b.Interval,
			Timeout:             b.Timeout,
			ConsecutiveFailures: b.ConsecutiveFailures,
			OnStateChange: func(name string, from, to gobreaker.State) {
				l.Warn("circuit breaker state change",
					applogger.String("breaker", name),
					applogger.String("from", from.String()),
					applogger.String("to", to.String()))
			},
		}))
	}
	return xhttp.NewClient(opts...)
}

// ProvideEarningsClient creates the backend client.
func ProvideEarningsClient(cfg *config.Config, hc *xhttp.Client, rec *metrics.Recorder, l *applogger.Logger) *earningsapi.Client {
	return earningsapi.New(cfg.API.BaseURL, hc,
		earningsapi.WithMetrics(rec),
		earningsapi.WithLogger(l),
	)
}

// ProvideBackend exposes the client as the backend port.
func ProvideBackend(c *earningsapi.Client) repository.Backend { return c }

// ProvideSessionManager creates the page session registry.
func ProvideSessionManager(cfg *config.Config, c *earningsapi.Client, rec *metrics.Recorder, l *applogger.Logger) (*dashboard.Manager, func()) {
	m := dashboard.NewManager(c, dashboard.ManagerConfig{
		TTL:          cfg.Dashboard.SessionTTL,
		MaxSessions:  cfg.Dashboard.MaxSessions,
		ReapInterval: cfg.Dashboard.ReapInterval,
	},
		dashboard.WithManagerMetrics(rec),
		dashboard.WithManagerLogger(l),
	)
	return m, m.Close
}

// ProvideRateLimiter selects the limiter backend for the mutating proxies.
func ProvideRateLimiter(cfg *config.Config, l *applogger.Logger) (ratelimit.Limiter, func(), error) {
	rl := cfg.RateLimit
	lc := ratelimit.Config{
		Backend: rl.Backend,
		RPS:     rl.RPS,
		Burst:   rl.Burst,
		Window:  rl.Window,
		Prefix:  rl.Redis.Prefix,
	}
	if rl.Backend != ratelimit.BackendRedis {
		limiter, err := ratelimit.New(lc, nil)
		return limiter, func() {}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rdb, err := ratelimit.NewRedisClient(ctx, rl.Redis.Addr, rl.Redis.Password, rl.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("ratelimit redis: %w", err)
	}
	limiter, err := ratelimit.New(lc, rdb)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	l.Info("rate limiter using redis", applogger.String("addr", rl.Redis.Addr))
	return limiter, func() { _ = rdb.Close() }, nil
}

// ProvideRenderer parses the page templates.
func ProvideRenderer() (*web.Renderer, error) {
	return web.NewRenderer()
}

// ProvideWebHandler creates the page and stream handler.
func ProvideWebHandler(l *applogger.Logger, m *dashboard.Manager, r *web.Renderer) *web.Handler {
	return web.NewHandler(l, m, r)
}

// ProvideAPIHandler creates the JSON proxy handler.
func ProvideAPIHandler(l *applogger.Logger, backend repository.Backend, limiter ratelimit.Limiter) *api.EarningsHandler {
	return api.NewEarningsHandler(l, backend, limiter)
}

// ProvideHTTPServer assembles the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, wh *web.Handler, ah *api.EarningsHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, xhttp.WithCORS(cfg.Server.CORSOrigins...))
	}
	return xhttp.NewServer(l, []xhttp.Handler{wh, ah}, opts...)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	sessions *dashboard.Manager,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, l, srv, sessions, producer)
}
