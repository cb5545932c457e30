//go:build wireinject
// +build wireinject

package di

import (
	"EarnView/pkg/config"
	"EarnView/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideKafkaProducer,

		// Backend
		ProvideHTTPClient,
		ProvideEarningsClient,
		ProvideBackend,

		// Dashboard
		ProvideSessionManager,
		ProvideRateLimiter,
		ProvideRenderer,

		// HTTP
		ProvideWebHandler,
		ProvideAPIHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
