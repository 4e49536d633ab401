//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"ard/internal"
	"ard/internal/controllers"
	"ard/internal/providers"
	"ard/internal/reply"
	"ard/internal/services"
	"ard/internal/structures"
	"ard/internal/transport"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		transport.NewClient,
		services.NewRuleService,
		reply.NewAccountStore,
		reply.NewZstdCompressor,
		reply.NewJournal,
		reply.NewPersister,
		reply.NewTracker,
		reply.NewReconciler,
		reply.NewDispatcher,
		reply.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
