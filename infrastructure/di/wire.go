//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"loom-backend/application/operators"
	"loom-backend/application/ports"
	"loom-backend/application/services"
	domainconfig "loom-backend/domain/config"
	"loom-backend/domain/core/aggregates"
	"loom-backend/infrastructure/config"
	"loom-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	DomainConfig     *domainconfig.DomainConfig
	Logger           *zap.Logger
	Metrics          *observability.Collector
	TransformService ports.TransformService
	ArchiveFetcher   ports.ArchiveFetcher
	Registry         *operators.Registry
	Graph            *aggregates.ContentGraph
	BufferManager    *services.BufferManager
	CatalogWatcher   *config.CatalogWatcher
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideMetrics,
	ProvideTransformService,
	ProvideArchiveFetcher,
	ProvideRegistry,
	ProvideContentGraph,
	ProvideBufferManager,
	ProvideCatalogWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
