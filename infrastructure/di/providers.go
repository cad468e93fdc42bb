package di

import (
	domainconfig "loom-backend/domain/config"

	"loom-backend/application/operators"
	"loom-backend/application/ports"
	"loom-backend/application/services"
	"loom-backend/domain/core/aggregates"
	"loom-backend/infrastructure/archive"
	"loom-backend/infrastructure/config"
	"loom-backend/infrastructure/transform"
	"loom-backend/pkg/observability"

	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideDomainConfig selects the domain rule set for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(cfg.Environment)
	if cfg.MaxOpenBuffers > 0 {
		dc.MaxOpenBuffers = cfg.MaxOpenBuffers
	}
	return dc
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.MetricsNamespace)
}

// ProvideTransformService creates the remote transform client
func ProvideTransformService(cfg *config.Config, logger *zap.Logger) ports.TransformService {
	return transform.NewClient(cfg.TransformServiceURL, cfg.TransformTimeout, logger)
}

// ProvideArchiveFetcher creates the archive server client
func ProvideArchiveFetcher(cfg *config.Config, logger *zap.Logger) ports.ArchiveFetcher {
	return archive.NewClient(cfg.ArchiveServerURL, cfg.ArchiveTimeout, logger)
}

// ProvideRegistry creates the operator registry with built-in, remote, and
// catalog pipelines registered
func ProvideRegistry(
	cfg *config.Config,
	dc *domainconfig.DomainConfig,
	svc ports.TransformService,
	logger *zap.Logger,
) (*operators.Registry, error) {
	registry := operators.NewRegistry(dc, logger)

	if err := operators.RegisterBuiltins(registry); err != nil {
		return nil, err
	}
	if err := operators.RegisterRemoteOperators(registry, svc); err != nil {
		return nil, err
	}
	if err := operators.RegisterDefaultPipelines(registry); err != nil {
		return nil, err
	}

	if cfg.PipelineCatalogPath != "" {
		if err := registry.ReloadCatalog(cfg.PipelineCatalogPath); err != nil {
			// A broken catalog file should not block startup
			logger.Warn("Pipeline catalog load failed",
				zap.String("path", cfg.PipelineCatalogPath),
				zap.Error(err),
			)
		}
	}

	return registry, nil
}

// ProvideContentGraph creates the session's append-only node graph
func ProvideContentGraph(dc *domainconfig.DomainConfig) *aggregates.ContentGraph {
	return aggregates.NewContentGraph(dc)
}

// ProvideBufferManager creates the buffer manager service
func ProvideBufferManager(
	graph *aggregates.ContentGraph,
	registry *operators.Registry,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
	metrics *observability.Collector,
) *services.BufferManager {
	return services.NewBufferManager(graph, registry, dc, logger, metrics)
}

// ProvideCatalogWatcher creates the hot-reload watcher for the pipeline
// catalog; nil when no catalog path is configured
func ProvideCatalogWatcher(
	cfg *config.Config,
	registry *operators.Registry,
	logger *zap.Logger,
) *config.CatalogWatcher {
	if cfg.PipelineCatalogPath == "" || !cfg.WatchPipelineCatalog {
		return nil
	}
	return config.NewCatalogWatcher(cfg.PipelineCatalogPath, registry.ReloadCatalog, logger)
}
