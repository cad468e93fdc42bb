package rest

import (
	"net/http"

	"loom-backend/application/ports"
	"loom-backend/application/services"
	"loom-backend/infrastructure/config"
	"loom-backend/interfaces/http/rest/handlers"
	"loom-backend/interfaces/http/rest/middleware"
	"loom-backend/pkg/observability"

	"loom-backend/application/operators"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg      *config.Config
	manager  *services.BufferManager
	registry *operators.Registry
	fetcher  ports.ArchiveFetcher
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	manager *services.BufferManager,
	registry *operators.Registry,
	fetcher ports.ArchiveFetcher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		manager:  manager,
		registry: registry,
		fetcher:  fetcher,
		metrics:  metrics,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{rt.cfg.AllowedOrigin},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// Metrics exposition
	router.Handle("/metrics", promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		bufferHandler := handlers.NewBufferHandler(rt.manager, rt.logger)
		nodeHandler := handlers.NewNodeHandler(rt.manager, rt.logger)
		catalogHandler := handlers.NewCatalogHandler(rt.registry, rt.logger)
		archiveHandler := handlers.NewArchiveHandler(rt.manager, rt.fetcher, rt.logger)

		// Import endpoints
		r.Post("/import", bufferHandler.ImportText)
		r.Post("/import/archive", archiveHandler.ImportArchive)

		// Buffer endpoints
		r.Route("/buffers", func(r chi.Router) {
			r.Get("/", bufferHandler.ListBuffers)
			r.Post("/", bufferHandler.CreateBuffer)

			// Active-buffer endpoints; chi routes the static "active"
			// segment ahead of {bufferID}
			r.Route("/active", func(r chi.Router) {
				r.Get("/", bufferHandler.ActiveNode)
				r.Get("/history", bufferHandler.History)
				r.Post("/undo", bufferHandler.Undo)
				r.Post("/redo", bufferHandler.Redo)
				r.Post("/operators/{operatorID}", bufferHandler.ApplyOperator)
				r.Post("/pipelines/{pipelineID}", bufferHandler.ApplyPipeline)
			})

			r.Route("/{bufferID}", func(r chi.Router) {
				r.Get("/", bufferHandler.GetBuffer)
				r.Delete("/", bufferHandler.CloseBuffer)
				r.Post("/activate", bufferHandler.ActivateBuffer)
				r.Post("/fork", bufferHandler.ForkBuffer)
				r.Post("/pin", bufferHandler.PinBuffer)
			})
		})

		// Node endpoints
		r.Route("/nodes", func(r chi.Router) {
			r.Get("/{nodeID}", nodeHandler.GetNode)
			r.Get("/{nodeID}/history", nodeHandler.GetHistory)
		})

		// Catalog endpoints
		r.Get("/operators", catalogHandler.ListOperators)
		r.Get("/pipelines", catalogHandler.ListPipelines)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
