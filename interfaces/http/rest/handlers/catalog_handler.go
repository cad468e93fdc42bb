package handlers

import (
	"net/http"

	"loom-backend/application/operators"

	"go.uber.org/zap"
)

// CatalogHandler serves the operator and pipeline catalog the UI builds its
// tool palette from
type CatalogHandler struct {
	registry *operators.Registry
	logger   *zap.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(registry *operators.Registry, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListOperators handles GET /operators with an optional ?type= filter
func (h *CatalogHandler) ListOperators(w http.ResponseWriter, r *http.Request) {
	var defs []operators.OperatorDefinition
	if t := r.URL.Query().Get("type"); t != "" {
		defs = h.registry.ListByType(operators.OperatorType(t))
	} else {
		defs = h.registry.List()
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"operators": defs,
	})
}

// ListPipelines handles GET /pipelines
func (h *CatalogHandler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"pipelines": h.registry.ListPipelines(),
	})
}
