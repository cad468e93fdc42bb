package handlers

import (
	"net/http"

	"loom-backend/application/services"
	"loom-backend/domain/core/valueobjects"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	manager *services.BufferManager
	logger  *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(manager *services.BufferManager, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		manager: manager,
		logger:  logger,
	}
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.nodeID(w, r)
	if !ok {
		return
	}

	node, err := h.manager.GetNode(id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, toNodeDTO(node))
}

// GetHistory handles GET /nodes/{nodeID}/history
func (h *NodeHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.nodeID(w, r)
	if !ok {
		return
	}

	nodes, err := h.manager.NodeHistoryByID(id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"nodes":      toNodeDTOs(nodes),
		"operations": len(nodes) - 1,
	})
}

func (h *NodeHandler) nodeID(w http.ResponseWriter, r *http.Request) (valueobjects.NodeID, bool) {
	raw := chi.URLParam(r, "nodeID")
	if raw == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Node ID is required")
		return valueobjects.NodeID{}, false
	}
	id, err := valueobjects.NewNodeIDFromString(raw)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid node ID format")
		return valueobjects.NodeID{}, false
	}
	return id, true
}
