package handlers

import (
	"encoding/json"
	"net/http"

	"loom-backend/application/services"
	"loom-backend/domain/core/valueobjects"
	"loom-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BufferHandler handles buffer and transform HTTP requests
type BufferHandler struct {
	manager *services.BufferManager
	logger  *zap.Logger
}

// NewBufferHandler creates a new buffer handler
func NewBufferHandler(manager *services.BufferManager, logger *zap.Logger) *BufferHandler {
	return &BufferHandler{
		manager: manager,
		logger:  logger,
	}
}

// ImportTextRequest represents the request body for importing plain text
type ImportTextRequest struct {
	Text       string   `json:"text" validate:"required"`
	Title      string   `json:"title,omitempty" validate:"omitempty,max=200"`
	SourceType string   `json:"sourceType,omitempty" validate:"omitempty,oneof=filesystem gutenberg book-chapter book-passage facebook"`
	Path       []string `json:"path,omitempty"`
}

// CreateBufferRequest represents the request body for opening a buffer
type CreateBufferRequest struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=200"`
}

// PinBufferRequest represents the request body for pinning a buffer
type PinBufferRequest struct {
	Pinned bool `json:"pinned"`
}

// ApplyOperatorRequest represents the request body for applying an operator
type ApplyOperatorRequest struct {
	Params map[string]interface{} `json:"params,omitempty"`
}

// ImportText handles POST /import
func (h *BufferHandler) ImportText(w http.ResponseWriter, r *http.Request) {
	var req ImportTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.SourceType == "" {
		req.SourceType = string(valueobjects.SourceFilesystem)
	}
	source := valueobjects.ArchiveSource{
		Type: valueobjects.SourceType(req.SourceType),
		Path: req.Path,
	}
	if err := source.Validate(); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	node, err := h.manager.ImportText(req.Text, req.Title, source)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, toNodeDTO(node))
}

// ListBuffers handles GET /buffers
func (h *BufferHandler) ListBuffers(w http.ResponseWriter, r *http.Request) {
	buffers := h.manager.Buffers()
	activeID := h.manager.ActiveBufferID()

	out := make([]BufferDTO, 0, len(buffers))
	for _, buf := range buffers {
		out = append(out, toBufferDTO(buf))
	}

	resp := map[string]interface{}{
		"buffers": out,
	}
	if !activeID.IsZero() {
		resp["activeBufferId"] = activeID.String()
	}
	respondJSON(w, h.logger, http.StatusOK, resp)
}

// CreateBuffer handles POST /buffers
func (h *BufferHandler) CreateBuffer(w http.ResponseWriter, r *http.Request) {
	var req CreateBufferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	buf := h.manager.NewBuffer(req.Name)
	respondJSON(w, h.logger, http.StatusCreated, toBufferDTO(buf))
}

// GetBuffer handles GET /buffers/{bufferID}
func (h *BufferHandler) GetBuffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bufferID(w, r)
	if !ok {
		return
	}

	buf, err := h.manager.GetBuffer(id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, toBufferDTO(buf))
}

// CloseBuffer handles DELETE /buffers/{bufferID}
func (h *BufferHandler) CloseBuffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bufferID(w, r)
	if !ok {
		return
	}

	if err := h.manager.CloseBuffer(id); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message": "Buffer closed",
	})
}

// ActivateBuffer handles POST /buffers/{bufferID}/activate
func (h *BufferHandler) ActivateBuffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bufferID(w, r)
	if !ok {
		return
	}

	if err := h.manager.SetActiveBuffer(id); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	buf, err := h.manager.GetBuffer(id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, toBufferDTO(buf))
}

// ForkBuffer handles POST /buffers/{bufferID}/fork
func (h *BufferHandler) ForkBuffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bufferID(w, r)
	if !ok {
		return
	}

	forked, err := h.manager.ForkBuffer(id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, toBufferDTO(forked))
}

// PinBuffer handles POST /buffers/{bufferID}/pin
func (h *BufferHandler) PinBuffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bufferID(w, r)
	if !ok {
		return
	}

	var req PinBufferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.manager.PinBuffer(id, req.Pinned); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	buf, err := h.manager.GetBuffer(id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, toBufferDTO(buf))
}

// ActiveNode handles GET /buffers/active
func (h *BufferHandler) ActiveNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.manager.ActiveNode()
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, toNodeDTO(node))
}

// ApplyOperator handles POST /buffers/active/operators/{operatorID}
func (h *BufferHandler) ApplyOperator(w http.ResponseWriter, r *http.Request) {
	operatorID := chi.URLParam(r, "operatorID")
	if operatorID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Operator ID is required")
		return
	}

	var req ApplyOperatorRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	node, err := h.manager.ApplyOperator(r.Context(), operatorID, req.Params)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, toNodeDTO(node))
}

// ApplyPipeline handles POST /buffers/active/pipelines/{pipelineID}
func (h *BufferHandler) ApplyPipeline(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "pipelineID")
	if pipelineID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Pipeline ID is required")
		return
	}

	node, err := h.manager.ApplyPipeline(r.Context(), pipelineID)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, toNodeDTO(node))
}

// Undo handles POST /buffers/active/undo
func (h *BufferHandler) Undo(w http.ResponseWriter, r *http.Request) {
	node, err := h.manager.Undo()
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, toNodeDTO(node))
}

// Redo handles POST /buffers/active/redo
func (h *BufferHandler) Redo(w http.ResponseWriter, r *http.Request) {
	node, err := h.manager.Redo()
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, toNodeDTO(node))
}

// History handles GET /buffers/active/history
func (h *BufferHandler) History(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.manager.NodeHistory()
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"nodes":      toNodeDTOs(nodes),
		"operations": len(nodes) - 1,
	})
}

func (h *BufferHandler) bufferID(w http.ResponseWriter, r *http.Request) (valueobjects.BufferID, bool) {
	raw := chi.URLParam(r, "bufferID")
	if raw == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Buffer ID is required")
		return valueobjects.BufferID{}, false
	}
	id, err := valueobjects.NewBufferIDFromString(raw)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid buffer ID format")
		return valueobjects.BufferID{}, false
	}
	return id, true
}
