package handlers

import (
	"encoding/json"
	"net/http"

	"loom-backend/application/ports"
	"loom-backend/application/services"
	"loom-backend/pkg/utils"

	"go.uber.org/zap"
)

// ArchiveHandler imports conversation content from the archive server into
// the graph
type ArchiveHandler struct {
	manager *services.BufferManager
	fetcher ports.ArchiveFetcher
	logger  *zap.Logger
}

// NewArchiveHandler creates a new archive import handler
func NewArchiveHandler(manager *services.BufferManager, fetcher ports.ArchiveFetcher, logger *zap.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		manager: manager,
		fetcher: fetcher,
		logger:  logger,
	}
}

// ImportArchiveRequest represents the request body for an archive import.
// When MessageIndex is nil the whole conversation is imported as one node.
type ImportArchiveRequest struct {
	ConversationFolder string `json:"conversationFolder" validate:"required"`
	MessageIndex       *int   `json:"messageIndex,omitempty" validate:"omitempty,min=0"`
}

// ImportArchive handles POST /import/archive
func (h *ArchiveHandler) ImportArchive(w http.ResponseWriter, r *http.Request) {
	var req ImportArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	var imported *ports.ImportedContent
	var err error
	if req.MessageIndex != nil {
		imported, err = h.fetcher.FetchMessage(r.Context(), req.ConversationFolder, *req.MessageIndex)
	} else {
		imported, err = h.fetcher.FetchConversation(r.Context(), req.ConversationFolder)
	}
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	node, err := h.manager.ImportText(imported.Text, imported.Title, imported.Source)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, toNodeDTO(node))
}
