package handlers

import (
	"time"

	"loom-backend/domain/core/entities"
	"loom-backend/domain/core/valueobjects"
)

// ContentItemDTO is the wire form of one content item
type ContentItemDTO struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// OperationDTO is the wire form of the operation that produced a node
type OperationDTO struct {
	Kind       string                 `json:"kind"`
	OperatorID string                 `json:"operatorId,omitempty"`
	PipelineID string                 `json:"pipelineId,omitempty"`
	Params     map[string]interface{} `json:"params,omitempty"`
}

// SourceDTO is the wire form of a node's provenance
type SourceDTO struct {
	Type       string   `json:"type"`
	Path       []string `json:"path,omitempty"`
	Breadcrumb string   `json:"breadcrumb,omitempty"`
}

// NodeDTO is the wire form of a content node
type NodeDTO struct {
	ID        string           `json:"id"`
	ParentID  string           `json:"parentId,omitempty"`
	Operation OperationDTO     `json:"operation"`
	Title     string           `json:"title,omitempty"`
	Text      string           `json:"text"`
	IsList    bool             `json:"isList"`
	Items     []ContentItemDTO `json:"items,omitempty"`
	AvgScore  *float64         `json:"avgScore,omitempty"`
	Source    SourceDTO        `json:"source"`
	ChildIDs  []string         `json:"childIds,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// BufferDTO is the wire form of an open buffer
type BufferDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Pinned       bool      `json:"pinned"`
	ActiveNodeID string    `json:"activeNodeId,omitempty"`
	Cursor       int       `json:"cursor"`
	Length       int       `json:"length"`
	CanUndo      bool      `json:"canUndo"`
	CanRedo      bool      `json:"canRedo"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

func toNodeDTO(node *entities.ContentNode) NodeDTO {
	op := node.Operation()

	dto := NodeDTO{
		ID: node.ID().String(),
		Operation: OperationDTO{
			Kind:       string(op.Kind),
			OperatorID: op.OperatorID,
			PipelineID: op.PipelineID,
			Params:     op.Params,
		},
		Title:     node.Title(),
		Text:      node.Content().JoinedText("\n\n"),
		IsList:    node.Content().IsList(),
		AvgScore:  node.AvgScore(),
		Source:    toSourceDTO(node.Source()),
		CreatedAt: node.CreatedAt(),
	}

	if !node.ParentID().IsZero() {
		dto.ParentID = node.ParentID().String()
	}
	if node.Content().IsList() {
		items := node.Content().Items()
		dto.Items = make([]ContentItemDTO, 0, len(items))
		for _, item := range items {
			dto.Items = append(dto.Items, ContentItemDTO{
				ID:       item.ID(),
				Text:     item.Text(),
				Metadata: item.Metadata(),
			})
		}
	}
	for _, childID := range node.ChildIDs() {
		dto.ChildIDs = append(dto.ChildIDs, childID.String())
	}

	return dto
}

func toSourceDTO(source valueobjects.ArchiveSource) SourceDTO {
	return SourceDTO{
		Type:       string(source.Type),
		Path:       source.Path,
		Breadcrumb: source.Breadcrumb(),
	}
}

func toBufferDTO(buf *entities.Buffer) BufferDTO {
	dto := BufferDTO{
		ID:           buf.ID().String(),
		Name:         buf.Name(),
		Pinned:       buf.Pinned(),
		Cursor:       buf.Cursor(),
		Length:       buf.Len(),
		CanUndo:      buf.CanUndo(),
		CanRedo:      buf.CanRedo(),
		CreatedAt:    buf.CreatedAt(),
		LastActiveAt: buf.LastActiveAt(),
	}
	if id := buf.ActiveNodeID(); !id.IsZero() {
		dto.ActiveNodeID = id.String()
	}
	return dto
}

func toNodeDTOs(nodes []*entities.ContentNode) []NodeDTO {
	out := make([]NodeDTO, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, toNodeDTO(node))
	}
	return out
}
