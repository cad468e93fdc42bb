package entities

import (
	"time"
	"unicode/utf8"

	"loom-backend/domain/config"
	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"
)

// OperationKind identifies how a content node came to exist
type OperationKind string

const (
	OperationImport   OperationKind = "import"
	OperationOperator OperationKind = "operator"
	OperationPipeline OperationKind = "pipeline"
	OperationFork     OperationKind = "fork"
)

// Operation records the action that produced a node
type Operation struct {
	Kind       OperationKind          `json:"kind"`
	OperatorID string                 `json:"operatorId,omitempty"`
	PipelineID string                 `json:"pipelineId,omitempty"`
	Params     map[string]interface{} `json:"params,omitempty"`
}

// ImportOperation returns the operation for an imported root node
func ImportOperation() Operation {
	return Operation{Kind: OperationImport}
}

// OperatorOperation returns the operation for a single operator application
func OperatorOperation(operatorID string, params map[string]interface{}) Operation {
	return Operation{Kind: OperationOperator, OperatorID: operatorID, Params: params}
}

// PipelineOperation returns the operation for a pipeline application
func PipelineOperation(pipelineID string) Operation {
	return Operation{Kind: OperationPipeline, PipelineID: pipelineID}
}

// NodeMetadata carries display and provenance information for a node
type NodeMetadata struct {
	Title    string
	Source   valueobjects.ArchiveSource
	AvgScore *float64
}

// ContentNode is an immutable record of one content version plus the operation
// that produced it. Content and operation never change after creation; the only
// mutation is the append-only child list maintained by the graph.
type ContentNode struct {
	id        valueobjects.NodeID
	parentID  valueobjects.NodeID // zero for roots
	operation Operation
	content   valueobjects.Content
	title     string
	source    valueobjects.ArchiveSource
	avgScore  *float64
	createdAt time.Time
	childIDs  []valueobjects.NodeID
}

// NewRootNode creates an imported root node with full validation
func NewRootNode(content valueobjects.Content, meta NodeMetadata, cfg *config.DomainConfig) (*ContentNode, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if err := content.Validate(cfg); err != nil {
		return nil, err
	}
	if err := validateMetadata(meta, cfg); err != nil {
		return nil, err
	}

	return &ContentNode{
		id:        valueobjects.NewNodeID(),
		operation: ImportOperation(),
		content:   content,
		title:     meta.Title,
		source:    meta.Source,
		avgScore:  meta.AvgScore,
		createdAt: time.Now(),
	}, nil
}

// NewChildNode creates a node derived from an existing parent
func NewChildNode(
	parentID valueobjects.NodeID,
	operation Operation,
	content valueobjects.Content,
	meta NodeMetadata,
	cfg *config.DomainConfig,
) (*ContentNode, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if parentID.IsZero() {
		return nil, pkgerrors.NewValidationError("child node requires a parent")
	}
	if operation.Kind == OperationImport {
		return nil, pkgerrors.NewValidationError("import operations create roots, not children")
	}
	if err := content.Validate(cfg); err != nil {
		return nil, err
	}
	if err := validateMetadata(meta, cfg); err != nil {
		return nil, err
	}

	return &ContentNode{
		id:        valueobjects.NewNodeID(),
		parentID:  parentID,
		operation: operation,
		content:   content,
		title:     meta.Title,
		source:    meta.Source,
		avgScore:  meta.AvgScore,
		createdAt: time.Now(),
	}, nil
}

// ID returns the node's unique identifier
func (n *ContentNode) ID() valueobjects.NodeID {
	return n.id
}

// ParentID returns the parent's identifier; zero for roots
func (n *ContentNode) ParentID() valueobjects.NodeID {
	return n.parentID
}

// IsRoot reports whether the node has no parent
func (n *ContentNode) IsRoot() bool {
	return n.parentID.IsZero()
}

// Operation returns the operation that produced this node
func (n *ContentNode) Operation() Operation {
	return n.operation
}

// Content returns the node's content
func (n *ContentNode) Content() valueobjects.Content {
	return n.content
}

// Title returns the node's display title
func (n *ContentNode) Title() string {
	return n.title
}

// Source returns the node's provenance tag
func (n *ContentNode) Source() valueobjects.ArchiveSource {
	return n.source
}

// AvgScore returns the node's aggregate analysis score, if any
func (n *ContentNode) AvgScore() *float64 {
	return n.avgScore
}

// CreatedAt returns when the node was created
func (n *ContentNode) CreatedAt() time.Time {
	return n.createdAt
}

// ChildIDs returns a copy of the node's child identifiers in creation order
func (n *ContentNode) ChildIDs() []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, len(n.childIDs))
	copy(out, n.childIDs)
	return out
}

// AppendChild records a derived node. Called by the graph when committing a
// child; never removes or reorders existing entries.
func (n *ContentNode) AppendChild(id valueobjects.NodeID) {
	n.childIDs = append(n.childIDs, id)
}

// Clone returns a copy safe to read after the graph's lock is released.
// Content and operation never change after creation, so only the child list
// needs copying.
func (n *ContentNode) Clone() *ContentNode {
	out := *n
	out.childIDs = make([]valueobjects.NodeID, len(n.childIDs))
	copy(out.childIDs, n.childIDs)
	return &out
}

func validateMetadata(meta NodeMetadata, cfg *config.DomainConfig) error {
	if utf8.RuneCountInString(meta.Title) > cfg.MaxTitleLength {
		return pkgerrors.NewValidationError("title exceeds maximum length")
	}
	if err := meta.Source.Validate(); err != nil {
		return err
	}
	return nil
}
