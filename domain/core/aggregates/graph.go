package aggregates

import (
	"fmt"

	"loom-backend/domain/config"
	"loom-backend/domain/core/entities"
	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"
)

// ContentGraph is the aggregate root for content lineage: an append-only arena
// of ContentNode indexed by id. Nodes are created by import, operator/pipeline
// application, or fork, and persist for the session's duration. There is no
// deletion and no in-place edit; within a session the graph only grows.
//
// The graph is not safe for concurrent use on its own; the owning manager
// serializes access.
type ContentGraph struct {
	nodes map[string]*entities.ContentNode
	roots []valueobjects.NodeID
	cfg   *config.DomainConfig
}

// NewContentGraph creates an empty graph
func NewContentGraph(cfg *config.DomainConfig) *ContentGraph {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ContentGraph{
		nodes: make(map[string]*entities.ContentNode),
		cfg:   cfg,
	}
}

// CreateRoot creates an imported root node and adds it to the arena
func (g *ContentGraph) CreateRoot(content valueobjects.Content, meta entities.NodeMetadata) (*entities.ContentNode, error) {
	node, err := entities.NewRootNode(content, meta, g.cfg)
	if err != nil {
		return nil, err
	}

	g.nodes[node.ID().String()] = node
	g.roots = append(g.roots, node.ID())
	return node, nil
}

// CreateChild creates a node derived from parentID and appends it to the
// parent's child list. Two children from the same parent are legal; they
// record divergent explorations of the same source.
func (g *ContentGraph) CreateChild(
	parentID valueobjects.NodeID,
	operation entities.Operation,
	content valueobjects.Content,
	meta entities.NodeMetadata,
) (*entities.ContentNode, error) {
	parent, ok := g.nodes[parentID.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("parent node %s", parentID))
	}

	node, err := entities.NewChildNode(parentID, operation, content, meta, g.cfg)
	if err != nil {
		return nil, err
	}

	g.nodes[node.ID().String()] = node
	parent.AppendChild(node.ID())
	return node, nil
}

// GetNode returns the node for id
func (g *ContentGraph) GetNode(id valueobjects.NodeID) (*entities.ContentNode, error) {
	node, ok := g.nodes[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("node %s", id))
	}
	return node, nil
}

// History returns the lineage from the root to id inclusive, oldest first.
// Recomputed on each call; chains are tens of entries at most.
func (g *ContentGraph) History(id valueobjects.NodeID) ([]*entities.ContentNode, error) {
	node, err := g.GetNode(id)
	if err != nil {
		return nil, err
	}

	var chain []*entities.ContentNode
	for {
		chain = append(chain, node)
		if node.IsRoot() {
			break
		}
		parent, ok := g.nodes[node.ParentID().String()]
		if !ok {
			// Parents always outlive children in an append-only arena.
			return nil, pkgerrors.NewInternalError(
				fmt.Sprintf("node %s references missing parent %s", node.ID(), node.ParentID()))
		}
		node = parent
	}

	// Reverse into creation order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Roots returns the ids of all root nodes in creation order
func (g *ContentGraph) Roots() []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, len(g.roots))
	copy(out, g.roots)
	return out
}

// NodeCount returns the number of nodes in the arena
func (g *ContentGraph) NodeCount() int {
	return len(g.nodes)
}
