package aggregates

import (
	"testing"

	"loom-backend/domain/core/entities"
	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importMeta(title string) entities.NodeMetadata {
	return entities.NodeMetadata{
		Title:  title,
		Source: valueobjects.ArchiveSource{Type: valueobjects.SourceFilesystem},
	}
}

func transformMeta() entities.NodeMetadata {
	return entities.NodeMetadata{Source: valueobjects.TransformSource(nil)}
}

func TestContentGraph_CreateRoot(t *testing.T) {
	graph := NewContentGraph(nil)

	node, err := graph.CreateRoot(valueobjects.NewContentFromText("Hello"), importMeta("Greeting"))
	require.NoError(t, err)

	assert.Equal(t, 1, graph.NodeCount())
	roots := graph.Roots()
	require.Len(t, roots, 1)
	assert.True(t, roots[0].Equals(node.ID()))

	got, err := graph.GetNode(node.ID())
	require.NoError(t, err)
	assert.Same(t, node, got)
}

func TestContentGraph_CreateChildLinksParent(t *testing.T) {
	graph := NewContentGraph(nil)
	root, err := graph.CreateRoot(valueobjects.NewContentFromText("hello"), importMeta(""))
	require.NoError(t, err)

	child, err := graph.CreateChild(
		root.ID(),
		entities.OperatorOperation("uppercase", nil),
		valueobjects.NewContentFromText("HELLO"),
		transformMeta(),
	)
	require.NoError(t, err)

	assert.Equal(t, 2, graph.NodeCount())
	assert.True(t, child.ParentID().Equals(root.ID()))

	childIDs := root.ChildIDs()
	require.Len(t, childIDs, 1)
	assert.True(t, childIDs[0].Equals(child.ID()))

	// Roots are unchanged by child creation
	assert.Len(t, graph.Roots(), 1)
}

func TestContentGraph_CreateChildMissingParent(t *testing.T) {
	graph := NewContentGraph(nil)

	_, err := graph.CreateChild(
		valueobjects.NewNodeID(),
		entities.OperatorOperation("uppercase", nil),
		valueobjects.NewContentFromText("HELLO"),
		transformMeta(),
	)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestContentGraph_SiblingsFromSameParent(t *testing.T) {
	graph := NewContentGraph(nil)
	root, err := graph.CreateRoot(valueobjects.NewContentFromText("hello"), importMeta(""))
	require.NoError(t, err)

	first, err := graph.CreateChild(root.ID(), entities.OperatorOperation("uppercase", nil),
		valueobjects.NewContentFromText("HELLO"), transformMeta())
	require.NoError(t, err)

	second, err := graph.CreateChild(root.ID(), entities.OperatorOperation("trim", nil),
		valueobjects.NewContentFromText("hello"), transformMeta())
	require.NoError(t, err)

	childIDs := root.ChildIDs()
	require.Len(t, childIDs, 2)
	assert.True(t, childIDs[0].Equals(first.ID()))
	assert.True(t, childIDs[1].Equals(second.ID()))
}

func TestContentGraph_HistoryOldestFirst(t *testing.T) {
	graph := NewContentGraph(nil)
	root, err := graph.CreateRoot(valueobjects.NewContentFromText("one"), importMeta(""))
	require.NoError(t, err)

	mid, err := graph.CreateChild(root.ID(), entities.OperatorOperation("trim", nil),
		valueobjects.NewContentFromText("two"), transformMeta())
	require.NoError(t, err)

	leaf, err := graph.CreateChild(mid.ID(), entities.OperatorOperation("uppercase", nil),
		valueobjects.NewContentFromText("THREE"), transformMeta())
	require.NoError(t, err)

	chain, err := graph.History(leaf.ID())
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.True(t, chain[0].ID().Equals(root.ID()))
	assert.True(t, chain[1].ID().Equals(mid.ID()))
	assert.True(t, chain[2].ID().Equals(leaf.ID()))

	// A root's history is just itself
	chain, err = graph.History(root.ID())
	require.NoError(t, err)
	require.Len(t, chain, 1)
}

func TestContentGraph_HistoryUnknownNode(t *testing.T) {
	graph := NewContentGraph(nil)

	_, err := graph.History(valueobjects.NewNodeID())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}
