package operators

import (
	"context"
	"testing"

	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(nil, zap.NewNop())
	require.NoError(t, RegisterBuiltins(r))
	return r
}

func apply(t *testing.T, r *Registry, id string, content valueobjects.Content, params map[string]interface{}) valueobjects.Content {
	t.Helper()
	result, err := r.ApplyOperator(context.Background(), id, content, params)
	require.NoError(t, err)
	return result
}

func itemTexts(content valueobjects.Content) []string {
	items := content.Items()
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Text()
	}
	return out
}

func TestBuiltin_CaseOperators(t *testing.T) {
	r := builtinRegistry(t)
	content := valueobjects.NewContentFromText("Hello World")

	assert.Equal(t, "HELLO WORLD", apply(t, r, "uppercase", content, nil).JoinedText(" "))
	assert.Equal(t, "hello world", apply(t, r, "lowercase", content, nil).JoinedText(" "))
}

func TestBuiltin_TrimPreservesListShape(t *testing.T) {
	r := builtinRegistry(t)

	single := apply(t, r, "trim", valueobjects.NewContentFromText("  hi  "), nil)
	assert.False(t, single.IsList())
	assert.Equal(t, "hi", single.JoinedText(" "))

	list := valueobjects.NewContentList([]valueobjects.ContentItem{
		valueobjects.NewContentItem(" a "),
		valueobjects.NewContentItem(" b "),
	})
	trimmed := apply(t, r, "trim", list, nil)
	assert.True(t, trimmed.IsList())
	assert.Equal(t, []string{"a", "b"}, itemTexts(trimmed))
}

func TestBuiltin_SplitSentences(t *testing.T) {
	r := builtinRegistry(t)
	content := valueobjects.NewContentFromText("First one. Second one! Third?")

	result := apply(t, r, "split-sentences", content, nil)
	assert.True(t, result.IsList())
	assert.Equal(t, []string{"First one.", "Second one!", "Third?"}, itemTexts(result))
}

func TestBuiltin_SplitSentences_NoSentences(t *testing.T) {
	r := builtinRegistry(t)

	_, err := r.ApplyOperator(context.Background(), "split-sentences",
		valueobjects.NewContentFromText("   "), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestBuiltin_SplitParagraphs(t *testing.T) {
	r := builtinRegistry(t)
	content := valueobjects.NewContentFromText("First block.\n\nSecond block.\n\n\n\nThird.")

	result := apply(t, r, "split-paragraphs", content, nil)
	assert.Equal(t, []string{"First block.", "Second block.", "Third."}, itemTexts(result))
}

func TestBuiltin_JoinUsesSeparator(t *testing.T) {
	r := builtinRegistry(t)
	list := valueobjects.NewContentList([]valueobjects.ContentItem{
		valueobjects.NewContentItem("a"),
		valueobjects.NewContentItem("b"),
	})

	joined := apply(t, r, "join", list, map[string]interface{}{"separator": " | "})
	assert.False(t, joined.IsList())
	assert.Equal(t, "a | b", joined.JoinedText(""))

	// Default separator is a blank line
	joined = apply(t, r, "join", list, nil)
	assert.Equal(t, "a\n\nb", joined.JoinedText(""))
}

func TestBuiltin_FilterMinWords(t *testing.T) {
	r := builtinRegistry(t)
	list := valueobjects.NewContentList([]valueobjects.ContentItem{
		valueobjects.NewContentItem("one"),
		valueobjects.NewContentItem("two words"),
		valueobjects.NewContentItem("three little words"),
	})

	// JSON numbers decode as float64
	result := apply(t, r, "filter-min-words", list, map[string]interface{}{"minWords": float64(2)})
	assert.Equal(t, []string{"two words", "three little words"}, itemTexts(result))

	_, err := r.ApplyOperator(context.Background(), "filter-min-words", list, nil)
	assert.True(t, pkgerrors.IsInvalidParams(err))
}

func TestBuiltin_SortLength(t *testing.T) {
	r := builtinRegistry(t)
	list := valueobjects.NewContentList([]valueobjects.ContentItem{
		valueobjects.NewContentItem("medium"),
		valueobjects.NewContentItem("longest one"),
		valueobjects.NewContentItem("tiny"),
	})

	asc := apply(t, r, "sort-length", list, nil)
	assert.Equal(t, []string{"tiny", "medium", "longest one"}, itemTexts(asc))

	desc := apply(t, r, "sort-length", list, map[string]interface{}{"direction": "desc"})
	assert.Equal(t, []string{"longest one", "medium", "tiny"}, itemTexts(desc))
}

func TestBuiltin_Reverse(t *testing.T) {
	r := builtinRegistry(t)
	list := valueobjects.NewContentList([]valueobjects.ContentItem{
		valueobjects.NewContentItem("a"),
		valueobjects.NewContentItem("b"),
		valueobjects.NewContentItem("c"),
	})

	result := apply(t, r, "reverse", list, nil)
	assert.Equal(t, []string{"c", "b", "a"}, itemTexts(result))
}

func TestSplitSentences_TrailingClosers(t *testing.T) {
	sentences := SplitSentences(`He said "Stop." Then he left.`)
	require.Len(t, sentences, 2)
	assert.Equal(t, `He said "Stop."`, sentences[0])
	assert.Equal(t, "Then he left.", sentences[1])
}

func TestSplitSentences_NoTerminalPunctuation(t *testing.T) {
	sentences := SplitSentences("an unfinished thought")
	require.Len(t, sentences, 1)
	assert.Equal(t, "an unfinished thought", sentences[0])
}
