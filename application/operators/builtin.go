package operators

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"
)

// RegisterBuiltins installs the pure, in-process operator set. These run
// synchronously and never fail on well-formed input.
func RegisterBuiltins(r *Registry) error {
	defs := []OperatorDefinition{
		{
			ID:          "uppercase",
			Name:        "Uppercase",
			Description: "Convert all text to upper case",
			Type:        TypeTransform,
			Apply:       mapText(strings.ToUpper),
		},
		{
			ID:          "lowercase",
			Name:        "Lowercase",
			Description: "Convert all text to lower case",
			Type:        TypeTransform,
			Apply:       mapText(strings.ToLower),
		},
		{
			ID:          "trim",
			Name:        "Trim whitespace",
			Description: "Trim leading and trailing whitespace from each item",
			Type:        TypeTransform,
			Apply:       mapText(strings.TrimSpace),
		},
		{
			ID:          "split-sentences",
			Name:        "Split into sentences",
			Description: "Split the content into one item per sentence",
			Type:        TypeSplit,
			Apply:       applySplitSentences,
		},
		{
			ID:          "split-paragraphs",
			Name:        "Split into paragraphs",
			Description: "Split the content into one item per paragraph",
			Type:        TypeSplit,
			Apply:       applySplitParagraphs,
		},
		{
			ID:          "join",
			Name:        "Join items",
			Description: "Join a list of items into a single passage",
			Type:        TypeTransform,
			Params: []ParamSpec{
				{Name: "separator", Description: "Text placed between items", Default: "\n\n"},
			},
			Apply: applyJoin,
		},
		{
			ID:          "filter-min-words",
			Name:        "Filter short items",
			Description: "Keep only items with at least the given word count",
			Type:        TypeFilter,
			Params: []ParamSpec{
				{Name: "minWords", Description: "Minimum word count", Required: true, Rules: "min=1"},
			},
			Apply: applyFilterMinWords,
		},
		{
			ID:          "sort-length",
			Name:        "Sort by length",
			Description: "Order items by text length",
			Type:        TypeOrder,
			Params: []ParamSpec{
				{Name: "direction", Description: "Sort direction", Rules: "oneof=asc desc", Default: "asc"},
			},
			Apply: applySortLength,
		},
		{
			ID:          "reverse",
			Name:        "Reverse order",
			Description: "Reverse the order of items",
			Type:        TypeOrder,
			Apply:       applyReverse,
		},
	}

	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// mapText lifts a string function over every item, preserving list shape
func mapText(fn func(string) string) ApplyFunc {
	return func(_ context.Context, content valueobjects.Content, _ map[string]interface{}) (valueobjects.Content, error) {
		items := content.Items()
		out := make([]valueobjects.ContentItem, len(items))
		for i, item := range items {
			out[i] = valueobjects.NewContentItemWithMetadata(fn(item.Text()), item.Metadata())
		}
		if content.IsList() {
			return valueobjects.NewContentList(out), nil
		}
		return valueobjects.NewContent(out[0]), nil
	}
}

func applySplitSentences(_ context.Context, content valueobjects.Content, _ map[string]interface{}) (valueobjects.Content, error) {
	sentences := SplitSentences(content.JoinedText(" "))
	if len(sentences) == 0 {
		return valueobjects.Content{}, pkgerrors.NewValidationError("no sentences found in content")
	}

	items := make([]valueobjects.ContentItem, len(sentences))
	for i, s := range sentences {
		items[i] = valueobjects.NewContentItem(s)
	}
	return valueobjects.NewContentList(items), nil
}

func applySplitParagraphs(_ context.Context, content valueobjects.Content, _ map[string]interface{}) (valueobjects.Content, error) {
	var items []valueobjects.ContentItem
	for _, block := range strings.Split(content.JoinedText("\n\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		items = append(items, valueobjects.NewContentItem(block))
	}
	if len(items) == 0 {
		return valueobjects.Content{}, pkgerrors.NewValidationError("no paragraphs found in content")
	}
	return valueobjects.NewContentList(items), nil
}

func applyJoin(_ context.Context, content valueobjects.Content, params map[string]interface{}) (valueobjects.Content, error) {
	sep, _ := params["separator"].(string)
	return valueobjects.NewContentFromText(content.JoinedText(sep)), nil
}

func applyFilterMinWords(_ context.Context, content valueobjects.Content, params map[string]interface{}) (valueobjects.Content, error) {
	minWords := intParam(params, "minWords", 1)

	var kept []valueobjects.ContentItem
	for _, item := range content.Items() {
		if item.WordCount() >= minWords {
			kept = append(kept, item)
		}
	}
	return valueobjects.NewContentList(kept), nil
}

func applySortLength(_ context.Context, content valueobjects.Content, params map[string]interface{}) (valueobjects.Content, error) {
	direction, _ := params["direction"].(string)

	items := content.Items()
	sort.SliceStable(items, func(i, j int) bool {
		if direction == "desc" {
			return len(items[i].Text()) > len(items[j].Text())
		}
		return len(items[i].Text()) < len(items[j].Text())
	})
	return valueobjects.NewContentList(items), nil
}

func applyReverse(_ context.Context, content valueobjects.Content, _ map[string]interface{}) (valueobjects.Content, error) {
	items := content.Items()
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return valueobjects.NewContentList(items), nil
}

// SplitSentences breaks text on terminal punctuation followed by whitespace.
// Good enough for prose; abbreviation handling is the transform service's job.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			// Consume trailing closers like quotes or parens
			for i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\'' || runes[i+1] == ')') {
				i++
				current.WriteRune(runes[i])
			}
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// intParam reads a numeric parameter that may arrive as float64 from JSON
func intParam(params map[string]interface{}, name string, fallback int) int {
	switch v := params[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
