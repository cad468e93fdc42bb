package valueobjects

import (
	"strings"
	"unicode/utf8"

	"loom-backend/domain/config"
	pkgerrors "loom-backend/pkg/errors"

	"github.com/google/uuid"
)

// ContentItem is the atomic unit of content: a message, passage, or chapter body.
// Immutable once created; a transform always produces new items.
type ContentItem struct {
	id       string
	text     string
	metadata map[string]interface{}
}

// NewContentItem creates a content item with a generated id
func NewContentItem(text string) ContentItem {
	return ContentItem{
		id:   uuid.New().String(),
		text: text,
	}
}

// NewContentItemWithMetadata creates a content item carrying item-level metadata
// (per-sentence scores, speaker labels, and similar)
func NewContentItemWithMetadata(text string, metadata map[string]interface{}) ContentItem {
	item := NewContentItem(text)
	if len(metadata) > 0 {
		item.metadata = make(map[string]interface{}, len(metadata))
		for k, v := range metadata {
			item.metadata[k] = v
		}
	}
	return item
}

// ID returns the item's unique identifier
func (i ContentItem) ID() string {
	return i.id
}

// Text returns the item's text
func (i ContentItem) Text() string {
	return i.text
}

// Metadata returns a copy of the item's metadata
func (i ContentItem) Metadata() map[string]interface{} {
	if i.metadata == nil {
		return nil
	}
	out := make(map[string]interface{}, len(i.metadata))
	for k, v := range i.metadata {
		out[k] = v
	}
	return out
}

// MetadataValue returns a single metadata value
func (i ContentItem) MetadataValue(key string) (interface{}, bool) {
	v, ok := i.metadata[key]
	return v, ok
}

// IsEmpty checks if the item holds no text
func (i ContentItem) IsEmpty() bool {
	return strings.TrimSpace(i.text) == ""
}

// WordCount returns the approximate word count
func (i ContentItem) WordCount() int {
	return len(strings.Fields(i.text))
}

// Content is the value an operator consumes and produces: a single item or an
// ordered list of items (after a split, each sentence or passage is its own item).
type Content struct {
	items []ContentItem
	list  bool
}

// NewContent wraps a single item
func NewContent(item ContentItem) Content {
	return Content{items: []ContentItem{item}}
}

// NewContentFromText creates single-item content from raw text
func NewContentFromText(text string) Content {
	return NewContent(NewContentItem(text))
}

// NewContentList wraps an ordered list of items
func NewContentList(items []ContentItem) Content {
	copied := make([]ContentItem, len(items))
	copy(copied, items)
	return Content{items: copied, list: true}
}

// IsList reports whether the content is a list rather than a single item
func (c Content) IsList() bool {
	return c.list
}

// Items returns a copy of the underlying items
func (c Content) Items() []ContentItem {
	out := make([]ContentItem, len(c.items))
	copy(out, c.items)
	return out
}

// First returns the first item; zero value when empty
func (c Content) First() ContentItem {
	if len(c.items) == 0 {
		return ContentItem{}
	}
	return c.items[0]
}

// Len returns the number of items
func (c Content) Len() int {
	return len(c.items)
}

// IsEmpty checks whether the content carries no text at all
func (c Content) IsEmpty() bool {
	for _, item := range c.items {
		if !item.IsEmpty() {
			return false
		}
	}
	return true
}

// JoinedText concatenates all item texts with a separator
func (c Content) JoinedText(sep string) string {
	parts := make([]string, len(c.items))
	for i, item := range c.items {
		parts[i] = item.Text()
	}
	return strings.Join(parts, sep)
}

// Validate checks the content against domain constraints
func (c Content) Validate(cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if c.IsEmpty() && !cfg.AllowEmptyContent {
		return pkgerrors.NewValidationError("content cannot be empty")
	}

	if len(c.items) > cfg.MaxItemsPerNode {
		return pkgerrors.NewValidationError("content exceeds maximum item count")
	}

	for _, item := range c.items {
		if utf8.RuneCountInString(item.Text()) > cfg.MaxContentLength {
			return pkgerrors.NewValidationError("content item exceeds maximum length")
		}
	}

	return nil
}

// Summary returns a truncated preview of the content
func (c Content) Summary(maxLength int) string {
	if maxLength <= 0 {
		return ""
	}

	combined := c.JoinedText(" ")
	if utf8.RuneCountInString(combined) <= maxLength {
		return combined
	}

	runes := []rune(combined)
	return string(runes[:maxLength-3]) + "..."
}
