package valueobjects

import (
	"strings"

	pkgerrors "loom-backend/pkg/errors"
)

// SourceType identifies where a piece of content originally came from
type SourceType string

const (
	SourceChatGPT     SourceType = "chatgpt"
	SourceFacebook    SourceType = "facebook"
	SourceBookChapter SourceType = "book-chapter"
	SourceBookPassage SourceType = "book-passage"
	SourceFilesystem  SourceType = "filesystem"
	SourceGutenberg   SourceType = "gutenberg"
	SourceTransform   SourceType = "transform"
)

// ArchiveSource is a provenance tag attached to a content node. The Path holds
// ordered breadcrumb labels the UI uses for back-navigation to the origin.
type ArchiveSource struct {
	Type SourceType `json:"type"`
	Path []string   `json:"path,omitempty"`

	// Conversation provenance
	ConversationFolder string `json:"conversationFolder,omitempty"`
	MessageIndex       *int   `json:"messageIndex,omitempty"`
	TotalMessages      *int   `json:"totalMessages,omitempty"`

	// Book project provenance
	BookProjectID string `json:"bookProjectId,omitempty"`
	ItemID        string `json:"itemId,omitempty"`
}

// TransformSource returns the source attached to nodes produced by operators
func TransformSource(parentPath []string) ArchiveSource {
	path := make([]string, len(parentPath))
	copy(path, parentPath)
	return ArchiveSource{Type: SourceTransform, Path: path}
}

// Validate checks the source is well-formed
func (s ArchiveSource) Validate() error {
	switch s.Type {
	case SourceChatGPT, SourceFacebook, SourceBookChapter, SourceBookPassage,
		SourceFilesystem, SourceGutenberg, SourceTransform:
	default:
		return pkgerrors.NewValidationError("unknown archive source type")
	}

	if s.Type == SourceChatGPT && s.ConversationFolder == "" {
		return pkgerrors.NewValidationError("chatgpt source requires a conversation folder")
	}

	return nil
}

// Breadcrumb joins the path labels for display
func (s ArchiveSource) Breadcrumb() string {
	return strings.Join(s.Path, " / ")
}

// Equals checks if two sources are identical
func (s ArchiveSource) Equals(other ArchiveSource) bool {
	if s.Type != other.Type ||
		s.ConversationFolder != other.ConversationFolder ||
		s.BookProjectID != other.BookProjectID ||
		s.ItemID != other.ItemID {
		return false
	}
	if len(s.Path) != len(other.Path) {
		return false
	}
	for i := range s.Path {
		if s.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}
