package ports

import (
	"context"

	"loom-backend/domain/core/valueobjects"
)

// ImportedContent is text resolved from the archive, ready for ImportText
type ImportedContent struct {
	Text   string
	Title  string
	Source valueobjects.ArchiveSource
}

// ArchiveFetcher resolves conversation and book content from the archive
// server. Indexing and retrieval internals are outside this process.
type ArchiveFetcher interface {
	// FetchMessage resolves a single message of a conversation
	FetchMessage(ctx context.Context, conversationFolder string, messageIndex int) (*ImportedContent, error)

	// FetchConversation resolves a whole conversation as one passage
	FetchConversation(ctx context.Context, conversationFolder string) (*ImportedContent, error)
}
