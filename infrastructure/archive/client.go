package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"loom-backend/application/ports"
	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"

	"go.uber.org/zap"
)

// Client resolves conversation content from the archive server. The archive's
// indexing and media handling live in that server; this client only turns a
// conversation reference into text plus a provenance tag.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an archive fetch client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type messageResponse struct {
	Text          string   `json:"text"`
	Title         string   `json:"title"`
	Path          []string `json:"path"`
	TotalMessages int      `json:"totalMessages"`
}

type conversationResponse struct {
	Text  string   `json:"text"`
	Title string   `json:"title"`
	Path  []string `json:"path"`
}

// FetchMessage implements ports.ArchiveFetcher
func (c *Client) FetchMessage(ctx context.Context, conversationFolder string, messageIndex int) (*ports.ImportedContent, error) {
	path := fmt.Sprintf("/conversations/%s/messages/%d", url.PathEscape(conversationFolder), messageIndex)

	var resp messageResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	index := messageIndex
	total := resp.TotalMessages
	return &ports.ImportedContent{
		Text:  resp.Text,
		Title: resp.Title,
		Source: valueobjects.ArchiveSource{
			Type:               valueobjects.SourceChatGPT,
			Path:               resp.Path,
			ConversationFolder: conversationFolder,
			MessageIndex:       &index,
			TotalMessages:      &total,
		},
	}, nil
}

// FetchConversation implements ports.ArchiveFetcher
func (c *Client) FetchConversation(ctx context.Context, conversationFolder string) (*ports.ImportedContent, error) {
	path := fmt.Sprintf("/conversations/%s", url.PathEscape(conversationFolder))

	var resp conversationResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	return &ports.ImportedContent{
		Text:  resp.Text,
		Title: resp.Title,
		Source: valueobjects.ArchiveSource{
			Type:               valueobjects.SourceChatGPT,
			Path:               resp.Path,
			ConversationFolder: conversationFolder,
		},
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.NewInternalError("building archive request").WithCause(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return pkgerrors.NewCancelledError("archive" + path)
		}
		return pkgerrors.NewExternalError("archive", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return pkgerrors.NewNotFoundError("archive item " + path)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Archive server error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return pkgerrors.NewExternalError("archive",
			fmt.Errorf("archive server returned %d: %s", resp.StatusCode, string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.NewExternalError("archive", fmt.Errorf("decoding archive response: %w", err))
	}
	return nil
}
